package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"folio/cmd/identity"
)

// Integration tests are enabled when FOLIO_DATABASE_URL is set.
// They assume the goose migrations have been applied to the target database.

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("FOLIO_DATABASE_URL")
	if dbURL == "" {
		t.Skip("FOLIO_DATABASE_URL is not set; skipping Postgres integration test")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// seedUser inserts a throwaway user row to satisfy the refresh_tokens
// foreign key, and removes it (cascading over its tokens) on cleanup.
func seedUser(ctx context.Context, t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	now := time.Now().UTC()
	id, err := identity.NewULID(now)
	if err != nil {
		t.Fatalf("NewULID: %v", err)
	}
	email := fmt.Sprintf("it-%s@example.com", id)

	_, err = pool.Exec(ctx,
		`INSERT INTO folio.users (id, name, email, email_norm, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, "Session IT", email, email, "x", now,
	)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM folio.users WHERE id = $1`, id)
	})
	return id
}

func TestPostgresStore_RecordLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := testPool(ctx, t)
	store := NewPostgresStore(pool)
	userID := seedUser(ctx, t, pool)
	now := time.Now().UTC()

	token := "it-token-" + userID
	rec := Record{Subject: userID, Token: token, ExpiresAt: now.Add(time.Hour)}
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.FindByToken(ctx, token, now)
	if err != nil {
		t.Fatalf("FindByToken: %v", err)
	}
	if got.Subject != userID {
		t.Errorf("subject = %q, want %q", got.Subject, userID)
	}

	// The expiry boundary is live even before any sweep.
	if _, err := store.FindByToken(ctx, token, rec.ExpiresAt); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("FindByToken(now == expiry) = %v, want ErrTokenNotFound", err)
	}

	if err := store.Delete(ctx, token); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.FindByToken(ctx, token, now); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("FindByToken after delete = %v, want ErrTokenNotFound", err)
	}
	if err := store.Delete(ctx, token); err != nil {
		t.Errorf("Delete(absent): %v", err)
	}
}

func TestPostgresStore_DeleteBySubjectAndExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := testPool(ctx, t)
	store := NewPostgresStore(pool)
	userID := seedUser(ctx, t, pool)
	now := time.Now().UTC()

	live := Record{Subject: userID, Token: "it-live-" + userID, ExpiresAt: now.Add(time.Hour)}
	dead := Record{Subject: userID, Token: "it-dead-" + userID, ExpiresAt: now.Add(-time.Hour)}
	for _, rec := range []Record{live, dead} {
		if err := store.Create(ctx, rec); err != nil {
			t.Fatalf("Create(%s): %v", rec.Token, err)
		}
	}

	n, err := store.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n < 1 {
		t.Errorf("DeleteExpired = %d, want at least 1", n)
	}
	if _, err := store.FindByToken(ctx, live.Token, now); err != nil {
		t.Errorf("live record swept: %v", err)
	}

	if err := store.DeleteBySubject(ctx, userID); err != nil {
		t.Fatalf("DeleteBySubject: %v", err)
	}
	if _, err := store.FindByToken(ctx, live.Token, now); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("FindByToken after DeleteBySubject = %v, want ErrTokenNotFound", err)
	}
}

func TestPostgresStore_UserDeletionCascades(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := testPool(ctx, t)
	store := NewPostgresStore(pool)
	userID := seedUser(ctx, t, pool)
	now := time.Now().UTC()

	token := "it-cascade-" + userID
	if err := store.Create(ctx, Record{Subject: userID, Token: token, ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := pool.Exec(ctx, `DELETE FROM folio.users WHERE id = $1`, userID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := store.FindByToken(ctx, token, now); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("token survived its user: %v", err)
	}
}
