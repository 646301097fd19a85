package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (folio.refresh_tokens).
//
// Passive expiry is two-layered: FindByToken filters dead rows out so a
// stale row can never satisfy a lookup, and the Sweeper physically removes
// them on an interval.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed refresh-token store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create inserts a new refresh-token row.
func (s *PostgresStore) Create(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO folio.refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, rec.Token, rec.Subject, rec.ExpiresAt)
	return err
}

// FindByToken loads a live row by exact token string.
// The expires_at > now predicate enforces the "now >= expiresAt is dead"
// boundary even before the sweeper has run.
func (s *PostgresStore) FindByToken(ctx context.Context, token string, now time.Time) (Record, error) {
	var rec Record
	err := s.pool.QueryRow(ctx, `
		SELECT token, user_id, expires_at
		FROM folio.refresh_tokens
		WHERE token = $1 AND expires_at > $2
	`, token, now).Scan(&rec.Token, &rec.Subject, &rec.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrTokenNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Delete removes a row by token string (idempotent).
func (s *PostgresStore) Delete(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM folio.refresh_tokens WHERE token = $1
	`, token)
	return err
}

// DeleteBySubject removes all rows owned by a user (idempotent).
func (s *PostgresStore) DeleteBySubject(ctx context.Context, subject string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM folio.refresh_tokens WHERE user_id = $1
	`, subject)
	return err
}

// DeleteExpired drops rows whose expiry has passed.
func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM folio.refresh_tokens WHERE expires_at <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
