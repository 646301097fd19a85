package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements user persistence over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must NOT close it.
// Errors are mapped to identity sentinel kinds where appropriate so API
// layers can translate them to status codes without string matching.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

// WithSchema sets the Postgres schema used by the store (default "folio").
// The schema name is validated to be a legal PostgreSQL identifier so it
// can be interpolated into queries safely.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" || !pgIdentValid(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with defaults.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: "folio"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) users() string { return s.schema + ".users" }

// CreateUser hashes the password and inserts a new user row.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return User{}, invalid(op, "name, email and password are required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, invalid(op, err.Error())
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	emailNorm := NormalizeEmail(email)

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+s.users()+` (id, name, email, email_norm, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, name, emailNorm, emailNorm, hash, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ConflictError{Op: op, Field: "email"}
		}
		return User{}, err
	}

	return User{ID: id, Name: name, Email: emailNorm, CreatedAt: now}, nil
}

// GetUserByID loads a user by primary key.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM `+s.users()+` WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, OpError{Op: op, Kind: ErrNotFound}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUserAuthByEmail loads a user plus credential hash by case-insensitive email.
func (s *PostgresStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	const op = "identity.GetUserAuthByEmail"

	var ua UserAuth
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at
		 FROM `+s.users()+`
		 WHERE email_norm = $1`,
		NormalizeEmail(email),
	).Scan(&ua.User.ID, &ua.User.Name, &ua.User.Email, &ua.PasswordHash, &ua.User.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserAuth{}, OpError{Op: op, Kind: ErrNotFound}
	}
	if err != nil {
		return UserAuth{}, err
	}
	return ua, nil
}

// ListUsers returns all users ordered by creation (ULIDs sort by time).
func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, created_at FROM `+s.users()+` ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUser applies the non-nil fields of in to an existing user.
// A supplied password is re-hashed; a supplied email is re-normalized.
func (s *PostgresStore) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (User, error) {
	const op = "identity.UpdateUser"

	if in.Name == nil && in.Email == nil && in.Password == nil {
		return User{}, invalid(op, "no fields provided for update")
	}

	set := make([]string, 0, 3)
	args := make([]any, 0, 4)
	args = append(args, id)

	if in.Name != nil {
		args = append(args, strings.TrimSpace(*in.Name))
		set = append(set, fmt.Sprintf("name = $%d", len(args)))
	}
	if in.Email != nil {
		norm := NormalizeEmail(*in.Email)
		args = append(args, norm)
		set = append(set, fmt.Sprintf("email = $%d", len(args)))
		set = append(set, fmt.Sprintf("email_norm = $%d", len(args)))
	}
	if in.Password != nil {
		hash, err := HashPassword(*in.Password)
		if err != nil {
			return User{}, invalid(op, err.Error())
		}
		args = append(args, hash)
		set = append(set, fmt.Sprintf("password_hash = $%d", len(args)))
	}

	var u User
	err := s.pool.QueryRow(ctx,
		`UPDATE `+s.users()+` SET `+strings.Join(set, ", ")+`
		 WHERE id = $1
		 RETURNING id, name, email, created_at`,
		args...,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, OpError{Op: op, Kind: ErrNotFound}
	}
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ConflictError{Op: op, Field: "email"}
		}
		return User{}, err
	}
	return u, nil
}

// DeleteUser removes a user row. Refresh-token rows referencing the user
// are removed by the schema's ON DELETE CASCADE; callers that keep session
// state outside Postgres must additionally revoke the subject themselves.
func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	const op = "identity.DeleteUser"

	tag, err := s.pool.Exec(ctx, `DELETE FROM `+s.users()+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return OpError{Op: op, Kind: ErrNotFound}
	}
	return nil
}

func pgIdentValid(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" // unique_violation
}
