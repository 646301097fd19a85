package session

import (
	"context"
	"time"
)

// Record is one persisted refresh token.
// A record exists iff the token has neither expired nor been revoked.
type Record struct {
	// Subject is the owning account identifier (immutable after creation).
	Subject string

	// Token is the opaque signed token string, unique across live records.
	Token string

	// ExpiresAt is the absolute expiry; a record with now >= ExpiresAt is
	// dead and must never be returned by FindByToken.
	ExpiresAt time.Time
}

// Store abstracts refresh-token persistence.
//
// Implementations must support concurrent point reads/writes/deletes with
// per-record atomicity: a delete racing a lookup for the same token leaves
// either "found then gone" or "not found", never a torn read.
type Store interface {
	// Create inserts a new record. The write must be durable before the
	// caller returns the token to a client.
	Create(ctx context.Context, rec Record) error

	// FindByToken returns the live record for the exact token string.
	// Expired records are unreachable here regardless of sweep timing;
	// a miss is ErrTokenNotFound.
	FindByToken(ctx context.Context, token string, now time.Time) (Record, error)

	// Delete removes a record by token string. Deleting an absent record
	// is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteBySubject removes all records owned by subject. Required when
	// the owning account is removed.
	DeleteBySubject(ctx context.Context, subject string) error

	// DeleteExpired removes records with expiresAt <= now and reports how
	// many were dropped. Stores with native TTL support may make this a
	// no-op.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
