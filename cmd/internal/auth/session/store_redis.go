package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisTokenPrefix   = "folio:refresh:"
	redisSubjectPrefix = "folio:refresh:subject:"
)

// RedisStore implements Store on Redis, using native key TTLs for passive
// expiry: an expired record simply stops existing, no sweep required.
//
// Layout: one hash per token keyed by the token string, plus a per-subject
// set of token strings so an account removal can revoke everything it owns.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis-backed refresh-token store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Create stores the record with a TTL matching its expiry.
// A record that is already dead on arrival is not stored at all, which
// satisfies the reachability invariant trivially.
func (s *RedisStore) Create(ctx context.Context, rec Record) error {
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	key := redisTokenPrefix + rec.Token
	setKey := redisSubjectPrefix + rec.Subject

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key,
		"subject", rec.Subject,
		"expires_at", rec.ExpiresAt.UTC().Format(time.RFC3339Nano),
	)
	pipe.PExpireAt(ctx, key, rec.ExpiresAt)
	pipe.SAdd(ctx, setKey, rec.Token)
	setTTL := pipe.PTTL(ctx, setKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	// The subject set must outlive its longest-lived member so revocation
	// by subject still sees every live token, but it must not persist
	// forever: without an expiry every login would leave a dead token
	// string behind until the account is deleted. Only extend, never
	// shorten, in case an existing member outlives this record.
	if cur, err := setTTL.Result(); err != nil || cur < 0 || time.Now().Add(cur).Before(rec.ExpiresAt) {
		return s.rdb.PExpireAt(ctx, setKey, rec.ExpiresAt).Err()
	}
	return nil
}

// FindByToken loads a live record. The explicit expiry re-check guards the
// now >= expiresAt boundary against TTL granularity.
func (s *RedisStore) FindByToken(ctx context.Context, token string, now time.Time) (Record, error) {
	vals, err := s.rdb.HGetAll(ctx, redisTokenPrefix+token).Result()
	if err != nil {
		return Record{}, err
	}
	if len(vals) == 0 {
		return Record{}, ErrTokenNotFound
	}

	expiresAt, err := time.Parse(time.RFC3339Nano, vals["expires_at"])
	if err != nil {
		return Record{}, errors.New("refresh token record corrupt")
	}
	if !expiresAt.After(now) {
		return Record{}, ErrTokenNotFound
	}

	return Record{Subject: vals["subject"], Token: token, ExpiresAt: expiresAt}, nil
}

// Delete removes a record and its subject-index entry (idempotent).
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	key := redisTokenPrefix + token

	subject, err := s.rdb.HGet(ctx, key, "subject").Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, redisSubjectPrefix+subject, token)
	_, err = pipe.Exec(ctx)
	return err
}

// DeleteBySubject removes every record owned by subject.
func (s *RedisStore) DeleteBySubject(ctx context.Context, subject string) error {
	setKey := redisSubjectPrefix + subject

	tokens, err := s.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	for _, token := range tokens {
		pipe.Del(ctx, redisTokenPrefix+token)
	}
	pipe.Del(ctx, setKey)
	_, err = pipe.Exec(ctx)
	return err
}

// DeleteExpired is a no-op: Redis evicts expired keys itself.
func (s *RedisStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
