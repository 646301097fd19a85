package session

import (
	"crypto/subtle"
	"os"
	"strconv"
	"time"
)

// Config defines all runtime configuration for the session subsystem.
//
// It is intentionally explicit and environment-driven so deployments can
// tune token lifetimes and rotation policy without code changes. The two
// signing secrets are independent on purpose: a leaked access-token secret
// must not allow forging refresh tokens.
type Config struct {
	// Issuer is the value set in the "iss" claim of issued tokens.
	Issuer string

	// AccessTTL is the lifetime of access tokens (embedded in the token).
	AccessTTL time.Duration

	// RefreshTTL is the lifetime of refresh-token records (store-side only;
	// never embedded in the token itself).
	RefreshTTL time.Duration

	// ClockSkew is the allowed time skew during access-token validation.
	ClockSkew time.Duration

	// OpTimeout bounds each store lookup/write and hash verification.
	// A deadline hit surfaces as ErrInternal, never as an auth failure.
	OpTimeout time.Duration

	// SweepInterval is the period of the expired-record sweeper used with
	// stores that have no native TTL support.
	SweepInterval time.Duration

	// RotateOnUse, when true, makes every successful refresh issue a new
	// refresh token and delete the consumed record. The default preserves
	// reuse of the same refresh token until its record expires.
	RotateOnUse bool

	// AccessSecret signs access tokens; RefreshSecret signs refresh tokens.
	// They must be non-empty and must differ.
	AccessSecret  []byte
	RefreshSecret []byte
}

// DefaultConfig returns the baseline configuration; secrets must be
// supplied separately.
func DefaultConfig() Config {
	return Config{
		Issuer:        "folio",
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
		ClockSkew:     30 * time.Second,
		OpTimeout:     5 * time.Second,
		SweepInterval: time.Minute,
	}
}

// Validate checks the secret and TTL invariants.
func (c Config) Validate() error {
	if len(c.AccessSecret) < 16 || len(c.RefreshSecret) < 16 {
		return ErrConfig
	}
	if len(c.AccessSecret) == len(c.RefreshSecret) &&
		subtle.ConstantTimeCompare(c.AccessSecret, c.RefreshSecret) == 1 {
		return ErrConfig
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 || c.AccessTTL >= c.RefreshTTL {
		return ErrConfig
	}
	if c.OpTimeout <= 0 || c.SweepInterval <= 0 {
		return ErrConfig
	}
	return nil
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - FOLIO_JWT_ACCESS_SECRET
//   - FOLIO_JWT_REFRESH_SECRET (must differ from the access secret)
//
// Optional (durations must be valid Go duration strings):
//   - FOLIO_AUTH_ISSUER
//   - FOLIO_AUTH_ACCESS_TTL
//   - FOLIO_AUTH_REFRESH_TTL
//   - FOLIO_AUTH_CLOCK_SKEW
//   - FOLIO_AUTH_OP_TIMEOUT
//   - FOLIO_AUTH_SWEEP_INTERVAL
//   - FOLIO_AUTH_ROTATE_REFRESH (bool)
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("FOLIO_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	for _, f := range []struct {
		key    string
		dst    *time.Duration
		allow0 bool
	}{
		{key: "FOLIO_AUTH_ACCESS_TTL", dst: &cfg.AccessTTL},
		{key: "FOLIO_AUTH_REFRESH_TTL", dst: &cfg.RefreshTTL},
		{key: "FOLIO_AUTH_CLOCK_SKEW", dst: &cfg.ClockSkew, allow0: true},
		{key: "FOLIO_AUTH_OP_TIMEOUT", dst: &cfg.OpTimeout},
		{key: "FOLIO_AUTH_SWEEP_INTERVAL", dst: &cfg.SweepInterval},
	} {
		v := os.Getenv(f.key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 || (d == 0 && !f.allow0) {
			return Config{}, ErrConfig
		}
		*f.dst = d
	}

	if v := os.Getenv("FOLIO_AUTH_ROTATE_REFRESH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, ErrConfig
		}
		cfg.RotateOnUse = b
	}

	cfg.AccessSecret = []byte(os.Getenv("FOLIO_JWT_ACCESS_SECRET"))
	cfg.RefreshSecret = []byte(os.Getenv("FOLIO_JWT_REFRESH_SECRET"))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
