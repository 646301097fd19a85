package session

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := testConfig()
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing access secret", func(c *Config) { c.AccessSecret = nil }},
		{"missing refresh secret", func(c *Config) { c.RefreshSecret = nil }},
		{"short access secret", func(c *Config) { c.AccessSecret = []byte("short") }},
		{"equal secrets", func(c *Config) { c.RefreshSecret = c.AccessSecret }},
		{"zero access ttl", func(c *Config) { c.AccessTTL = 0 }},
		{"access ttl not shorter than refresh", func(c *Config) { c.AccessTTL = c.RefreshTTL }},
		{"zero op timeout", func(c *Config) { c.OpTimeout = 0 }},
		{"zero sweep interval", func(c *Config) { c.SweepInterval = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err != ErrConfig {
				t.Errorf("Validate() = %v, want ErrConfig", err)
			}
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("FOLIO_JWT_ACCESS_SECRET", "access-secret-0123456789")
	t.Setenv("FOLIO_JWT_REFRESH_SECRET", "refresh-secret-0123456789")
	t.Setenv("FOLIO_AUTH_ISSUER", "folio-test")
	t.Setenv("FOLIO_AUTH_ACCESS_TTL", "30m")
	t.Setenv("FOLIO_AUTH_REFRESH_TTL", "48h")
	t.Setenv("FOLIO_AUTH_ROTATE_REFRESH", "true")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.Issuer != "folio-test" {
		t.Errorf("Issuer = %q, want %q", cfg.Issuer, "folio-test")
	}
	if cfg.AccessTTL != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want 30m", cfg.AccessTTL)
	}
	if cfg.RefreshTTL != 48*time.Hour {
		t.Errorf("RefreshTTL = %v, want 48h", cfg.RefreshTTL)
	}
	if !cfg.RotateOnUse {
		t.Error("RotateOnUse = false, want true")
	}
	// Untouched fields keep their defaults.
	if cfg.OpTimeout != 5*time.Second {
		t.Errorf("OpTimeout = %v, want default 5s", cfg.OpTimeout)
	}
}

func TestLoadConfigFromEnvRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing secrets",
			env:  map[string]string{},
		},
		{
			name: "equal secrets",
			env: map[string]string{
				"FOLIO_JWT_ACCESS_SECRET":  "same-secret-0123456789",
				"FOLIO_JWT_REFRESH_SECRET": "same-secret-0123456789",
			},
		},
		{
			name: "unparsable duration",
			env: map[string]string{
				"FOLIO_JWT_ACCESS_SECRET":  "access-secret-0123456789",
				"FOLIO_JWT_REFRESH_SECRET": "refresh-secret-0123456789",
				"FOLIO_AUTH_ACCESS_TTL":    "soon",
			},
		},
		{
			name: "zero ttl",
			env: map[string]string{
				"FOLIO_JWT_ACCESS_SECRET":  "access-secret-0123456789",
				"FOLIO_JWT_REFRESH_SECRET": "refresh-secret-0123456789",
				"FOLIO_AUTH_REFRESH_TTL":   "0s",
			},
		},
		{
			name: "bad rotate flag",
			env: map[string]string{
				"FOLIO_JWT_ACCESS_SECRET":   "access-secret-0123456789",
				"FOLIO_JWT_REFRESH_SECRET":  "refresh-secret-0123456789",
				"FOLIO_AUTH_ROTATE_REFRESH": "maybe",
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("FOLIO_JWT_ACCESS_SECRET", "")
			t.Setenv("FOLIO_JWT_REFRESH_SECRET", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfigFromEnv(); err != ErrConfig {
				t.Errorf("LoadConfigFromEnv() = %v, want ErrConfig", err)
			}
		})
	}
}
