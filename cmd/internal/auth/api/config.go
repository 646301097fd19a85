package authapi

import (
	"os"
	"strconv"
	"strings"
)

// Config controls request handling limits for the JSON API surface.
type Config struct {
	MaxBodyBytes   int64
	MaxUploadBytes int64
}

// LoadConfigFromEnv loads API config from environment variables with safe
// defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		MaxBodyBytes:   envInt64("FOLIO_API_MAX_BODY_BYTES", 1<<20),    // 1 MiB
		MaxUploadBytes: envInt64("FOLIO_API_MAX_UPLOAD_BYTES", 10<<20), // 10 MiB
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	return cfg
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
