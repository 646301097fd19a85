package app

import (
	"fmt"
	"time"

	"folio/cmd/internal/blob"
)

// Session store backends.
const (
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
)

// Blob store backends.
const (
	BlobBackendDisk = "disk"
	BlobBackendS3   = "s3"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogPretty bool

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, /readyz returns 503 unless the DB is reachable.
	ReadinessRequireDB bool

	// SessionStore selects where refresh-token records live:
	// "postgres" (default) or "redis".
	SessionStore  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// BlobBackend selects where uploaded images are stored:
	// "disk" (default) or "s3".
	BlobBackend string

	// PublicDir is the root of statically served files; uploads land in
	// PublicDir/projects. Only used by the disk backend.
	PublicDir string

	S3 blob.S3Config

	// CORSAllowOrigin is the Access-Control-Allow-Origin value.
	// Defaults to "*" so browser frontends work out of the box.
	CORSAllowOrigin string
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("FOLIO_HTTP_ADDR", "0.0.0.0:5000"),
		LogLevel:  EnvString("FOLIO_LOG_LEVEL", "info"),
		LogPretty: EnvBool("FOLIO_LOG_PRETTY", false),

		ReadHeaderTimeout: EnvDuration("FOLIO_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("FOLIO_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("FOLIO_HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       EnvDuration("FOLIO_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("FOLIO_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("FOLIO_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("FOLIO_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("FOLIO_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("FOLIO_READINESS_REQUIRE_DB", false),

		SessionStore:  EnvString("FOLIO_SESSION_STORE", SessionStorePostgres),
		RedisAddr:     EnvString("FOLIO_REDIS_ADDR", "localhost:6379"),
		RedisPassword: EnvString("FOLIO_REDIS_PASSWORD", ""),
		RedisDB:       EnvInt("FOLIO_REDIS_DB", 0),

		BlobBackend: EnvString("FOLIO_BLOB_BACKEND", BlobBackendDisk),
		PublicDir:   EnvString("FOLIO_PUBLIC_DIR", "public"),

		S3: blob.S3Config{
			Region:       EnvString("FOLIO_S3_REGION", "us-east-1"),
			Bucket:       EnvString("FOLIO_S3_BUCKET", ""),
			KeyPrefix:    EnvString("FOLIO_S3_KEY_PREFIX", "projects"),
			AccessKey:    EnvString("FOLIO_S3_ACCESS_KEY", ""),
			SecretKey:    EnvString("FOLIO_S3_SECRET_KEY", ""),
			BaseEndpoint: EnvString("FOLIO_S3_ENDPOINT", ""),
		},

		CORSAllowOrigin: EnvString("FOLIO_CORS_ALLOW_ORIGIN", "*"),
	}
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: FOLIO_DATABASE_URL is required")
	}
	switch c.SessionStore {
	case SessionStorePostgres, SessionStoreRedis:
	default:
		return fmt.Errorf("config: unknown session store %q", c.SessionStore)
	}
	switch c.BlobBackend {
	case BlobBackendDisk:
	case BlobBackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("config: FOLIO_S3_BUCKET is required for the s3 blob backend")
		}
	default:
		return fmt.Errorf("config: unknown blob backend %q", c.BlobBackend)
	}
	return nil
}
