// Package app wires the folio server runtime: config, logging, storage,
// sessions, and HTTP routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"folio/cmd/identity"
	authapi "folio/cmd/internal/auth/api"
	"folio/cmd/internal/auth/session"
	"folio/cmd/internal/blob"
	"folio/cmd/internal/portfolio"
	"folio/cmd/internal/users"
)

// App is the folio server runtime: it owns the HTTP server wiring and the
// lifecycle of its backing stores.
type App struct {
	cfg Config
	log Logger

	dbPool *pgxpool.Pool
	rdb    *redis.Client

	sessions *session.Service
	sweeper  *session.Sweeper

	auth         *authapi.Handler
	userAPI      *users.Handler
	portfolioAPI *portfolio.Handler
}

// New constructs a fully wired App instance from config and logger.
// It connects to Postgres and applies pending migrations before returning.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogPretty)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, cfg.DatabaseURL); err != nil {
		pool.Close()
		return nil, err
	}

	a, err := wire(ctx, cfg, log, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return a, nil
}

func wire(ctx context.Context, cfg Config, log Logger, pool *pgxpool.Pool) (*App, error) {
	userStore, err := identity.NewPostgresStore(pool)
	if err != nil {
		return nil, err
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	codec, err := session.NewTokenCodec(sessCfg)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log, dbPool: pool}

	var sessStore session.Store
	switch cfg.SessionStore {
	case SessionStoreRedis:
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		sessStore = session.NewRedisStore(a.rdb)
		log.Info("sessions.store", "backend", "redis")
	default:
		pgStore := session.NewPostgresStore(pool)
		sessStore = pgStore
		// Redis evicts dead records via TTL; Postgres needs a sweep.
		a.sweeper = session.NewSweeper(log, pgStore, sessCfg.SweepInterval)
		log.Info("sessions.store", "backend", "postgres")
	}

	a.sessions = session.NewService(sessCfg, log, codec, sessStore, userStore)

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	apiCfg := authapi.LoadConfigFromEnv()
	a.auth = authapi.NewHandler(log, apiCfg, a.sessions)
	a.userAPI = users.NewHandler(log, apiCfg, userStore, a.sessions)
	a.portfolioAPI = portfolio.NewHandler(log, apiCfg, portfolio.NewPostgresStore(pool), blobs)

	return a, nil
}

func newBlobStore(ctx context.Context, cfg Config) (blob.Store, error) {
	switch cfg.BlobBackend {
	case BlobBackendS3:
		return blob.NewS3Store(ctx, cfg.S3)
	default:
		dir := filepath.Join(cfg.PublicDir, "projects")
		return blob.NewDiskStore(dir, path.Join("/public", "projects"))
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.auth, a.userAPI, a.portfolioAPI)

	handler := WithRequestLogging(WithCORS(mux, a.cfg.CORSAllowOrigin), a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if a.sweeper != nil {
		go a.sweeper.Run(sweepCtx)
	}

	a.log.Info("server.start",
		"addr", a.cfg.HTTPAddr,
		"session_store", a.cfg.SessionStore,
		"blob_backend", a.cfg.BlobBackend,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.Close()
	a.log.Info("server.stopped")
	return nil
}

// Close releases the app's backing connections.
func (a *App) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Error("redis.close.fail", "err", err)
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
