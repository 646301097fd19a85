package app

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	authapi "folio/cmd/internal/auth/api"
	"folio/cmd/internal/portfolio"
	"folio/cmd/internal/users"
)

func registerHTTP(
	mux *http.ServeMux,
	log Logger,
	cfg Config,
	dbPool *pgxpool.Pool,
	auth *authapi.Handler,
	userAPI *users.Handler,
	portfolioAPI *portfolio.Handler,
) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.ReadinessRequireDB {
			if dbPool == nil {
				http.Error(w, "db not configured", http.StatusServiceUnavailable)
				return
			}
			if err := PingDB(r.Context(), dbPool, 2*time.Second); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				log.Info("readyz.db.not_ready", "err", err)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	if auth != nil {
		auth.Register(mux)

		gate := auth.RequireAuth
		if userAPI != nil {
			userAPI.Register(mux, gate)
		}
		if portfolioAPI != nil {
			portfolioAPI.Register(mux, gate)
		}
	}

	// Uploaded images are served from the public directory, the same
	// path prefix the disk blob store bakes into project image URLs.
	if cfg.BlobBackend == BlobBackendDisk {
		fs := http.FileServer(http.Dir(cfg.PublicDir))
		mux.Handle("GET /public/", http.StripPrefix("/public/", fs))
	}
}
