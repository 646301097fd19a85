package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newTestRoutes(t *testing.T, cfg Config) *http.ServeMux {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := http.NewServeMux()
	registerHTTP(mux, log, cfg, nil, nil, nil, nil)
	return mux
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	mux := newTestRoutes(t, Config{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rec.Code)
	}
}

func TestReadyz_WithoutDBRequirement(t *testing.T) {
	t.Parallel()

	mux := newTestRoutes(t, Config{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rec.Code)
	}
}

func TestReadyz_RequireDBWithoutPool(t *testing.T) {
	t.Parallel()

	mux := newTestRoutes(t, Config{ReadinessRequireDB: true})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want 503", rec.Code)
	}
}

func TestStaticFiles_ServedFromPublicDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sub := filepath.Join(dir, "projects")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "pic.png"), []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	mux := newTestRoutes(t, Config{BlobBackend: BlobBackendDisk, PublicDir: dir})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/projects/pic.png", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rec.Code)
	}
	if rec.Body.String() != "png-bytes" {
		t.Fatalf("body=%q", rec.Body.String())
	}
}

func TestStaticFiles_NotRegisteredForS3Backend(t *testing.T) {
	t.Parallel()

	mux := newTestRoutes(t, Config{BlobBackend: BlobBackendS3})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/projects/pic.png", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d want 404", rec.Code)
	}
}
