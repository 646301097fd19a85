package authapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"folio/cmd/identity"
	"folio/cmd/internal/auth/session"
)

type fakeStore struct {
	mu   sync.Mutex
	recs map[string]session.Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{recs: make(map[string]session.Record)}
}

func (s *fakeStore) Create(ctx context.Context, rec session.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.Token] = rec
	return nil
}

func (s *fakeStore) FindByToken(ctx context.Context, token string, now time.Time) (session.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[token]
	if !ok || !rec.ExpiresAt.After(now) {
		return session.Record{}, session.ErrTokenNotFound
	}
	return rec, nil
}

func (s *fakeStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, token)
	return nil
}

func (s *fakeStore) DeleteBySubject(ctx context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, rec := range s.recs {
		if rec.Subject == subject {
			delete(s.recs, token)
		}
	}
	return nil
}

func (s *fakeStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type fakeVerifier struct {
	byEmail map[string]identity.UserAuth
}

func (v *fakeVerifier) GetUserAuthByEmail(ctx context.Context, email string) (identity.UserAuth, error) {
	ua, ok := v.byEmail[identity.NormalizeEmail(email)]
	if !ok {
		return identity.UserAuth{}, identity.ErrNotFound
	}
	return ua, nil
}

const testPassword = "hunter42"

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	hash, err := identity.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	users := &fakeVerifier{byEmail: map[string]identity.UserAuth{
		"ada@example.com": {
			User: identity.User{
				ID:        "01JTESTUSER0000000000000000",
				Name:      "Ada",
				Email:     "ada@example.com",
				CreatedAt: time.Now().UTC(),
			},
			PasswordHash: hash,
		},
	}}

	cfg := session.DefaultConfig()
	cfg.AccessSecret = []byte("access-secret-0123456789")
	cfg.RefreshSecret = []byte("refresh-secret-0123456789")
	codec, err := session.NewTokenCodec(cfg)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewService(cfg, log, codec, newFakeStore(), users)

	return NewHandler(log, LoadConfigFromEnv(), sessions)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func loginBody(email, password string) string {
	b, _ := json.Marshal(map[string]string{"email": email, "password": password})
	return string(b)
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	mux := http.NewServeMux()
	h.Register(mux)

	rec := doJSON(t, mux, http.MethodPost, "/api/auth/login", loginBody("ADA@example.com", testPassword))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	for _, key := range []string{"access_token", "refresh_token", "user"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing %q", key)
		}
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("login response leaks a password field")
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != "ada@example.com" {
		t.Errorf("user.email = %v, want ada@example.com", user["email"])
	}
}

func TestLoginFailures(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	mux := http.NewServeMux()
	h.Register(mux)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"unknown user", loginBody("nobody@example.com", "anything1"), http.StatusNotFound, "User not found"},
		{"wrong password", loginBody("ada@example.com", "wrongpass1"), http.StatusUnauthorized, "Invalid password"},
		{"missing password", loginBody("ada@example.com", ""), http.StatusBadRequest, "Email and password are required"},
		{"missing email", loginBody("", testPassword), http.StatusBadRequest, "Email and password are required"},
		{"malformed body", "{not json", http.StatusBadRequest, "Invalid request body"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, mux, http.MethodPost, "/api/auth/login", tc.body)
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if got := decodeBody(t, rec)["error"]; got != tc.wantError {
				t.Errorf("error = %v, want %q", got, tc.wantError)
			}
		})
	}
}

func TestLoginMethodNotAllowed(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	mux := http.NewServeMux()
	h.Register(mux)

	rec := doJSON(t, mux, http.MethodGet, "/api/auth/login", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestRefreshSuccess(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	mux := http.NewServeMux()
	h.Register(mux)

	login := doJSON(t, mux, http.MethodPost, "/api/auth/login", loginBody("ada@example.com", testPassword))
	if login.Code != http.StatusOK {
		t.Fatalf("login status = %d", login.Code)
	}
	refreshToken, _ := decodeBody(t, login)["refresh_token"].(string)

	b, _ := json.Marshal(map[string]string{"refresh_token": refreshToken})
	rec := doJSON(t, mux, http.MethodPost, "/api/auth/refresh", string(b))
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if access, _ := body["access_token"].(string); access == "" {
		t.Error("refresh response missing access_token")
	}
	// Rotation is off by default; no replacement token is minted.
	if _, ok := body["refresh_token"]; ok {
		t.Error("refresh response carries an unexpected refresh_token")
	}
}

func TestRefreshFailures(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	mux := http.NewServeMux()
	h.Register(mux)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"unknown token", `{"refresh_token":"never-issued"}`, http.StatusUnauthorized, "Invalid token"},
		{"missing token", `{}`, http.StatusBadRequest, "Refresh token is required"},
		{"malformed body", "{not json", http.StatusBadRequest, "Invalid request body"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, mux, http.MethodPost, "/api/auth/refresh", tc.body)
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if got := decodeBody(t, rec)["error"]; got != tc.wantError {
				t.Errorf("error = %v, want %q", got, tc.wantError)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	mux := http.NewServeMux()
	h.Register(mux)

	var gotSubject string
	protected := h.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	login := doJSON(t, mux, http.MethodPost, "/api/auth/login", loginBody("ada@example.com", testPassword))
	accessToken, _ := decodeBody(t, login)["access_token"].(string)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusForbidden},
		{"valid token", "Bearer " + accessToken, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}

	if gotSubject != "01JTESTUSER0000000000000000" {
		t.Errorf("subject = %q, want the authenticated user ID", gotSubject)
	}
}
