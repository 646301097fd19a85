package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"folio/cmd/internal/auth/session"
)

// Handler serves the credential endpoints: login and refresh.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	sessions *session.Service
}

// NewHandler constructs the auth Handler.
func NewHandler(log *slog.Logger, cfg Config, sessions *session.Service) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, cfg: cfg, sessions: sessions}
}

// Register wires the auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/login", h.handleLogin)
	mux.HandleFunc("/api/auth/refresh", h.handleRefresh)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)
	password := strings.TrimSpace(req.Password)
	if email == "" || password == "" {
		WriteError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	issued, err := h.sessions.Login(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrUserNotFound):
			WriteError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, session.ErrBadCredentials):
			WriteError(w, http.StatusUnauthorized, "Invalid password")
		default:
			h.log.Error("auth.login.fail", "err", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken:      issued.AccessToken,
		AccessExpiresAt:  issued.AccessExpiresAt,
		RefreshToken:     issued.RefreshToken,
		RefreshExpiresAt: issued.RefreshExpiresAt,
		User:             ToUserResponse(issued.User),
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req refreshRequest
	if err := DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		WriteError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	out, err := h.sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		// Unknown and malformed tokens answer identically; the store-miss
		// vs bad-signature distinction lives only in logs.
		case errors.Is(err, session.ErrTokenNotFound), errors.Is(err, session.ErrInvalidToken):
			WriteError(w, http.StatusUnauthorized, "Invalid token")
		default:
			h.log.Error("auth.refresh.fail", "err", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	resp := refreshResponse{
		AccessToken:     out.AccessToken,
		AccessExpiresAt: out.AccessExpiresAt,
	}
	if out.RefreshToken != "" {
		resp.RefreshToken = out.RefreshToken
		exp := out.RefreshExpiresAt
		resp.RefreshExpiresAt = &exp
	}
	WriteJSON(w, http.StatusOK, resp)
}
