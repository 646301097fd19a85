// Package users serves the account CRUD endpoints under /api/users.
// Every route sits behind the bearer gate; the gate itself is applied by
// the caller at registration time.
package users

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"folio/cmd/identity"
	authapi "folio/cmd/internal/auth/api"
)

// Store is the account persistence surface the handler needs. It is
// satisfied by *identity.PostgresStore.
type Store interface {
	CreateUser(ctx context.Context, in identity.CreateUserInput) (identity.User, error)
	GetUserByID(ctx context.Context, id string) (identity.User, error)
	ListUsers(ctx context.Context) ([]identity.User, error)
	UpdateUser(ctx context.Context, id string, in identity.UpdateUserInput) (identity.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionRevoker removes every live session owned by a subject. Satisfied
// by *session.Service.
type SessionRevoker interface {
	RevokeSubject(ctx context.Context, subject string) error
}

// Handler serves the user CRUD endpoints.
type Handler struct {
	log      *slog.Logger
	cfg      authapi.Config
	store    Store
	sessions SessionRevoker
}

// NewHandler constructs a users Handler.
func NewHandler(log *slog.Logger, cfg authapi.Config, store Store, sessions SessionRevoker) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, cfg: cfg, store: store, sessions: sessions}
}

// Register wires the user routes onto mux, wrapping each in gate.
func (h *Handler) Register(mux *http.ServeMux, gate func(http.Handler) http.Handler) {
	mux.Handle("GET /api/users", gate(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /api/users", gate(http.HandlerFunc(h.handleCreate)))
	mux.Handle("GET /api/users/{id}", gate(http.HandlerFunc(h.handleGet)))
	mux.Handle("PUT /api/users/{id}", gate(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("DELETE /api/users/{id}", gate(http.HandlerFunc(h.handleDelete)))
}

type createRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.log.Error("users.list.fail", "err", err)
		authapi.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	out := make([]authapi.UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, authapi.ToUserResponse(u))
	}
	authapi.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := authapi.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" {
		authapi.WriteError(w, http.StatusBadRequest, "Name, email, and password are required!")
		return
	}
	if msg, ok := validateCredentials(&name, &email, &req.Password); !ok {
		authapi.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	u, err := h.store.CreateUser(r.Context(), identity.CreateUserInput{
		Name:     name,
		Email:    email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			authapi.WriteError(w, http.StatusBadRequest, "Email must be unique!")
		case identity.IsInvalidInput(err):
			authapi.WriteError(w, http.StatusBadRequest, "Name, email, and password are required!")
		default:
			h.log.Error("users.create.fail", "err", err)
			authapi.WriteError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	authapi.WriteJSON(w, http.StatusOK, authapi.ToUserResponse(u))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if identity.IsNotFound(err) {
			authapi.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error("users.get.fail", "err", err)
		authapi.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	authapi.WriteJSON(w, http.StatusOK, authapi.ToUserResponse(u))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := authapi.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == nil && req.Email == nil && req.Password == nil {
		authapi.WriteError(w, http.StatusBadRequest, "No fields provided for update!")
		return
	}
	if msg, ok := validateCredentials(req.Name, req.Email, req.Password); !ok {
		authapi.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	u, err := h.store.UpdateUser(r.Context(), r.PathValue("id"), identity.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case identity.IsNotFound(err):
			authapi.WriteError(w, http.StatusNotFound, "User not found")
		case identity.IsConflict(err):
			authapi.WriteError(w, http.StatusBadRequest, "Email must be unique!")
		case identity.IsInvalidInput(err):
			authapi.WriteError(w, http.StatusBadRequest, "No fields provided for update!")
		default:
			h.log.Error("users.update.fail", "err", err)
			authapi.WriteError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	authapi.WriteJSON(w, http.StatusOK, authapi.ToUserResponse(u))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		if identity.IsNotFound(err) {
			authapi.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error("users.delete.fail", "err", err)
		authapi.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// A removed account must not keep live sessions. The Postgres token
	// store also cascades on the users FK; this call covers stores that
	// have no such coupling.
	if err := h.sessions.RevokeSubject(r.Context(), id); err != nil {
		h.log.Error("users.revoke_sessions.fail", "err", err, "user_id", id)
	}

	authapi.WriteJSON(w, http.StatusOK, messageResponse{Message: "User deleted successfully!"})
}

// validateCredentials applies the account field rules to whichever fields
// are present. Nil pointers are skipped, letting create and update share
// the same checks.
func validateCredentials(name, email, password *string) (string, bool) {
	if name != nil && password != nil && *name == *password {
		return "Name cannot be the same as password!", false
	}
	if password != nil {
		if err := identity.ValidatePassword(*password); err != nil {
			return "Password must be at least 6 characters long and contain at least one letter and one number!", false
		}
	}
	if email != nil {
		if err := identity.ValidateEmail(*email); err != nil {
			return "Email must be a valid email address!", false
		}
	}
	return "", true
}
