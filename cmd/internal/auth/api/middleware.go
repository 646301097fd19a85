package authapi

import (
	"context"
	"net/http"
	"strings"
	"time"
)

type ctxKey int

const subjectKey ctxKey = iota

// SubjectFromContext returns the authenticated subject attached by
// RequireAuth.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok
}

// RequireAuth gates a protected route on a valid bearer access token.
// A missing or malformed Authorization header is 401; a present token that
// fails signature or expiry verification is 403. On success the subject is
// attached to the request context.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		claims, err := h.sessions.Authenticate(token, time.Now().UTC())
		if err != nil {
			WriteError(w, http.StatusForbidden, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
