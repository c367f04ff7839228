package api

import (
	"net/http"
	"strings"
	"time"

	"rentals/pkg/config"
	"rentals/pkg/token"
)

// SessionAuth resolves the caller and attaches a Session to the request context.
//
// Expected header:
// - Authorization: Bearer <JWT>
//
// With AUTH_DEV_HEADERS=true outside prod, a request without a bearer token
// may identify itself with X-User-ID (and optionally X-User-Role).
func SessionAuth(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				raw := strings.TrimSpace(authz[7:])
				vs, err := token.Verify(raw, cfg.Auth.TokenSecret, cfg.Auth.TokenAudience, time.Now())
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session token")
					return
				}
				s := &Session{UserID: vs.UserID, Role: vs.Role}
				next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
				return
			}

			if cfg.DevHeaderSessions() {
				if userID := strings.TrimSpace(r.Header.Get("X-User-ID")); userID != "" {
					s := &Session{UserID: userID, Role: token.NormalizeRole(r.Header.Get("X-User-Role"))}
					next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
					return
				}
			}

			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session token")
		})
	}
}

// RequireAdmin must run after SessionAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFromContext(r.Context()).IsAdmin() {
			WriteError(w, http.StatusForbidden, "FORBIDDEN", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
