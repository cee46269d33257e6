package middleware

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/adpilot/adpilot/internal/auth"
	"github.com/adpilot/adpilot/internal/model"
)

// RequireScope returns middleware that enforces scope requirements.
// Must be applied after Auth middleware. Session users hold read and
// write implicitly; API keys carry explicit scopes. If multiple scopes
// are provided, having ANY of them is sufficient.
func RequireScope(required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.AuthFromContext(r.Context())
			if user == nil {
				writeScopeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			scopes := user.EffectiveScopes()

			// Admin scope grants all permissions
			if slices.Contains(scopes, model.ScopeAdmin) {
				next.ServeHTTP(w, r)
				return
			}

			for _, req := range required {
				if slices.Contains(scopes, req) {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeScopeError(w, http.StatusForbidden, "FORBIDDEN",
				fmt.Sprintf("Insufficient permissions. Required scope: %s", required[0]))
		})
	}
}

// RequireRead is a convenience middleware for read scope.
func RequireRead() func(http.Handler) http.Handler {
	return RequireScope(model.ScopeRead)
}

// RequireWrite is a convenience middleware for write scope.
func RequireWrite() func(http.Handler) http.Handler {
	return RequireScope(model.ScopeWrite)
}

// RequireAdmin is a convenience middleware for admin scope.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireScope(model.ScopeAdmin)
}

// RequireSession restricts an endpoint to browser sessions. API key
// management is session-only so a leaked key cannot mint more keys.
func RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.AuthFromContext(r.Context())
			if user == nil {
				writeScopeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}
			if user.Method != model.MethodSession {
				writeScopeError(w, http.StatusForbidden, "FORBIDDEN", "This endpoint requires a browser session")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeScopeError writes a scope-related error response.
func writeScopeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(fmt.Sprintf(`{"error":{"code":"%s","message":"%s"}}`, code, message)))
}
