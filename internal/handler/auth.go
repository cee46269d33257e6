package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/adpilot/adpilot/internal/auth"
	"github.com/adpilot/adpilot/internal/handler/dto"
	"github.com/adpilot/adpilot/internal/service"
)

// AuthHandler handles sign-in and profile endpoints.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

// Login starts the Google sign-in flow.
// GET /auth/google/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.LoginURL(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

// Callback completes the Google sign-in flow and returns a session
// token.
// GET /auth/google/callback?state=...&code=...
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	state := query.Get("state")
	code := query.Get("code")

	if state == "" || code == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "state and code are required")
		return
	}

	token, user, err := h.svc.HandleCallback(r.Context(), state, code)
	if err != nil {
		if authErr := mapAuthError(err); authErr != "" {
			writeError(w, http.StatusUnauthorized, authErr, "Sign-in failed")
			return
		}
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SessionResponse{Token: token, User: user})
}

// Me returns the authenticated user's profile.
// GET /api/v1/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	authUser := auth.MustAuthFromContext(r.Context())

	user, err := h.svc.GetUser(r.Context(), authUser.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// mapAuthError returns an error code for provider failures, or "" for
// errors the generic mapper should handle.
func mapAuthError(err error) string {
	switch {
	case errors.Is(err, auth.ErrProviderError):
		return "PROVIDER_ERROR"
	case errors.Is(err, auth.ErrInvalidIDToken):
		return "INVALID_ID_TOKEN"
	case errors.Is(err, auth.ErrEmailNotVerified):
		return "EMAIL_NOT_VERIFIED"
	default:
		return ""
	}
}
