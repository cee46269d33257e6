package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adpilot/adpilot/internal/auth"
	"github.com/adpilot/adpilot/internal/handler/dto"
	"github.com/adpilot/adpilot/internal/service"
)

// APIKeyHandler handles API key management endpoints.
// These are session-only; the router enforces that.
type APIKeyHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(svc *service.AuthService, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/api-keys.
// The plaintext key appears in this response and nowhere else.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.MustAuthFromContext(r.Context())

	var req dto.CreateAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	created, err := h.svc.CreateAPIKey(r.Context(), user.UserID, req.Name, req.Env, req.Scopes, req.Tier)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("api_key_created",
		"key_id", created.Key.ID,
		"key_prefix", created.Key.KeyPrefix,
		"user_id", user.UserID,
	)

	writeJSON(w, http.StatusCreated, dto.CreateAPIKeyResponse{
		Key:       created.Key,
		Plaintext: created.Plaintext,
	})
}

// List handles GET /api/v1/api-keys.
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.MustAuthFromContext(r.Context())

	keys, err := h.svc.ListAPIKeys(r.Context(), user.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.APIKeyListResponse{Data: keys})
}

// Revoke handles DELETE /api/v1/api-keys/{id}.
func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	user := auth.MustAuthFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Key ID is required")
		return
	}

	if err := h.svc.RevokeAPIKey(r.Context(), id, user.UserID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("api_key_revoked", "key_id", id, "user_id", user.UserID)

	w.WriteHeader(http.StatusNoContent)
}
