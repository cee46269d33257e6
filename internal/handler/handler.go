// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/adpilot/adpilot/internal/handler/dto"
	"github.com/adpilot/adpilot/internal/model"
	"github.com/adpilot/adpilot/internal/repository"
	"github.com/adpilot/adpilot/internal/service"
	"github.com/adpilot/adpilot/internal/tool"
)

// Handler provides the root and fallback endpoints.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Hello is the root info endpoint.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "AdPilot API",
		"version": "1.0.0",
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Code: code})
}

// writeServiceError maps domain errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		notFound   *model.CampaignNotFoundError
		validation *model.CampaignValidationError
		missing    *model.MissingAssetsError
		dbDown     *model.DatabaseConnectionError
	)

	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, "CAMPAIGN_NOT_FOUND", notFound.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", validation.Error())
	case errors.As(err, &missing):
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:   missing.Error(),
			Code:    "MISSING_ASSETS",
			Missing: missing.Missing,
		})
	case errors.Is(err, service.ErrCampaignArchived):
		writeError(w, http.StatusConflict, "CAMPAIGN_ARCHIVED", "Campaign is archived")
	case errors.Is(err, service.ErrInvalidState):
		writeError(w, http.StatusBadRequest, "INVALID_STATE", "Invalid or expired login state")
	case errors.Is(err, service.ErrInvalidScope):
		writeError(w, http.StatusBadRequest, "INVALID_SCOPE", "Invalid scope")
	case errors.Is(err, service.ErrInvalidTier):
		writeError(w, http.StatusBadRequest, "INVALID_TIER", "Invalid rate limit tier")
	case errors.Is(err, tool.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, repository.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "CONVERSATION_NOT_FOUND", "Conversation not found")
	case errors.Is(err, repository.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, repository.ErrAPIKeyNotFound):
		writeError(w, http.StatusNotFound, "API_KEY_NOT_FOUND", "API key not found")
	case errors.As(err, &dbDown):
		logger.Error("database unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "Service temporarily unavailable")
	default:
		logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
