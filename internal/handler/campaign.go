package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adpilot/adpilot/internal/auth"
	"github.com/adpilot/adpilot/internal/handler/dto"
	"github.com/adpilot/adpilot/internal/service"
	"github.com/adpilot/adpilot/internal/tool"
)

// CampaignHandler handles HTTP requests for campaign operations.
type CampaignHandler struct {
	svc    *service.CampaignService
	logger *slog.Logger
}

// NewCampaignHandler creates a new CampaignHandler.
func NewCampaignHandler(svc *service.CampaignService, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/campaigns.
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.MustAuthFromContext(r.Context())

	var req dto.CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	campaign, err := h.svc.Create(r.Context(), user.UserID, tool.CampaignDraft{
		Name:        req.Name,
		Objective:   req.Objective,
		Audience:    req.Audience,
		Channels:    req.Channels,
		BudgetCents: req.BudgetCents,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("campaign_created",
		"campaign_id", campaign.ID,
		"owner_id", campaign.OwnerID,
	)

	writeJSON(w, http.StatusCreated, campaign)
}

// Get handles GET /api/v1/campaigns/{id}.
func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.MustAuthFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Campaign ID is required")
		return
	}

	campaign, err := h.svc.Get(r.Context(), id, user.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, campaign)
}

// List handles GET /api/v1/campaigns.
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.MustAuthFromContext(r.Context())

	campaigns, err := h.svc.List(r.Context(), user.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CampaignListResponse{Data: campaigns})
}

// Update handles PATCH /api/v1/campaigns/{id}.
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.MustAuthFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Campaign ID is required")
		return
	}

	var req dto.UpdateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	campaign, err := h.svc.Update(r.Context(), id, user.UserID, tool.CampaignChanges{
		Name:        req.Name,
		Objective:   req.Objective,
		Audience:    req.Audience,
		Channels:    req.Channels,
		BudgetCents: req.BudgetCents,
		Status:      req.Status,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("campaign_updated", "campaign_id", campaign.ID)

	writeJSON(w, http.StatusOK, campaign)
}

// Delete handles DELETE /api/v1/campaigns/{id}.
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.MustAuthFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Campaign ID is required")
		return
	}

	if err := h.svc.Delete(r.Context(), id, user.UserID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("campaign_deleted", "campaign_id", id)

	w.WriteHeader(http.StatusNoContent)
}
