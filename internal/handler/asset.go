package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adpilot/adpilot/internal/auth"
	"github.com/adpilot/adpilot/internal/handler/dto"
	"github.com/adpilot/adpilot/internal/model"
	"github.com/adpilot/adpilot/internal/service"
)

// AssetHandler handles HTTP requests for campaign assets.
type AssetHandler struct {
	svc    *service.MediaService
	logger *slog.Logger
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(svc *service.MediaService, logger *slog.Logger) *AssetHandler {
	return &AssetHandler{
		svc:    svc,
		logger: logger,
	}
}

// Register handles POST /api/v1/campaigns/{id}/assets.
// Registers an uploaded source asset (logo or product photo).
func (h *AssetHandler) Register(w http.ResponseWriter, r *http.Request) {
	user := auth.MustAuthFromContext(r.Context())
	campaignID := chi.URLParam(r, "id")

	var req dto.RegisterAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	asset, err := h.svc.RegisterSourceAsset(r.Context(), campaignID, user.UserID, model.AssetKind(req.Kind), req.URL)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("asset_registered",
		"asset_id", asset.ID,
		"campaign_id", campaignID,
		"kind", asset.Kind,
	)

	writeJSON(w, http.StatusCreated, asset)
}

// List handles GET /api/v1/campaigns/{id}/assets.
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.MustAuthFromContext(r.Context())
	campaignID := chi.URLParam(r, "id")

	assets, err := h.svc.ListAssets(r.Context(), campaignID, user.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AssetListResponse{Data: assets})
}

// Generate handles POST /api/v1/campaigns/{id}/generate.
// Queues creative generation; assets come back pending and transition
// via the media worker.
func (h *AssetHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user := auth.MustAuthFromContext(r.Context())
	campaignID := chi.URLParam(r, "id")

	var req dto.GenerateAssetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if len(req.Formats) == 0 {
		writeError(w, http.StatusBadRequest, "MISSING_FORMATS", "At least one format is required")
		return
	}

	formats := make([]model.AssetKind, 0, len(req.Formats))
	for _, f := range req.Formats {
		kind := model.AssetKind(f)
		if !kind.IsGenerated() {
			writeError(w, http.StatusBadRequest, "INVALID_FORMAT", "Format must be one of banner, square, story")
			return
		}
		formats = append(formats, kind)
	}

	assets, err := h.svc.Generate(r.Context(), campaignID, user.UserID, formats, req.Prompt)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("generation_queued",
		"campaign_id", campaignID,
		"formats", req.Formats,
	)

	writeJSON(w, http.StatusAccepted, dto.AssetListResponse{Data: assets})
}
