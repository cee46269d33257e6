package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/adpilot/adpilot/internal/media"
	"github.com/adpilot/adpilot/internal/metrics"
	"github.com/adpilot/adpilot/internal/model"
	"github.com/adpilot/adpilot/internal/repository"
)

// JobPublisher enqueues generation jobs. *media.Publisher satisfies this.
type JobPublisher interface {
	Publish(ctx context.Context, job media.GenerationJob) (string, error)
}

// MediaService handles asset management and generation requests.
// It implements tool.MediaGenerator.
type MediaService struct {
	repo      *repository.Repository
	campaigns *CampaignService
	publisher JobPublisher
	metrics   metrics.Recorder
}

// NewMediaService creates a new MediaService.
func NewMediaService(repo *repository.Repository, campaigns *CampaignService, publisher JobPublisher, recorder metrics.Recorder) *MediaService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &MediaService{
		repo:      repo,
		campaigns: campaigns,
		publisher: publisher,
		metrics:   recorder,
	}
}

// RegisterSourceAsset records an uploaded source asset (logo or
// product photo). Source assets are ready immediately.
func (s *MediaService) RegisterSourceAsset(ctx context.Context, campaignID, ownerID string, kind model.AssetKind, url string) (*model.Asset, error) {
	if !kind.IsSource() {
		return nil, model.NewCampaignValidation("kind", "must be logo or product_photo")
	}
	if url == "" {
		return nil, model.NewCampaignValidation("url", "must not be empty")
	}

	campaign, err := s.campaigns.Get(ctx, campaignID, ownerID)
	if err != nil {
		return nil, err
	}
	if campaign.IsArchived() {
		return nil, ErrCampaignArchived
	}

	now := time.Now()
	asset := &model.Asset{
		ID:         ulid.Make().String(),
		CampaignID: campaign.ID,
		Kind:       kind,
		URL:        url,
		Status:     model.AssetReady,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.CreateAsset(ctx, asset); err != nil {
		return nil, err
	}

	return asset, nil
}

// ListAssets retrieves the assets of a campaign, checking ownership.
func (s *MediaService) ListAssets(ctx context.Context, campaignID, ownerID string) ([]*model.Asset, error) {
	if _, err := s.campaigns.Get(ctx, campaignID, ownerID); err != nil {
		return nil, err
	}
	return s.repo.ListAssets(ctx, campaignID)
}

// Generate queues creative generation for the requested formats.
// The campaign must hold ready source assets for every format, or the
// whole request fails with a MissingAssetsError before anything is
// queued.
func (s *MediaService) Generate(ctx context.Context, campaignID, ownerID string, formats []model.AssetKind, prompt string) ([]*model.Asset, error) {
	campaign, err := s.campaigns.Get(ctx, campaignID, ownerID)
	if err != nil {
		return nil, err
	}
	if campaign.IsArchived() {
		return nil, ErrCampaignArchived
	}

	ready, err := s.repo.ReadyAssetKinds(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if missing := missingSourceKinds(formats, ready); len(missing) > 0 {
		return nil, model.NewMissingAssets(campaignID, missing)
	}

	now := time.Now()
	assets := make([]*model.Asset, 0, len(formats))
	for _, format := range formats {
		asset := &model.Asset{
			ID:         ulid.Make().String(),
			CampaignID: campaign.ID,
			Kind:       format,
			Prompt:     prompt,
			Status:     model.AssetPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if err := s.repo.CreateAsset(ctx, asset); err != nil {
			return nil, fmt.Errorf("create pending asset: %w", err)
		}

		if _, err := s.publisher.Publish(ctx, media.GenerationJob{
			AssetID:    asset.ID,
			CampaignID: campaign.ID,
			Kind:       string(format),
			Prompt:     prompt,
		}); err != nil {
			// The asset row exists but the job never made the queue;
			// fail it so it doesn't sit pending forever.
			if markErr := s.repo.MarkAssetFailed(ctx, asset.ID, "failed to queue generation job"); markErr != nil {
				slog.Error("failed to mark unqueued asset",
					"asset_id", asset.ID,
					"error", markErr,
				)
			}
			return nil, fmt.Errorf("queue generation job: %w", err)
		}

		assets = append(assets, asset)
	}

	return assets, nil
}

// missingSourceKinds returns the source kinds required by the
// requested formats that are not in the ready set, sorted and
// deduplicated.
func missingSourceKinds(formats, ready []model.AssetKind) []string {
	readySet := make(map[model.AssetKind]bool, len(ready))
	for _, k := range ready {
		readySet[k] = true
	}

	missingSet := make(map[string]bool)
	for _, format := range formats {
		for _, required := range model.RequiredSourceKinds(format) {
			if !readySet[required] {
				missingSet[string(required)] = true
			}
		}
	}

	missing := make([]string, 0, len(missingSet))
	for k := range missingSet {
		missing = append(missing, k)
	}
	sort.Strings(missing)

	return missing
}
