// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adpilot/adpilot/internal/cache"
	"github.com/adpilot/adpilot/internal/metrics"
	"github.com/adpilot/adpilot/internal/model"
	"github.com/adpilot/adpilot/internal/repository"
	"github.com/adpilot/adpilot/internal/tool"
)

// ErrCampaignArchived indicates a mutation against an archived campaign.
var ErrCampaignArchived = errors.New("campaign is archived")

const (
	maxNameLength      = 200
	maxObjectiveLength = 2000
	maxAudienceLength  = 2000
	maxChannels        = 10
)

// CampaignService handles campaign business logic.
// It implements tool.CampaignManager so the chat tools share the same
// validation and ownership rules as the REST surface.
type CampaignService struct {
	repo    *repository.Repository
	cache   *cache.Cache
	metrics metrics.Recorder
}

// NewCampaignService creates a new CampaignService.
func NewCampaignService(repo *repository.Repository, c *cache.Cache, recorder metrics.Recorder) *CampaignService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CampaignService{
		repo:    repo,
		cache:   c,
		metrics: recorder,
	}
}

// Create validates and persists a new campaign.
func (s *CampaignService) Create(ctx context.Context, ownerID string, draft tool.CampaignDraft) (*model.Campaign, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	now := time.Now()
	campaign := &model.Campaign{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(draft.Name),
		Objective:   strings.TrimSpace(draft.Objective),
		Audience:    strings.TrimSpace(draft.Audience),
		Channels:    normalizeChannels(draft.Channels),
		BudgetCents: draft.BudgetCents,
		Status:      model.CampaignDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateCampaign(ctx, campaign); err != nil {
		return nil, err
	}

	s.cacheSet(ctx, campaign)
	s.metrics.IncCampaignCreated()

	return campaign, nil
}

// Get retrieves a campaign, checking ownership.
func (s *CampaignService) Get(ctx context.Context, id, ownerID string) (*model.Campaign, error) {
	if s.cache != nil {
		if negative, _ := s.cache.IsNegativelyCached(ctx, id); negative {
			return nil, model.NewCampaignNotFound(id)
		}

		if cached, err := s.cache.GetCampaign(ctx, id); err == nil {
			// Cache entries are keyed by ID only, so ownership is
			// re-checked on every hit.
			if cached.OwnerID != ownerID {
				return nil, model.NewCampaignNotFound(id)
			}
			return cached, nil
		}
	}

	campaign, err := s.repo.GetCampaign(ctx, id, ownerID)
	if err != nil {
		var notFound *model.CampaignNotFoundError
		if errors.As(err, &notFound) && s.cache != nil {
			_ = s.cache.SetNegativeCache(ctx, id)
		}
		return nil, err
	}

	s.cacheSet(ctx, campaign)
	return campaign, nil
}

// List retrieves all campaigns owned by a user.
func (s *CampaignService) List(ctx context.Context, ownerID string) ([]*model.Campaign, error) {
	return s.repo.ListCampaigns(ctx, ownerID)
}

// Update applies partial changes to a campaign.
// Archived campaigns only accept a status change back out of archived.
func (s *CampaignService) Update(ctx context.Context, id, ownerID string, changes tool.CampaignChanges) (*model.Campaign, error) {
	campaign, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if campaign.IsArchived() && !unarchives(changes) {
		return nil, ErrCampaignArchived
	}

	if err := applyChanges(campaign, changes); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCampaign(ctx, campaign); err != nil {
		return nil, err
	}

	s.cacheInvalidate(ctx, id)
	s.cacheSet(ctx, campaign)
	s.metrics.IncCampaignUpdated()

	return campaign, nil
}

// Delete removes a campaign and its assets.
func (s *CampaignService) Delete(ctx context.Context, id, ownerID string) error {
	if err := s.repo.DeleteCampaign(ctx, id, ownerID); err != nil {
		return err
	}

	s.cacheInvalidate(ctx, id)
	s.metrics.IncCampaignDeleted()

	return nil
}

func (s *CampaignService) cacheSet(ctx context.Context, campaign *model.Campaign) {
	if s.cache == nil {
		return
	}
	// Cache failures never fail the request.
	_ = s.cache.SetCampaign(ctx, campaign)
}

func (s *CampaignService) cacheInvalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.DeleteCampaign(ctx, id)
}

// validateDraft checks a new campaign's fields.
func validateDraft(draft tool.CampaignDraft) error {
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return model.NewCampaignValidation("name", "must not be empty")
	}
	if len(name) > maxNameLength {
		return model.NewCampaignValidation("name", "must be at most 200 characters")
	}

	objective := strings.TrimSpace(draft.Objective)
	if objective == "" {
		return model.NewCampaignValidation("objective", "must not be empty")
	}
	if len(objective) > maxObjectiveLength {
		return model.NewCampaignValidation("objective", "must be at most 2000 characters")
	}

	if len(draft.Audience) > maxAudienceLength {
		return model.NewCampaignValidation("audience", "must be at most 2000 characters")
	}

	if err := validateChannels(draft.Channels); err != nil {
		return err
	}

	if draft.BudgetCents < 0 {
		return model.NewCampaignValidation("budget_cents", "must not be negative")
	}

	return nil
}

func validateChannels(channels []string) error {
	if len(channels) > maxChannels {
		return model.NewCampaignValidation("channels", "must have at most 10 entries")
	}
	for _, ch := range channels {
		if strings.TrimSpace(ch) == "" {
			return model.NewCampaignValidation("channels", "entries must not be empty")
		}
	}
	return nil
}

func normalizeChannels(channels []string) []string {
	if len(channels) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(channels))
	for _, ch := range channels {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(ch)))
	}
	return normalized
}

// applyChanges mutates the campaign in place after validating each
// provided field.
func applyChanges(campaign *model.Campaign, changes tool.CampaignChanges) error {
	if changes.Name != nil {
		name := strings.TrimSpace(*changes.Name)
		if name == "" {
			return model.NewCampaignValidation("name", "must not be empty")
		}
		if len(name) > maxNameLength {
			return model.NewCampaignValidation("name", "must be at most 200 characters")
		}
		campaign.Name = name
	}

	if changes.Objective != nil {
		objective := strings.TrimSpace(*changes.Objective)
		if objective == "" {
			return model.NewCampaignValidation("objective", "must not be empty")
		}
		if len(objective) > maxObjectiveLength {
			return model.NewCampaignValidation("objective", "must be at most 2000 characters")
		}
		campaign.Objective = objective
	}

	if changes.Audience != nil {
		if len(*changes.Audience) > maxAudienceLength {
			return model.NewCampaignValidation("audience", "must be at most 2000 characters")
		}
		campaign.Audience = strings.TrimSpace(*changes.Audience)
	}

	if changes.Channels != nil {
		if err := validateChannels(changes.Channels); err != nil {
			return err
		}
		campaign.Channels = normalizeChannels(changes.Channels)
	}

	if changes.BudgetCents != nil {
		if *changes.BudgetCents < 0 {
			return model.NewCampaignValidation("budget_cents", "must not be negative")
		}
		campaign.BudgetCents = *changes.BudgetCents
	}

	if changes.Status != nil {
		status := model.CampaignStatus(*changes.Status)
		if !status.IsValid() {
			return model.NewCampaignValidation("status", "must be one of draft, active, archived")
		}
		campaign.Status = status
	}

	return nil
}

// unarchives reports whether the changes move a campaign out of the
// archived state.
func unarchives(changes tool.CampaignChanges) bool {
	return changes.Status != nil && model.CampaignStatus(*changes.Status) != model.CampaignArchived
}
