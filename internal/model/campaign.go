package model

import (
	"slices"
	"time"
)

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignDraft    CampaignStatus = "draft"
	CampaignActive   CampaignStatus = "active"
	CampaignArchived CampaignStatus = "archived"
)

// ValidCampaignStatuses contains all valid status values.
var ValidCampaignStatuses = []CampaignStatus{CampaignDraft, CampaignActive, CampaignArchived}

// IsValid returns true if the status is a known value.
func (s CampaignStatus) IsValid() bool {
	return slices.Contains(ValidCampaignStatuses, s)
}

// Campaign represents an advertising campaign owned by a user.
type Campaign struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"owner_id"`
	Name        string         `json:"name"`
	Objective   string         `json:"objective"`
	Audience    string         `json:"audience,omitempty"`
	Channels    []string       `json:"channels,omitempty"`
	BudgetCents int64          `json:"budget_cents"`
	Status      CampaignStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IsArchived returns true if the campaign is archived.
// Archived campaigns reject mutations and asset generation.
func (c *Campaign) IsArchived() bool {
	return c.Status == CampaignArchived
}
