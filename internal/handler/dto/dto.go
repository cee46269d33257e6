// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/adpilot/adpilot/internal/model"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	// Missing lists the absent source asset kinds on generation
	// precondition failures.
	Missing []string `json:"missing_assets,omitempty"`
}

// CreateCampaignRequest is the body for creating a campaign.
type CreateCampaignRequest struct {
	Name        string   `json:"name"`
	Objective   string   `json:"objective"`
	Audience    string   `json:"audience,omitempty"`
	Channels    []string `json:"channels,omitempty"`
	BudgetCents int64    `json:"budget_cents,omitempty"`
}

// UpdateCampaignRequest is the body for a partial campaign update.
// Absent fields are left untouched.
type UpdateCampaignRequest struct {
	Name        *string  `json:"name,omitempty"`
	Objective   *string  `json:"objective,omitempty"`
	Audience    *string  `json:"audience,omitempty"`
	Channels    []string `json:"channels,omitempty"`
	BudgetCents *int64   `json:"budget_cents,omitempty"`
	Status      *string  `json:"status,omitempty"`
}

// CampaignListResponse wraps a list of campaigns.
type CampaignListResponse struct {
	Data []*model.Campaign `json:"data"`
}

// RegisterAssetRequest is the body for registering a source asset.
type RegisterAssetRequest struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

// GenerateAssetsRequest is the body for requesting creative generation.
type GenerateAssetsRequest struct {
	Formats []string `json:"formats"`
	Prompt  string   `json:"prompt,omitempty"`
}

// AssetListResponse wraps a list of assets.
type AssetListResponse struct {
	Data []*model.Asset `json:"data"`
}

// ChatRequest is the body for a chat turn.
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// ChatResponse is the reply for a chat turn.
type ChatResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
}

// ConversationListResponse wraps a list of conversations.
type ConversationListResponse struct {
	Data []*model.Conversation `json:"data"`
}

// TranscriptResponse is a conversation with its full message history.
type TranscriptResponse struct {
	Conversation *model.Conversation `json:"conversation"`
	Messages     []*model.Message    `json:"messages"`
}

// SessionResponse is returned on successful sign-in.
type SessionResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// CreateAPIKeyRequest is the body for minting an API key.
type CreateAPIKeyRequest struct {
	Name   string   `json:"name,omitempty"`
	Env    string   `json:"env,omitempty"`
	Scopes []string `json:"scopes,omitempty"`
	Tier   string   `json:"tier,omitempty"`
}

// CreateAPIKeyResponse carries the plaintext key exactly once.
type CreateAPIKeyResponse struct {
	Key       *model.APIKey `json:"key"`
	Plaintext string        `json:"plaintext"`
}

// APIKeyListResponse wraps a list of API keys.
type APIKeyListResponse struct {
	Data []*model.APIKey `json:"data"`
}
