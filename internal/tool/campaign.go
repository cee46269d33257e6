package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/adpilot/adpilot/internal/model"
)

// CampaignDraft is the input for creating a campaign via tool call.
type CampaignDraft struct {
	Name        string   `json:"name"`
	Objective   string   `json:"objective"`
	Audience    string   `json:"audience"`
	Channels    []string `json:"channels"`
	BudgetCents int64    `json:"budget_cents"`
}

// CampaignChanges holds the fields an update tool call may touch.
// Nil fields are left unchanged.
type CampaignChanges struct {
	Name        *string  `json:"name"`
	Objective   *string  `json:"objective"`
	Audience    *string  `json:"audience"`
	Channels    []string `json:"channels"`
	BudgetCents *int64   `json:"budget_cents"`
	Status      *string  `json:"status"`
}

// CampaignManager is the service surface the campaign tools call into.
type CampaignManager interface {
	Create(ctx context.Context, ownerID string, draft CampaignDraft) (*model.Campaign, error)
	Get(ctx context.Context, id, ownerID string) (*model.Campaign, error)
	List(ctx context.Context, ownerID string) ([]*model.Campaign, error)
	Update(ctx context.Context, id, ownerID string, changes CampaignChanges) (*model.Campaign, error)
}

// RegisterCampaignTools wires the campaign CRUD tools into the registry.
func RegisterCampaignTools(r *Registry, manager CampaignManager) {
	r.MustRegister(NewCreateCampaignTool(manager))
	r.MustRegister(NewGetCampaignTool(manager))
	r.MustRegister(NewListCampaignsTool(manager))
	r.MustRegister(NewUpdateCampaignTool(manager))
}

// NewCreateCampaignTool returns the create_campaign tool.
func NewCreateCampaignTool(manager CampaignManager) *Tool {
	return &Tool{
		Definition: Definition{
			Name:        "create_campaign",
			Description: "Create a new advertising campaign for the current user. Returns the created campaign as JSON.",
			Required:    []string{"name", "objective"},
			Properties: map[string]Property{
				"name": {
					Type:        "string",
					Description: "Campaign name.",
				},
				"objective": {
					Type:        "string",
					Description: "What the campaign should achieve, e.g. brand awareness or conversions.",
				},
				"audience": {
					Type:        "string",
					Description: "Target audience description.",
				},
				"channels": {
					Type:        "array",
					Description: "Distribution channels, e.g. instagram, facebook, display.",
					Items:       &PropertyItems{Type: "string"},
				},
				"budget_cents": {
					Type:        "integer",
					Description: "Total budget in cents.",
				},
			},
		},
		Execute: func(ctx context.Context, tc Context, input json.RawMessage) (string, error) {
			var draft CampaignDraft
			if err := json.Unmarshal(input, &draft); err != nil {
				return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}

			campaign, err := manager.Create(ctx, tc.UserID(), draft)
			if err != nil {
				return "", err
			}

			return marshalResult(campaign)
		},
	}
}

// NewGetCampaignTool returns the get_campaign tool.
func NewGetCampaignTool(manager CampaignManager) *Tool {
	return &Tool{
		Definition: Definition{
			Name:        "get_campaign",
			Description: "Fetch a single campaign by ID, including its current status.",
			Required:    []string{"campaign_id"},
			Properties: map[string]Property{
				"campaign_id": {
					Type:        "string",
					Description: "ID of the campaign to fetch.",
				},
			},
		},
		Execute: func(ctx context.Context, tc Context, input json.RawMessage) (string, error) {
			var args struct {
				CampaignID string `json:"campaign_id"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}

			campaign, err := manager.Get(ctx, args.CampaignID, tc.UserID())
			if err != nil {
				return "", err
			}

			return marshalResult(campaign)
		},
	}
}

// NewListCampaignsTool returns the list_campaigns tool.
func NewListCampaignsTool(manager CampaignManager) *Tool {
	return &Tool{
		Definition: Definition{
			Name:        "list_campaigns",
			Description: "List all campaigns belonging to the current user, newest first.",
			Properties:  map[string]Property{},
		},
		Execute: func(ctx context.Context, tc Context, _ json.RawMessage) (string, error) {
			campaigns, err := manager.List(ctx, tc.UserID())
			if err != nil {
				return "", err
			}

			if campaigns == nil {
				campaigns = []*model.Campaign{}
			}
			return marshalResult(campaigns)
		},
	}
}

// NewUpdateCampaignTool returns the update_campaign tool.
func NewUpdateCampaignTool(manager CampaignManager) *Tool {
	return &Tool{
		Definition: Definition{
			Name:        "update_campaign",
			Description: "Update fields of an existing campaign. Only provided fields are changed.",
			Required:    []string{"campaign_id"},
			Properties: map[string]Property{
				"campaign_id": {
					Type:        "string",
					Description: "ID of the campaign to update.",
				},
				"name": {
					Type:        "string",
					Description: "New campaign name.",
				},
				"objective": {
					Type:        "string",
					Description: "New campaign objective.",
				},
				"audience": {
					Type:        "string",
					Description: "New target audience description.",
				},
				"channels": {
					Type:        "array",
					Description: "Replacement list of distribution channels.",
					Items:       &PropertyItems{Type: "string"},
				},
				"budget_cents": {
					Type:        "integer",
					Description: "New total budget in cents.",
				},
				"status": {
					Type:        "string",
					Description: "New campaign status.",
					Enum:        []any{"draft", "active", "archived"},
				},
			},
		},
		Execute: func(ctx context.Context, tc Context, input json.RawMessage) (string, error) {
			var args struct {
				CampaignID string `json:"campaign_id"`
				CampaignChanges
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}

			campaign, err := manager.Update(ctx, args.CampaignID, tc.UserID(), args.CampaignChanges)
			if err != nil {
				return "", err
			}

			return marshalResult(campaign)
		},
	}
}

// marshalResult renders a tool result as compact JSON for the model.
func marshalResult(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return string(data), nil
}
