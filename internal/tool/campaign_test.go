package tool

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/adpilot/adpilot/internal/model"
)

// fakeCampaignManager records calls and returns canned campaigns.
type fakeCampaignManager struct {
	lastOwnerID string
	lastID      string
	lastDraft   CampaignDraft
	lastChanges CampaignChanges

	campaign *model.Campaign
	list     []*model.Campaign
	err      error
}

func (f *fakeCampaignManager) Create(_ context.Context, ownerID string, draft CampaignDraft) (*model.Campaign, error) {
	f.lastOwnerID = ownerID
	f.lastDraft = draft
	return f.campaign, f.err
}

func (f *fakeCampaignManager) Get(_ context.Context, id, ownerID string) (*model.Campaign, error) {
	f.lastID = id
	f.lastOwnerID = ownerID
	return f.campaign, f.err
}

func (f *fakeCampaignManager) List(_ context.Context, ownerID string) ([]*model.Campaign, error) {
	f.lastOwnerID = ownerID
	return f.list, f.err
}

func (f *fakeCampaignManager) Update(_ context.Context, id, ownerID string, changes CampaignChanges) (*model.Campaign, error) {
	f.lastID = id
	f.lastOwnerID = ownerID
	f.lastChanges = changes
	return f.campaign, f.err
}

func sampleCampaign() *model.Campaign {
	return &model.Campaign{
		ID:        "camp-1",
		OwnerID:   "user-1",
		Name:      "Summer Launch",
		Objective: "brand awareness",
		Status:    model.CampaignDraft,
	}
}

func TestCreateCampaignTool(t *testing.T) {
	t.Parallel()

	manager := &fakeCampaignManager{campaign: sampleCampaign()}
	r := NewRegistry()
	RegisterCampaignTools(r, manager)

	input := json.RawMessage(`{
		"name": "Summer Launch",
		"objective": "brand awareness",
		"audience": "18-35 urban",
		"channels": ["instagram", "display"],
		"budget_cents": 250000
	}`)

	result, err := r.Execute(context.Background(), toolContext(), "create_campaign", input)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if manager.lastOwnerID != "user-1" {
		t.Errorf("ownerID = %q, want user-1", manager.lastOwnerID)
	}
	if manager.lastDraft.Name != "Summer Launch" {
		t.Errorf("draft name = %q", manager.lastDraft.Name)
	}
	if !reflect.DeepEqual(manager.lastDraft.Channels, []string{"instagram", "display"}) {
		t.Errorf("draft channels = %v", manager.lastDraft.Channels)
	}
	if manager.lastDraft.BudgetCents != 250000 {
		t.Errorf("draft budget = %d", manager.lastDraft.BudgetCents)
	}

	var got model.Campaign
	if err := json.Unmarshal([]byte(result.Output), &got); err != nil {
		t.Fatalf("output should be campaign JSON: %v", err)
	}
	if got.ID != "camp-1" {
		t.Errorf("output campaign ID = %q", got.ID)
	}
}

func TestCreateCampaignTool_RequiresNameAndObjective(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	RegisterCampaignTools(r, &fakeCampaignManager{})

	_, err := r.Execute(context.Background(), toolContext(), "create_campaign",
		json.RawMessage(`{"name":"no objective"}`))
	if !errors.Is(err, ErrMissingRequiredArg) {
		t.Errorf("expected ErrMissingRequiredArg, got %v", err)
	}
}

func TestGetCampaignTool_NotFound(t *testing.T) {
	t.Parallel()

	manager := &fakeCampaignManager{err: model.NewCampaignNotFound("camp-9")}
	r := NewRegistry()
	RegisterCampaignTools(r, manager)

	_, err := r.Execute(context.Background(), toolContext(), "get_campaign",
		json.RawMessage(`{"campaign_id":"camp-9"}`))

	var notFound *model.CampaignNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected CampaignNotFoundError, got %v", err)
	}
	if manager.lastID != "camp-9" {
		t.Errorf("lastID = %q", manager.lastID)
	}
}

func TestListCampaignsTool_EmptyIsJSONArray(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	RegisterCampaignTools(r, &fakeCampaignManager{})

	result, err := r.Execute(context.Background(), toolContext(), "list_campaigns", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Output != "[]" {
		t.Errorf("empty list output = %q, want []", result.Output)
	}
}

func TestUpdateCampaignTool_PartialChanges(t *testing.T) {
	t.Parallel()

	manager := &fakeCampaignManager{campaign: sampleCampaign()}
	r := NewRegistry()
	RegisterCampaignTools(r, manager)

	_, err := r.Execute(context.Background(), toolContext(), "update_campaign",
		json.RawMessage(`{"campaign_id":"camp-1","status":"active"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if manager.lastID != "camp-1" {
		t.Errorf("lastID = %q", manager.lastID)
	}
	if manager.lastChanges.Status == nil || *manager.lastChanges.Status != "active" {
		t.Errorf("status change = %v", manager.lastChanges.Status)
	}
	if manager.lastChanges.Name != nil {
		t.Error("name should not be changed")
	}
	if manager.lastChanges.BudgetCents != nil {
		t.Error("budget should not be changed")
	}
}
