//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adpilot/adpilot/internal/model"
	"github.com/adpilot/adpilot/internal/testutil"
)

func TestIntegrationCampaignRepository_CreateAndGet(t *testing.T) {
	ctx, repo, owner := newCampaignTestEnv(t)

	campaign := testutil.NewTestCampaign(t, owner.ID)
	if err := repo.CreateCampaign(ctx, campaign); err != nil {
		t.Fatalf("CreateCampaign failed: %v", err)
	}

	retrieved, err := repo.GetCampaign(ctx, campaign.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetCampaign failed: %v", err)
	}

	if retrieved.Name != campaign.Name {
		t.Errorf("Name mismatch: got %q, want %q", retrieved.Name, campaign.Name)
	}
	if retrieved.Status != model.CampaignDraft {
		t.Errorf("Status mismatch: got %q, want %q", retrieved.Status, model.CampaignDraft)
	}
	if len(retrieved.Channels) != 1 || retrieved.Channels[0] != "email" {
		t.Errorf("Channels mismatch: got %v", retrieved.Channels)
	}
	if retrieved.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestIntegrationCampaignRepository_GetScopedToOwner(t *testing.T) {
	ctx, repo, owner := newCampaignTestEnv(t)

	campaign := testutil.NewTestCampaign(t, owner.ID)
	if err := repo.CreateCampaign(ctx, campaign); err != nil {
		t.Fatalf("CreateCampaign failed: %v", err)
	}

	other := testutil.NewTestUser(t, testutil.UniqueID("other"))
	if err := repo.CreateUser(ctx, other); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	_, err := repo.GetCampaign(ctx, campaign.ID, other.ID)
	var notFound *model.CampaignNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("expected CampaignNotFoundError for foreign owner, got: %v", err)
	}
}

func TestIntegrationCampaignRepository_List(t *testing.T) {
	ctx, repo, owner := newCampaignTestEnv(t)

	first := testutil.NewTestCampaign(t, owner.ID)
	first.Name = "First"
	second := testutil.NewTestCampaign(t, owner.ID)
	second.ID = testutil.UniqueID("campaign2")
	second.Name = "Second"
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	for _, c := range []*model.Campaign{first, second} {
		if err := repo.CreateCampaign(ctx, c); err != nil {
			t.Fatalf("CreateCampaign failed: %v", err)
		}
	}

	campaigns, err := repo.ListCampaigns(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListCampaigns failed: %v", err)
	}
	if len(campaigns) != 2 {
		t.Fatalf("expected 2 campaigns, got %d", len(campaigns))
	}
	if campaigns[0].Name != "Second" {
		t.Errorf("expected newest first, got %q", campaigns[0].Name)
	}
}

func TestIntegrationCampaignRepository_Update(t *testing.T) {
	ctx, repo, owner := newCampaignTestEnv(t)

	campaign := testutil.NewTestCampaign(t, owner.ID)
	if err := repo.CreateCampaign(ctx, campaign); err != nil {
		t.Fatalf("CreateCampaign failed: %v", err)
	}

	campaign.Name = "Renamed"
	campaign.Status = model.CampaignActive
	campaign.Channels = []string{"email", "social"}
	if err := repo.UpdateCampaign(ctx, campaign); err != nil {
		t.Fatalf("UpdateCampaign failed: %v", err)
	}

	retrieved, err := repo.GetCampaign(ctx, campaign.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetCampaign failed: %v", err)
	}
	if retrieved.Name != "Renamed" {
		t.Errorf("Name not updated: got %q", retrieved.Name)
	}
	if retrieved.Status != model.CampaignActive {
		t.Errorf("Status not updated: got %q", retrieved.Status)
	}
	if len(retrieved.Channels) != 2 {
		t.Errorf("Channels not updated: got %v", retrieved.Channels)
	}
	if !retrieved.UpdatedAt.After(retrieved.CreatedAt) {
		t.Error("UpdatedAt should advance past CreatedAt")
	}
}

func TestIntegrationCampaignRepository_UpdateMissing(t *testing.T) {
	ctx, repo, owner := newCampaignTestEnv(t)

	campaign := testutil.NewTestCampaign(t, owner.ID)
	err := repo.UpdateCampaign(ctx, campaign)
	var notFound *model.CampaignNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("expected CampaignNotFoundError, got: %v", err)
	}
}

func TestIntegrationCampaignRepository_DeleteCascadesAssets(t *testing.T) {
	ctx, repo, owner := newCampaignTestEnv(t)

	campaign := testutil.NewTestCampaign(t, owner.ID)
	if err := repo.CreateCampaign(ctx, campaign); err != nil {
		t.Fatalf("CreateCampaign failed: %v", err)
	}

	asset := testutil.NewTestAsset(t, campaign.ID, model.AssetLogo)
	if err := repo.CreateAsset(ctx, asset); err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}

	if err := repo.DeleteCampaign(ctx, campaign.ID, owner.ID); err != nil {
		t.Fatalf("DeleteCampaign failed: %v", err)
	}

	if _, err := repo.GetAsset(ctx, asset.ID); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("expected asset to cascade-delete, got: %v", err)
	}

	var notFound *model.CampaignNotFoundError
	if _, err := repo.GetCampaign(ctx, campaign.ID, owner.ID); !errors.As(err, &notFound) {
		t.Errorf("expected CampaignNotFoundError after delete, got: %v", err)
	}
}

func TestIntegrationAssetRepository_ReadyKinds(t *testing.T) {
	ctx, repo, owner := newCampaignTestEnv(t)

	campaign := testutil.NewTestCampaign(t, owner.ID)
	if err := repo.CreateCampaign(ctx, campaign); err != nil {
		t.Fatalf("CreateCampaign failed: %v", err)
	}

	logo := testutil.NewTestAsset(t, campaign.ID, model.AssetLogo)
	banner := testutil.NewTestAsset(t, campaign.ID, model.AssetBanner)
	banner.ID = testutil.UniqueID("banner")
	for _, a := range []*model.Asset{logo, banner} {
		if err := repo.CreateAsset(ctx, a); err != nil {
			t.Fatalf("CreateAsset failed: %v", err)
		}
	}

	kinds, err := repo.ReadyAssetKinds(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("ReadyAssetKinds failed: %v", err)
	}
	if len(kinds) != 1 || kinds[0] != model.AssetLogo {
		t.Fatalf("expected only ready logo, got %v", kinds)
	}

	if err := repo.MarkAssetReady(ctx, banner.ID, "https://cdn.example.com/banner.png"); err != nil {
		t.Fatalf("MarkAssetReady failed: %v", err)
	}

	kinds, err = repo.ReadyAssetKinds(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("ReadyAssetKinds failed: %v", err)
	}
	if len(kinds) != 2 {
		t.Fatalf("expected 2 ready kinds, got %v", kinds)
	}

	updated, err := repo.GetAsset(ctx, banner.ID)
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if updated.Status != model.AssetReady || updated.URL == "" {
		t.Errorf("banner not marked ready: status=%q url=%q", updated.Status, updated.URL)
	}
}

func TestIntegrationAssetRepository_MarkFailed(t *testing.T) {
	ctx, repo, owner := newCampaignTestEnv(t)

	campaign := testutil.NewTestCampaign(t, owner.ID)
	if err := repo.CreateCampaign(ctx, campaign); err != nil {
		t.Fatalf("CreateCampaign failed: %v", err)
	}

	asset := testutil.NewTestAsset(t, campaign.ID, model.AssetStory)
	if err := repo.CreateAsset(ctx, asset); err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}

	if err := repo.MarkAssetFailed(ctx, asset.ID, "upstream timeout"); err != nil {
		t.Fatalf("MarkAssetFailed failed: %v", err)
	}

	updated, err := repo.GetAsset(ctx, asset.ID)
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if updated.Status != model.AssetFailed {
		t.Errorf("expected failed status, got %q", updated.Status)
	}
	if updated.Error != "upstream timeout" {
		t.Errorf("expected error message, got %q", updated.Error)
	}

	if err := repo.MarkAssetReady(ctx, "missing", "https://cdn.example.com/x.png"); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("expected ErrAssetNotFound for unknown asset, got: %v", err)
	}
}

func newCampaignTestEnv(t *testing.T) (context.Context, *Repository, *model.User) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL, 4)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	err = testutil.ResetSchema(ctx, repo.Pool(),
		"000001_create_users",
		"000002_create_campaigns",
		"000003_create_assets",
		"000004_create_conversations",
		"000005_create_api_keys",
	)
	if err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	owner := testutil.NewTestUser(t, testutil.UniqueID("user"))
	if err := repo.CreateUser(ctx, owner); err != nil {
		t.Fatalf("create owner: %v", err)
	}

	return ctx, repo, owner
}
