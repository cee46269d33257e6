// Package testutil provides helpers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/adpilot/adpilot/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 817213

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema reapplies migration pairs by their file stems, e.g.
// "000001_create_users", "000002_create_campaigns". Down migrations run
// in reverse order so foreign key dependents are dropped before the
// tables they reference.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool, migrations ...string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		downSQL, err := os.ReadFile(filepath.Join(root, "migrations", migrations[i]+".down.sql"))
		if err != nil {
			return fmt.Errorf("read down migration: %w", err)
		}
		if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
			return fmt.Errorf("apply down migration %s: %w", migrations[i], err)
		}
	}

	for _, migration := range migrations {
		upSQL, err := os.ReadFile(filepath.Join(root, "migrations", migration+".up.sql"))
		if err != nil {
			return fmt.Errorf("read up migration: %w", err)
		}
		if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
			return fmt.Errorf("apply up migration %s: %w", migration, err)
		}
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// NewTestUser creates a test user with sensible defaults.
func NewTestUser(t testing.TB, id string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	return &model.User{
		ID:        id,
		Email:     id + "@example.com",
		Name:      "Test User",
		GoogleID:  "google-" + id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestCampaign creates a test campaign with sensible defaults.
func NewTestCampaign(t testing.TB, ownerID string) *model.Campaign {
	t.Helper()
	now := time.Now().UTC()
	return &model.Campaign{
		ID:          UniqueID("campaign"),
		OwnerID:     ownerID,
		Name:        "Test Campaign",
		Objective:   "Test objective",
		Channels:    []string{"email"},
		BudgetCents: 10000,
		Status:      model.CampaignDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewTestAsset creates a test asset with sensible defaults.
func NewTestAsset(t testing.TB, campaignID string, kind model.AssetKind) *model.Asset {
	t.Helper()
	now := time.Now().UTC()
	status := model.AssetPending
	url := ""
	if kind.IsSource() {
		status = model.AssetReady
		url = "https://cdn.example.com/" + string(kind) + ".png"
	}
	return &model.Asset{
		ID:         UniqueID("asset"),
		CampaignID: campaignID,
		Kind:       kind,
		URL:        url,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewTestAPIKey creates a test API key with sensible defaults.
func NewTestAPIKey(t testing.TB, userID string) *model.APIKey {
	t.Helper()
	now := time.Now().UTC()
	return &model.APIKey{
		ID:            UniqueID("key"),
		UserID:        userID,
		KeyHash:       UniqueID("hash"),
		KeyPrefix:     "abc123",
		Scopes:        []string{model.ScopeRead, model.ScopeWrite},
		RateLimitTier: model.TierFree,
		Name:          "Test Key",
		CreatedAt:     now,
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
