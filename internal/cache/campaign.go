package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adpilot/adpilot/internal/model"
)

// Cache key prefixes and TTLs.
const (
	campaignKeyPrefix = "campaign:"
	negCacheKeySuffix = ":neg"

	// DefaultCampaignTTL is the TTL for cached campaign data.
	// Campaigns are read repeatedly inside agent loops, so a short
	// TTL keeps tool calls cheap without risking long staleness.
	DefaultCampaignTTL = 10 * time.Minute

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetCampaign retrieves a campaign from cache by ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	key := campaignKeyPrefix + id

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, ErrCacheMiss
	}

	var campaign model.Campaign
	if err := json.Unmarshal(data, &campaign); err != nil {
		// Corrupted entry - drop it and report a miss
		c.client.Del(ctx, key)
		return nil, ErrCacheMiss
	}

	return &campaign, nil
}

// SetCampaign stores a campaign in cache.
func (c *Cache) SetCampaign(ctx context.Context, campaign *model.Campaign) error {
	key := campaignKeyPrefix + campaign.ID

	data, err := json.Marshal(campaign)
	if err != nil {
		return fmt.Errorf("marshal campaign: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, DefaultCampaignTTL)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache campaign: %w", err)
	}

	return nil
}

// DeleteCampaign removes a campaign from cache.
// Called on update and delete so readers never see stale data.
func (c *Cache) DeleteCampaign(ctx context.Context, id string) error {
	key := campaignKeyPrefix + id

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete campaign from cache: %w", err)
	}

	return nil
}

// IsNegativelyCached checks if a campaign ID is in negative cache.
func (c *Cache) IsNegativelyCached(ctx context.Context, id string) (bool, error) {
	key := campaignKeyPrefix + id + negCacheKeySuffix

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks a campaign ID as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, id string) error {
	key := campaignKeyPrefix + id + negCacheKeySuffix

	err := c.client.SetEx(ctx, key, "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
