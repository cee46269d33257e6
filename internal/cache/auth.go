package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adpilot/adpilot/internal/model"
)

const (
	// authCachePrefix is the Redis key prefix for auth context cache.
	authCachePrefix = "auth:ctx:"
	// authCacheTTL is the time-to-live for cached auth contexts.
	authCacheTTL = 5 * time.Minute

	// oauthStatePrefix is the Redis key prefix for OAuth state tokens.
	oauthStatePrefix = "oauth:state:"
	// oauthStateTTL bounds how long a login attempt can stay pending.
	oauthStateTTL = 10 * time.Minute
)

// ErrStateNotFound indicates an unknown or already-consumed OAuth state.
var ErrStateNotFound = errors.New("oauth state not found")

// cachedAuthUser is the Redis representation of an authenticated caller.
type cachedAuthUser struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Method string   `json:"method"`
	KeyID  string   `json:"key_id,omitempty"`
	Scopes []string `json:"scopes,omitempty"`
	Tier   string   `json:"tier,omitempty"`
}

// GetAuthUser retrieves a cached auth context by cache key.
// Returns nil on a cache miss.
func (c *Cache) GetAuthUser(ctx context.Context, cacheKey string) (*model.AuthUser, error) {
	key := authCachePrefix + cacheKey

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached cachedAuthUser
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.AuthUser{
		UserID:        cached.UserID,
		Email:         cached.Email,
		Name:          cached.Name,
		Method:        model.AuthMethod(cached.Method),
		KeyID:         cached.KeyID,
		Scopes:        cached.Scopes,
		RateLimitTier: cached.Tier,
	}, nil
}

// SetAuthUser caches an auth context.
func (c *Cache) SetAuthUser(ctx context.Context, cacheKey string, auth *model.AuthUser) error {
	key := authCachePrefix + cacheKey

	cached := cachedAuthUser{
		UserID: auth.UserID,
		Email:  auth.Email,
		Name:   auth.Name,
		Method: string(auth.Method),
		KeyID:  auth.KeyID,
		Scopes: auth.Scopes,
		Tier:   auth.RateLimitTier,
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal auth user: %w", err)
	}

	return c.client.Set(ctx, key, data, authCacheTTL).Err()
}

// DeleteAuthUser removes a cached auth context.
// Used when a key is revoked or a session logs out.
func (c *Cache) DeleteAuthUser(ctx context.Context, cacheKey string) error {
	key := authCachePrefix + cacheKey
	return c.client.Del(ctx, key).Err()
}

// SetOAuthState stores a one-time OAuth state token.
func (c *Cache) SetOAuthState(ctx context.Context, state string) error {
	key := oauthStatePrefix + state

	ok, err := c.client.SetNX(ctx, key, "1", oauthStateTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to store oauth state: %w", err)
	}
	if !ok {
		return fmt.Errorf("oauth state collision")
	}
	return nil
}

// ConsumeOAuthState validates and deletes an OAuth state token in one
// step, so each state can complete at most one login.
func (c *Cache) ConsumeOAuthState(ctx context.Context, state string) error {
	key := oauthStatePrefix + state

	_, err := c.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrStateNotFound
		}
		return fmt.Errorf("failed to consume oauth state: %w", err)
	}
	return nil
}
