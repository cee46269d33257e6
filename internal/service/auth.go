package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/adpilot/adpilot/internal/auth"
	"github.com/adpilot/adpilot/internal/cache"
	"github.com/adpilot/adpilot/internal/metrics"
	"github.com/adpilot/adpilot/internal/model"
	"github.com/adpilot/adpilot/internal/repository"
)

// Auth service errors.
var (
	ErrInvalidState = errors.New("invalid or expired login state")
	ErrInvalidScope = errors.New("invalid scope")
	ErrInvalidTier  = errors.New("invalid rate limit tier")
)

// AuthService handles Google sign-in, sessions and API keys.
type AuthService struct {
	repo    *repository.Repository
	cache   *cache.Cache
	google  *auth.GoogleClient
	tokens  *auth.TokenService
	metrics metrics.Recorder
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *repository.Repository, c *cache.Cache, google *auth.GoogleClient, tokens *auth.TokenService, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		repo:    repo,
		cache:   c,
		google:  google,
		tokens:  tokens,
		metrics: recorder,
	}
}

// LoginURL starts a login attempt: it mints a one-time state token
// and returns the Google consent URL carrying it.
func (s *AuthService) LoginURL(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := s.cache.SetOAuthState(ctx, state); err != nil {
		return "", fmt.Errorf("store login state: %w", err)
	}
	return s.google.AuthURL(state), nil
}

// HandleCallback completes a login attempt: the state is consumed,
// the code exchanged, the user upserted and a session token minted.
func (s *AuthService) HandleCallback(ctx context.Context, state, code string) (string, *model.User, error) {
	if err := s.cache.ConsumeOAuthState(ctx, state); err != nil {
		if errors.Is(err, cache.ErrStateNotFound) {
			s.metrics.IncAuthAttempt("failed")
			return "", nil, ErrInvalidState
		}
		return "", nil, err
	}

	profile, err := s.google.Authenticate(ctx, code)
	if err != nil {
		s.metrics.IncAuthAttempt("failed")
		return "", nil, err
	}

	user := &model.User{
		ID:       uuid.NewString(),
		Email:    profile.Email,
		Name:     profile.Name,
		GoogleID: profile.GoogleID,
	}
	if profile.Picture != "" {
		user.Picture = &profile.Picture
	}

	user, err = s.repo.UpsertGoogleUser(ctx, user)
	if err != nil {
		return "", nil, fmt.Errorf("upsert user: %w", err)
	}

	token, err := s.tokens.Sign(user)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	s.metrics.IncAuthAttempt("success")
	slog.Info("user signed in", "user_id", user.ID)

	return token, user, nil
}

// GetUser retrieves a user profile.
func (s *AuthService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// CreatedAPIKey is the one-time response for a newly minted key.
type CreatedAPIKey struct {
	Key       *model.APIKey
	Plaintext string
}

// CreateAPIKey mints a new API key for a user. The plaintext is
// returned exactly once and never stored.
func (s *AuthService) CreateAPIKey(ctx context.Context, userID, name, env string, scopes []string, tier string) (*CreatedAPIKey, error) {
	for _, scope := range scopes {
		if !slices.Contains(model.ValidScopes, scope) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidScope, scope)
		}
	}
	if len(scopes) == 0 {
		scopes = []string{model.ScopeRead}
	}

	if tier == "" {
		tier = model.TierFree
	}
	if _, ok := model.TierConfigs[tier]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTier, tier)
	}

	generated, err := auth.GenerateAPIKey(env)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	key := &model.APIKey{
		ID:            uuid.NewString(),
		UserID:        userID,
		KeyHash:       generated.Hash,
		KeyPrefix:     generated.Prefix,
		Scopes:        scopes,
		RateLimitTier: tier,
		Name:          name,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.CreateAPIKey(ctx, key); err != nil {
		return nil, err
	}

	return &CreatedAPIKey{Key: key, Plaintext: generated.Plaintext}, nil
}

// ListAPIKeys retrieves a user's keys, hashes omitted by the model's
// JSON tags.
func (s *AuthService) ListAPIKeys(ctx context.Context, userID string) ([]*model.APIKey, error) {
	return s.repo.ListAPIKeysByUserID(ctx, userID)
}

// RevokeAPIKey revokes a key. The cached auth context is keyed by the
// plaintext hash, which is gone by now, so revocation takes effect for
// cached callers when the entry expires (within minutes).
func (s *AuthService) RevokeAPIKey(ctx context.Context, id, userID string) error {
	return s.repo.RevokeAPIKey(ctx, id, userID)
}
