package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/adpilot/adpilot/internal/auth"
	"github.com/adpilot/adpilot/internal/cache"
	"github.com/adpilot/adpilot/internal/metrics"
	"github.com/adpilot/adpilot/internal/model"
	"github.com/adpilot/adpilot/internal/repository"
)

// minAuthDuration is the minimum time to spend on API key auth to
// prevent timing attacks. Session tokens verify in constant time
// already and skip the floor.
const minAuthDuration = 200 * time.Millisecond

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger     *slog.Logger
	Repository *repository.Repository
	Cache      *cache.Cache
	Tokens     *auth.TokenService
	Metrics    metrics.Recorder
}

// Auth returns a middleware that authenticates requests. It accepts
// either a session JWT or an API key in the Authorization header
// (API keys also via X-API-Key) and injects the resulting identity
// into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := extractCredential(r)
			if credential == "" {
				authFailed(cfg, w, r, "missing_credential")
				return
			}

			if auth.ValidateKeyFormat(credential) {
				authenticateAPIKey(cfg, next, w, r, credential)
				return
			}

			authenticateSession(cfg, next, w, r, credential)
		})
	}
}

// authenticateSession validates a JWT and builds the identity from its
// claims without touching the database.
func authenticateSession(cfg AuthConfig, next http.Handler, w http.ResponseWriter, r *http.Request, token string) {
	claims, err := cfg.Tokens.Validate(token)
	if err != nil {
		cfg.Logger.Warn("authentication failed",
			slog.String("reason", "invalid_token"),
			slog.String("error", err.Error()),
			slog.String("ip", r.RemoteAddr),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		cfg.Metrics.IncAuthAttempt("failed")
		writeAuthError(w)
		return
	}

	user := &model.AuthUser{
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
		Method: model.MethodSession,
	}

	cfg.Metrics.IncAuthAttempt("success")
	ctx := auth.ContextWithAuth(r.Context(), user)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// authenticateAPIKey verifies a service key against its stored hash,
// consulting the cache first to avoid the argon2 cost on every request.
func authenticateAPIKey(cfg AuthConfig, next http.Handler, w http.ResponseWriter, r *http.Request, key string) {
	startTime := time.Now()

	// Consistent timing regardless of outcome.
	defer func() {
		elapsed := time.Since(startTime)
		if elapsed < minAuthDuration {
			time.Sleep(minAuthDuration - elapsed)
		}
	}()

	parsed, err := auth.ParseAPIKey(key)
	if err != nil {
		authFailed(cfg, w, r, "invalid_format")
		return
	}

	cacheKey := auth.QuickHash(key)
	if cached, _ := cfg.Cache.GetAuthUser(r.Context(), cacheKey); cached != nil {
		cfg.Metrics.IncAuthAttempt("success")
		ctx := auth.ContextWithAuth(r.Context(), cached)
		next.ServeHTTP(w, r.WithContext(ctx))
		return
	}

	keys, err := cfg.Repository.GetAPIKeysByPrefix(r.Context(), parsed.Prefix)
	if err != nil {
		cfg.Logger.Error("database error during auth",
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		cfg.Metrics.IncAuthAttempt("failed")
		writeAuthError(w)
		return
	}

	// Verify against each candidate (handles prefix collisions).
	var matched *model.APIKey
	for _, k := range keys {
		ok, err := auth.VerifyKey(key, k.KeyHash)
		if err != nil {
			continue
		}
		if ok {
			matched = k
			break
		}
	}

	if matched == nil {
		authFailed(cfg, w, r, "invalid_key")
		return
	}

	user := &model.AuthUser{
		UserID:        matched.UserID,
		Method:        model.MethodAPIKey,
		KeyID:         matched.ID,
		Scopes:        matched.Scopes,
		RateLimitTier: matched.RateLimitTier,
	}

	_ = cfg.Cache.SetAuthUser(r.Context(), cacheKey, user)

	// Update last_used_at off the request path.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = cfg.Repository.UpdateAPIKeyLastUsed(ctx, matched.ID)
	}()

	cfg.Logger.Info("authentication successful",
		slog.String("key_id", matched.ID),
		slog.String("key_prefix", matched.KeyPrefix),
		slog.String("user_id", matched.UserID),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)

	cfg.Metrics.IncAuthAttempt("success")
	ctx := auth.ContextWithAuth(r.Context(), user)
	next.ServeHTTP(w, r.WithContext(ctx))
}

func authFailed(cfg AuthConfig, w http.ResponseWriter, r *http.Request, reason string) {
	cfg.Logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	cfg.Metrics.IncAuthAttempt("failed")
	writeAuthError(w)
}

// extractCredential pulls the credential from the request.
// Supports "Authorization: Bearer <token>" and "X-API-Key: <key>".
func extractCredential(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimPrefix(header, "Bearer ")
		}
	}
	return r.Header.Get("X-API-Key")
}

// writeAuthError writes a 401 Unauthorized response.
// The same message is used for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Invalid or missing credentials"}}`))
}
