// Package main is the entrypoint for the AdPilot API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/adpilot/adpilot/internal/auth"
	"github.com/adpilot/adpilot/internal/cache"
	"github.com/adpilot/adpilot/internal/claude"
	"github.com/adpilot/adpilot/internal/config"
	"github.com/adpilot/adpilot/internal/handler"
	"github.com/adpilot/adpilot/internal/media"
	"github.com/adpilot/adpilot/internal/metrics"
	"github.com/adpilot/adpilot/internal/middleware"
	"github.com/adpilot/adpilot/internal/repository"
	"github.com/adpilot/adpilot/internal/server"
	"github.com/adpilot/adpilot/internal/service"
	"github.com/adpilot/adpilot/internal/tool"
)

const migrationsDir = "migrations"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL, cfg.DatabasePoolSize)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	if err := repo.RunMigrations(ctx, migrationsDir); err != nil {
		logger.Error("migrations failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		logger.Error("failed to initialize token service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set; sessions will not survive restarts")
	}

	google := auth.NewGoogleClient(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
	agent := claude.NewClient(cfg.AnthropicAPIKey, cfg.ClaudeModel)

	recorder := metrics.NewInMemory()

	// Services and chat tools
	campaignService := service.NewCampaignService(repo, cacheClient, recorder)
	publisher := media.NewPublisher(cacheClient.Client(), logger, recorder)
	mediaService := service.NewMediaService(repo, campaignService, publisher, recorder)
	authService := service.NewAuthService(repo, cacheClient, google, tokens, recorder)

	registry := tool.NewRegistry()
	tool.RegisterCampaignTools(registry, campaignService)
	if cfg.HasImageService() {
		tool.RegisterMediaTools(registry, mediaService)
	}

	chatService := service.NewChatService(repo, agent, registry, recorder)

	// Handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	authHandler := handler.NewAuthHandler(authService, logger)
	campaignHandler := handler.NewCampaignHandler(campaignService, logger)
	assetHandler := handler.NewAssetHandler(mediaService, logger)
	chatHandler := handler.NewChatHandler(chatService, logger)
	apiKeyHandler := handler.NewAPIKeyHandler(authService, logger)

	r := setupRouter(routerDeps{
		base:      h,
		health:    healthHandler,
		auth:      authHandler,
		campaigns: campaignHandler,
		assets:    assetHandler,
		chat:      chatHandler,
		apiKeys:   apiKeyHandler,
		repo:      repo,
		cache:     cacheClient,
		tokens:    tokens,
		metrics:   recorder,
		cfg:       cfg,
		logger:    logger,
	})

	srv := server.New(
		r,
		cfg.ListenAddr(),
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Media worker runs only when the image service is configured.
	if cfg.HasImageService() {
		renderer := media.NewImageClient(cfg.ImageServiceURL, cfg.ImageServiceAPIKey)
		worker := media.NewWorker(cacheClient.Client(), repo, renderer, logger, media.NewConsumerID(), recorder)

		workerCtx, cancelWorker := context.WithCancel(ctx)
		go func() {
			if err := worker.Run(workerCtx); err != nil {
				logger.Error("media worker stopped", slog.String("error", err.Error()))
			}
		}()

		srv.OnShutdown("media_worker", func(ctx context.Context) error {
			cancelWorker()
			return worker.Shutdown(ctx)
		})
		logger.Info("media worker started")
	} else {
		logger.Info("image service not configured; media generation disabled")
	}

	logger.Info("starting server",
		"addr", cfg.ListenAddr(),
		"env", cfg.AppEnv,
		"model", cfg.ClaudeModel,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	base      *handler.Handler
	health    *handler.HealthHandler
	auth      *handler.AuthHandler
	campaigns *handler.CampaignHandler
	assets    *handler.AssetHandler
	chat      *handler.ChatHandler
	apiKeys   *handler.APIKeyHandler
	repo      *repository.Repository
	cache     *cache.Cache
	tokens    *auth.TokenService
	metrics   metrics.Recorder
	cfg       *config.Config
	logger    *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: d.cfg.IsDevelopment()}))
	r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = d.cfg.CORSAllowedOrigins
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)

	// Root info endpoint
	r.Get("/", d.base.Hello)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:          d.logger,
		Cache:           d.cache,
		Enabled:         d.cfg.RateLimitEnabled,
		IPRatePerSecond: 5,
		IPBurst:         10,
	}

	// Google sign-in (unauthenticated, IP rate limited)
	r.Route("/auth/google", func(r chi.Router) {
		r.Use(middleware.RateLimitIP(rateLimitCfg))
		r.Get("/login", d.auth.Login)
		r.Get("/callback", d.auth.Callback)
	})

	authCfg := middleware.AuthConfig{
		Logger:     d.logger,
		Repository: d.repo,
		Cache:      d.cache,
		Tokens:     d.tokens,
		Metrics:    d.metrics,
	}

	// API v1 routes (require authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))
		r.Use(middleware.RateLimit(rateLimitCfg))
		r.Use(middleware.RequireJSON())

		r.Get("/me", d.auth.Me)

		r.Route("/campaigns", func(r chi.Router) {
			r.With(middleware.RequireRead()).Get("/", d.campaigns.List)
			r.With(middleware.RequireRead()).Get("/{id}", d.campaigns.Get)
			r.With(middleware.RequireWrite()).Post("/", d.campaigns.Create)
			r.With(middleware.RequireWrite()).Patch("/{id}", d.campaigns.Update)
			r.With(middleware.RequireWrite()).Delete("/{id}", d.campaigns.Delete)

			r.With(middleware.RequireRead()).Get("/{id}/assets", d.assets.List)
			r.With(middleware.RequireWrite()).Post("/{id}/assets", d.assets.Register)
			r.With(middleware.RequireWrite()).Post("/{id}/generate", d.assets.Generate)
		})

		r.Route("/chat", func(r chi.Router) {
			r.With(middleware.RequireWrite()).Post("/", d.chat.Send)
		})

		r.Route("/conversations", func(r chi.Router) {
			r.With(middleware.RequireRead()).Get("/", d.chat.ListConversations)
			r.With(middleware.RequireRead()).Get("/{id}", d.chat.GetTranscript)
		})

		// API key management is session-only.
		r.Route("/api-keys", func(r chi.Router) {
			r.Use(middleware.RequireSession())
			r.Get("/", d.apiKeys.List)
			r.Post("/", d.apiKeys.Create)
			r.Delete("/{id}", d.apiKeys.Revoke)
		})
	})

	// 404 and 405 handlers
	r.NotFound(d.base.NotFound)
	r.MethodNotAllowed(d.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
