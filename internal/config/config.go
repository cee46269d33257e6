// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// DefaultClaudeModel is used when CLAUDE_MODEL is not set.
const DefaultClaudeModel = "claude-sonnet-4-20250514"

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	Host   string `env:"HOST" envDefault:""`
	Port   int    `env:"PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL      string `env:"DATABASE_URL,required"`
	DatabasePoolSize int    `env:"DATABASE_POOL_SIZE" envDefault:"10"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Google OAuth
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID,required"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET,required"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL,required"`

	// Sessions. When JWT_SECRET is unset a random per-process secret is
	// generated and sessions do not survive restarts.
	JWTSecret  string        `env:"JWT_SECRET"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Claude agent
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY,required"`
	ClaudeModel     string `env:"CLAUDE_MODEL" envDefault:"claude-sonnet-4-20250514"`

	// Image generation service (optional; media generation is disabled
	// when the URL is absent).
	ImageServiceURL    string `env:"IMAGE_SERVICE_URL"`
	ImageServiceAPIKey string `env:"IMAGE_SERVICE_API_KEY"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`

	// CORS. Empty means cross-origin requests are denied.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// HasImageService returns true if the image generation service is configured.
func (c *Config) HasImageService() bool {
	return c.ImageServiceURL != ""
}

// ListenAddr returns the host:port the server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load parses environment variables and returns a Config.
// Returns an error naming the offending variable if a required one is
// missing or malformed.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
