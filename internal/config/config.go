// Package config provides application configuration management.
// Configuration is loaded from environment variables following
// 12-factor principles.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds configuration for the summarization API server.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"90s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Quota gate
	FreeDailyLimit int `env:"FREE_DAILY_LIMIT" envDefault:"20"`

	// Summarization backend
	GeminiAPIKey     string        `env:"GEMINI_API_KEY,required"`
	SummaryModel     string        `env:"SUMMARY_MODEL" envDefault:"gemini-1.5-flash"`
	SummarizeTimeout time.Duration `env:"SUMMARIZE_TIMEOUT" envDefault:"60s"`

	// Request body size limit in bytes (default 256 KB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"262144"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// MarketConfig holds configuration for the market insights server.
// It is deliberately separate from Config: the market service has no
// database and no summarization backend.
type MarketConfig struct {
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8081"`

	RedisURL string `env:"REDIS_URL,required"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Upstream price API
	PriceAPIBaseURL string        `env:"PRICE_API_BASE_URL" envDefault:"https://api.coingecko.com/api/v3"`
	PriceAPITimeout time.Duration `env:"PRICE_API_TIMEOUT" envDefault:"10s"`
	// Client-side throttle for upstream calls (requests per second)
	PriceAPIRPS float64 `env:"PRICE_API_RPS" envDefault:"0.5"`

	// Cache TTL for upstream price history
	PriceCacheTTL time.Duration `env:"PRICE_CACHE_TTL" envDefault:"10m"`

	// Per-IP rate limiting for the public endpoints
	RateLimitIPEnabled bool `env:"RATE_LIMIT_IP_ENABLED" envDefault:"true"`
	RateLimitIPRPS     int  `env:"RATE_LIMIT_IP_RPS" envDefault:"10"`
	RateLimitIPBurst   int  `env:"RATE_LIMIT_IP_BURST" envDefault:"20"`

	// CORS for browser dashboards, comma-separated origins
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`
}

// IsDevelopment returns true if running in development mode.
func (c *MarketConfig) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// LoadMarket parses environment variables for the market server.
func LoadMarket() (*MarketConfig, error) {
	cfg := &MarketConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse market config: %w", err)
	}
	return cfg, nil
}
