// Package main is the entrypoint for the Briefly market insights
// server. It serves price history, technical indicators, forecasts,
// and growth suggestions for a fixed watchlist of coins.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/briefly/briefly/internal/cache"
	"github.com/briefly/briefly/internal/config"
	"github.com/briefly/briefly/internal/handler"
	"github.com/briefly/briefly/internal/market"
	"github.com/briefly/briefly/internal/metrics"
	"github.com/briefly/briefly/internal/middleware"
	"github.com/briefly/briefly/internal/server"
	"github.com/briefly/briefly/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadMarket()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.LogLevel, cfg.LogFormat)

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	metricsRecorder := metrics.NewInMemory()
	priceClient := market.NewClient(cfg.PriceAPIBaseURL, cfg.PriceAPITimeout, cfg.PriceAPIRPS)
	marketService := service.NewMarketService(
		priceClient,
		cacheClient,
		cfg.PriceCacheTTL,
		logger,
		metricsRecorder,
	)

	h := handler.New()
	healthHandler := handler.NewHealthHandler(nil, cacheClient)
	marketHandler := handler.NewMarketHandler(marketService, logger)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)

	r := setupRouter(h, healthHandler, marketHandler, metricsHandler, cacheClient, cfg, logger)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"price_api", cfg.PriceAPIBaseURL,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}

	var h slog.Handler
	if format == "json" {
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

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	marketHandler *handler.MarketHandler,
	metricsHandler *handler.MetricsHandler,
	cacheClient *cache.Cache,
	cfg *config.MarketConfig,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))

	corsCfg := middleware.DefaultCORSConfig()
	if cfg.CORSAllowedOrigins != "" {
		corsCfg.AllowedOrigins = splitOrigins(cfg.CORSAllowedOrigins)
	}
	r.Use(middleware.CORS(corsCfg))

	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	r.Get("/", h.Hello)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  logger,
		Cache:   cacheClient,
		Enabled: cfg.RateLimitIPEnabled,
		RPS:     cfg.RateLimitIPRPS,
		Burst:   cfg.RateLimitIPBurst,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitIP(rateLimitCfg))

		r.Route("/coins/{coin}", func(r chi.Router) {
			r.Get("/history", marketHandler.History)
			r.Get("/indicators", marketHandler.Indicators)
			r.Get("/forecast", marketHandler.Forecast)
		})
		r.Get("/suggestions", marketHandler.Suggestions)
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
