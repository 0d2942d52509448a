// Package main is the entrypoint for the Briefly summarization API
// server.
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

	"github.com/briefly/briefly/internal/cache"
	"github.com/briefly/briefly/internal/config"
	"github.com/briefly/briefly/internal/handler"
	"github.com/briefly/briefly/internal/metrics"
	"github.com/briefly/briefly/internal/middleware"
	"github.com/briefly/briefly/internal/quota"
	"github.com/briefly/briefly/internal/repository"
	"github.com/briefly/briefly/internal/server"
	"github.com/briefly/briefly/internal/service"
	"github.com/briefly/briefly/internal/summarizer"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.LogLevel, cfg.LogFormat)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
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

	gemini, err := summarizer.NewGemini(ctx, cfg.GeminiAPIKey, cfg.SummaryModel)
	if err != nil {
		logger.Error("failed to create summarizer", "error", err)
		os.Exit(1)
	}
	defer gemini.Close()
	logger.Info("summarizer ready", "model", cfg.SummaryModel)

	metricsRecorder := metrics.NewInMemory()
	gate := quota.NewGate(repo, cfg.FreeDailyLimit)
	summaryService := service.NewSummaryService(gate, gemini, cfg.SummarizeTimeout, metricsRecorder)

	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	summarizeHandler := handler.NewSummarizeHandler(summaryService, logger)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)

	r := setupRouter(h, healthHandler, summarizeHandler, metricsHandler, repo, cacheClient, cfg, logger)

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
		"free_daily_limit", cfg.FreeDailyLimit,
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
	summarizeHandler *handler.SummarizeHandler,
	metricsHandler *handler.MetricsHandler,
	repo *repository.Repository,
	cacheClient *cache.Cache,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(chimiddleware.RequestSize(cfg.MaxRequestBodySize))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	r.Get("/", h.Hello)

	authCfg := middleware.AuthConfig{
		Logger:     logger,
		Repository: repo,
		Cache:      cacheClient,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))

		r.Post("/summarize", summarizeHandler.Summarize)
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

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
