package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/briefly/briefly/internal/auth"
	"github.com/briefly/briefly/internal/cache"
	"github.com/briefly/briefly/internal/model"
	"github.com/briefly/briefly/internal/repository"
)

// minAuthDuration is the minimum time to spend on auth to prevent
// timing attacks.
const minAuthDuration = 200 * time.Millisecond

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger     *slog.Logger
	Repository *repository.Repository
	Cache      *cache.Cache
}

// Auth returns a middleware that authenticates API requests.
// It extracts the API key from the request headers, resolves it to a
// user identity, and injects the identity into the request context.
// Only the identity is cached; quota counters always come from the
// store inside the gate's critical section.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			// Ensure consistent timing regardless of outcome
			defer func() {
				elapsed := time.Since(startTime)
				if elapsed < minAuthDuration {
					time.Sleep(minAuthDuration - elapsed)
				}
			}()

			key := extractAPIKey(r)
			if key == "" {
				logAuthFailure(cfg.Logger, r, "missing_key")
				writeAuthError(w)
				return
			}

			parsed, err := auth.ParseAPIKey(key)
			if err != nil {
				logAuthFailure(cfg.Logger, r, "invalid_format")
				writeAuthError(w)
				return
			}

			// Check cache first
			cacheKey := auth.QuickHash(key)
			identity, _ := cfg.Cache.GetIdentity(r.Context(), cacheKey)

			if identity != nil {
				cfg.Logger.Info("authentication successful",
					slog.String("user_id", identity.UserID),
					slog.String("key_prefix", identity.KeyPrefix),
					slog.Bool("cache_hit", true),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				ctx := auth.ContextWithIdentity(r.Context(), identity)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// Cache miss - lookup candidates by prefix
			users, err := cfg.Repository.GetUsersByKeyPrefix(r.Context(), parsed.Prefix)
			if err != nil {
				cfg.Logger.Error("database error during auth",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			// Verify against each candidate (handles prefix collisions)
			var matched *model.User
			for _, u := range users {
				match, err := auth.VerifyKey(key, u.KeyHash)
				if err != nil {
					continue
				}
				if match {
					matched = u
					break
				}
			}

			if matched == nil {
				logAuthFailure(cfg.Logger, r, "invalid_key")
				writeAuthError(w)
				return
			}

			identity = &model.Identity{
				UserID:    matched.ID,
				KeyPrefix: matched.KeyPrefix,
				Plan:      matched.Plan,
			}

			_ = cfg.Cache.SetIdentity(r.Context(), cacheKey, identity)

			cfg.Logger.Info("authentication successful",
				slog.String("user_id", identity.UserID),
				slog.String("key_prefix", identity.KeyPrefix),
				slog.Bool("cache_hit", false),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// extractAPIKey extracts the API key from the request.
// Supports both "Authorization: Bearer <key>" and "X-API-Key: <key>" headers.
func extractAPIKey(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	return r.Header.Get("X-API-Key")
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid or missing API key","code":"UNAUTHORIZED"}`))
}
