package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds CORS configuration options.
type CORSConfig struct {
	// AllowedOrigins is a list of origins allowed to make cross-origin
	// requests. Use specific origins in production; never "*" with
	// credentials.
	AllowedOrigins []string

	// AllowedMethods specifies the allowed HTTP methods.
	AllowedMethods []string

	// AllowedHeaders specifies the allowed request headers.
	AllowedHeaders []string

	// ExposedHeaders specifies which headers the browser can access.
	ExposedHeaders []string

	// MaxAge is the value for Access-Control-Max-Age in seconds.
	MaxAge int
}

// DefaultCORSConfig returns production-safe CORS defaults for the
// read-only market endpoints.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{
			"Content-Type",
			"X-Request-ID",
			"Accept",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"Retry-After",
		},
		MaxAge: 86400,
	}
}

// CORS returns a middleware that handles Cross-Origin Resource
// Sharing, including preflight OPTIONS requests. Disallowed origins
// get no CORS headers; preflights from them get 403.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	methodsStr := strings.Join(cfg.AllowedMethods, ", ")
	headersStr := strings.Join(cfg.AllowedHeaders, ", ")
	exposedStr := strings.Join(cfg.ExposedHeaders, ", ")

	originMap := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		originMap[strings.ToLower(origin)] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// No Origin header = same-origin request, skip CORS
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !isOriginAllowed(origin, originMap, cfg.AllowedOrigins) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			if exposedStr != "" {
				w.Header().Set("Access-Control-Expose-Headers", exposedStr)
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", methodsStr)
				w.Header().Set("Access-Control-Allow-Headers", headersStr)
				if cfg.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}

				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isOriginAllowed checks if the given origin is in the allowed list.
// Supports wildcard subdomain patterns like "*.example.com".
func isOriginAllowed(origin string, originMap map[string]bool, allowedOrigins []string) bool {
	if len(allowedOrigins) == 0 {
		return false
	}

	normalized := strings.ToLower(origin)
	if originMap[normalized] {
		return true
	}

	for _, allowed := range allowedOrigins {
		if !strings.HasPrefix(allowed, "*.") {
			continue
		}
		suffix := strings.ToLower(strings.TrimPrefix(allowed, "*"))
		if strings.HasSuffix(normalized, suffix) {
			// Match a subdomain, not a partial domain:
			// "*.example.com" matches "sub.example.com" but not
			// "notexample.com".
			prefix := strings.TrimSuffix(normalized, suffix)
			if strings.HasSuffix(prefix, "://") || strings.Contains(prefix, ".") {
				return true
			}
		}
	}

	return false
}
