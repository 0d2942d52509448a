// Package contract provides contract tests that validate API responses against the OpenAPI spec.
package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

// testConfig holds test configuration.
type testConfig struct {
	BaseURL  string
	APIKey   string
	SpecPath string
}

// getConfig returns test configuration from environment.
func getConfig(t *testing.T) *testConfig {
	t.Helper()

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	specPath := os.Getenv("OPENAPI_SPEC_PATH")
	if specPath == "" {
		wd, _ := os.Getwd()
		specPath = filepath.Join(wd, "..", "..", "docs", "api", "openapi.yaml")
	}

	return &testConfig{
		BaseURL:  baseURL,
		APIKey:   os.Getenv("TEST_API_KEY"),
		SpecPath: specPath,
	}
}

// loadSpec loads and validates the OpenAPI spec.
func loadSpec(t *testing.T, path string) (*openapi3.T, routers.Router) {
	t.Helper()

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	spec, err := loader.LoadFromFile(path)
	if err != nil {
		t.Fatalf("Failed to load OpenAPI spec from %s: %v", path, err)
	}

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	router, err := gorillamux.NewRouter(spec)
	if err != nil {
		t.Fatalf("Failed to create router from spec: %v", err)
	}

	return spec, router
}

// TestOpenAPISpecValid ensures the OpenAPI spec is valid.
func TestOpenAPISpecValid(t *testing.T) {
	cfg := getConfig(t)
	_, _ = loadSpec(t, cfg.SpecPath)
	t.Log("OpenAPI spec is valid")
}

// TestMarketOpenAPISpecValid ensures the market service spec is valid.
func TestMarketOpenAPISpecValid(t *testing.T) {
	cfg := getConfig(t)
	path := filepath.Join(filepath.Dir(cfg.SpecPath), "market-openapi.yaml")
	spec, _ := loadSpec(t, path)

	for _, p := range []string{
		"/api/v1/coins/{coin}/history",
		"/api/v1/coins/{coin}/indicators",
		"/api/v1/coins/{coin}/forecast",
		"/api/v1/suggestions",
	} {
		if spec.Paths.Find(p) == nil {
			t.Errorf("market spec missing path %s", p)
		}
	}
}

// TestEndpointsExist validates that documented endpoints respond.
func TestEndpointsExist(t *testing.T) {
	cfg := getConfig(t)
	spec, _ := loadSpec(t, cfg.SpecPath)

	client := &http.Client{Timeout: 10 * time.Second}

	unauthEndpoints := []struct {
		path   string
		method string
	}{
		{"/healthz", "GET"},
		{"/readyz", "GET"},
	}

	for _, ep := range unauthEndpoints {
		t.Run(fmt.Sprintf("%s_%s", ep.method, ep.path), func(t *testing.T) {
			req, err := http.NewRequest(ep.method, cfg.BaseURL+ep.path, nil)
			if err != nil {
				t.Fatalf("Failed to create request: %v", err)
			}

			resp, err := client.Do(req)
			if err != nil {
				t.Skipf("Server not available: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				t.Errorf("Endpoint %s %s returned 404 - not implemented", ep.method, ep.path)
			}
		})
	}

	expectedPaths := []string{
		"/api/v1/summarize",
		"/healthz",
		"/readyz",
	}

	for _, path := range expectedPaths {
		if spec.Paths.Find(path) == nil {
			t.Errorf("Expected path %s not found in spec", path)
		}
	}
}

// TestUnauthorizedResponse validates the error envelope on a request
// without credentials.
func TestUnauthorizedResponse(t *testing.T) {
	cfg := getConfig(t)

	client := &http.Client{Timeout: 10 * time.Second}

	req, err := http.NewRequest(http.MethodPost, cfg.BaseURL+"/api/v1/summarize", strings.NewReader(`{"content":"hello"}`))
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Skipf("Server not available: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
	validateErrorResponse(t, resp)
}

// TestQuotaRejectionSchema validates that 429 responses carry the
// distinct machine-readable codes.
func TestQuotaRejectionSchema(t *testing.T) {
	cfg := getConfig(t)

	if cfg.APIKey == "" {
		t.Skip("TEST_API_KEY not set - skipping quota rejection tests")
	}

	client := &http.Client{Timeout: 10 * time.Second}

	// Two back-to-back requests: the second must be rate limited.
	var last *http.Response
	for i := 0; i < 2; i++ {
		req, err := http.NewRequest(http.MethodPost, cfg.BaseURL+"/api/v1/summarize", strings.NewReader(`{"content":"contract test payload"}`))
		if err != nil {
			t.Fatalf("Failed to create request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", cfg.APIKey)

		resp, err := client.Do(req)
		if err != nil {
			t.Skipf("Server not available: %v", err)
		}
		if last != nil {
			last.Body.Close()
		}
		last = resp
	}
	defer last.Body.Close()

	if last.StatusCode != http.StatusTooManyRequests {
		t.Skipf("Second request returned %d, not 429 - server may be slow enough to pass the spacing check", last.StatusCode)
	}

	body, err := io.ReadAll(last.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	var errorResp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(body, &errorResp); err != nil {
		t.Fatalf("Failed to parse 429 body: %v\nBody: %s", err, string(body))
	}

	if errorResp.Code != "RATE_LIMITED" && errorResp.Code != "QUOTA_EXCEEDED" {
		t.Errorf("429 code = %q, want RATE_LIMITED or QUOTA_EXCEEDED", errorResp.Code)
	}
}

// validateErrorResponse checks that error responses have required fields.
func validateErrorResponse(t *testing.T, resp *http.Response) {
	t.Helper()

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		t.Errorf("Error response Content-Type should be application/json, got: %s", contentType)
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	var errorResp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}

	if err := json.Unmarshal(body, &errorResp); err != nil {
		t.Errorf("Failed to parse error response as JSON: %v\nBody: %s", err, string(body))
		return
	}

	if errorResp.Error == "" || errorResp.Code == "" {
		t.Errorf("Error response missing required fields. Body: %s", string(body))
	}
}

// TestResponseContentType validates Content-Type headers.
func TestResponseContentType(t *testing.T) {
	cfg := getConfig(t)

	client := &http.Client{Timeout: 10 * time.Second}

	jsonEndpoints := []string{
		"/healthz",
		"/readyz",
	}

	for _, path := range jsonEndpoints {
		t.Run(path, func(t *testing.T) {
			resp, err := client.Get(cfg.BaseURL + path)
			if err != nil {
				t.Skipf("Server not available: %v", err)
			}
			defer resp.Body.Close()

			contentType := resp.Header.Get("Content-Type")
			if !strings.Contains(contentType, "application/json") {
				t.Errorf("Expected application/json Content-Type for %s, got: %s", path, contentType)
			}
		})
	}
}
