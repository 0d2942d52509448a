//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/briefly/briefly/internal/auth"
	"github.com/briefly/briefly/internal/model"
	"github.com/briefly/briefly/internal/repository"
)

type summarizeResponse struct {
	UserID  string `json:"user_id"`
	Plan    string `json:"plan"`
	Summary string `json:"summary"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// TestE2ESmoke provisions a fresh free-plan user straight in the
// database, then walks the summarize endpoint through its admission
// outcomes against a running server.
func TestE2ESmoke(t *testing.T) {
	baseURL := envOrDefault("BRIEFLY_BASE_URL", "http://localhost:8080")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatalf("DATABASE_URL is required for e2e tests")
	}

	apiKey := bootstrapUser(t, dbURL, model.PlanFree)

	// First request is admitted.
	var ok summarizeResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/v1/summarize", apiKey,
		map[string]any{"content": "The end-to-end smoke test exercises the full admission path."}, &ok)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from summarize, got %d", status)
	}
	if ok.Summary == "" || ok.Plan != "free" {
		t.Fatalf("summarize response missing fields: %+v", ok)
	}

	// An immediate second request trips the per-user spacing limit.
	var rejected errorResponse
	status = doJSON(t, http.MethodPost, baseURL+"/api/v1/summarize", apiKey,
		map[string]any{"content": "back to back"}, &rejected)
	if status != http.StatusTooManyRequests {
		t.Fatalf("expected 429 from back-to-back summarize, got %d", status)
	}
	if rejected.Code != "RATE_LIMITED" {
		t.Fatalf("expected RATE_LIMITED, got %q", rejected.Code)
	}

	// After the spacing window the same key is admitted again.
	time.Sleep(1100 * time.Millisecond)
	status = doJSON(t, http.MethodPost, baseURL+"/api/v1/summarize", apiKey,
		map[string]any{"content": "after the spacing window"}, &ok)
	if status != http.StatusOK {
		t.Fatalf("expected 200 after spacing window, got %d", status)
	}

	// A garbage key is rejected with 401.
	status = doJSON(t, http.MethodPost, baseURL+"/api/v1/summarize", "bf_live_000000_00000000000000000000000000000000",
		map[string]any{"content": "unauthenticated"}, &rejected)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad key, got %d", status)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func bootstrapUser(t *testing.T, dbURL string, plan model.Plan) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer repo.Close()

	generated, err := auth.GenerateAPIKey(auth.EnvTest)
	if err != nil {
		t.Fatalf("generate api key: %v", err)
	}

	user := &model.User{
		ID:        ulid.Make().String(),
		KeyHash:   generated.Hash,
		KeyPrefix: generated.Prefix,
		Plan:      plan,
		CreatedAt: time.Now().UTC(),
	}

	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	return generated.Plaintext
}

func doJSON(t *testing.T, method, url, apiKey string, payload any, out any) int {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
	return resp.StatusCode
}
