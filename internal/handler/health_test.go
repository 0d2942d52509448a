package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeChecker struct {
	err error
}

func (f *fakeChecker) Ping(ctx context.Context) error {
	return f.err
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler(nil, nil)
	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		db         HealthChecker
		cache      HealthChecker
		wantStatus int
		wantBody   string
	}{
		{"all healthy", &fakeChecker{}, &fakeChecker{}, http.StatusOK, "ok"},
		{"db down", &fakeChecker{err: errors.New("conn refused")}, &fakeChecker{}, http.StatusServiceUnavailable, "unhealthy"},
		{"cache down", &fakeChecker{}, &fakeChecker{err: errors.New("conn refused")}, http.StatusServiceUnavailable, "unhealthy"},
		{"not configured", nil, nil, http.StatusOK, "ok"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthHandler(tt.db, tt.cache)
			rec := httptest.NewRecorder()
			h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body.Status != tt.wantBody {
				t.Errorf("status field = %q, want %q", body.Status, tt.wantBody)
			}
		})
	}
}
