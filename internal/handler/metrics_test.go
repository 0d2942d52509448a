package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/briefly/briefly/internal/metrics"
)

func TestMetricsHandler_ExpositionFormat(t *testing.T) {
	t.Parallel()

	rec := metrics.NewInMemory()
	rec.IncAdmissionAllowed()
	rec.IncAdmissionAllowed()
	rec.IncAdmissionRejected("rate_limited")
	rec.IncAdmissionRejected("quota_exceeded")
	rec.IncSummarizeSuccess()
	rec.ObserveSummarizeDuration(250 * time.Millisecond)
	rec.IncMarketCacheHit()

	h := NewMetricsHandler(rec)
	w := httptest.NewRecorder()
	h.Metrics(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain exposition", ct)
	}

	body := w.Body.String()
	for _, want := range []string{
		`briefly_admissions_total{outcome="allowed"} 2`,
		`briefly_admissions_total{outcome="rate_limited"} 1`,
		`briefly_admissions_total{outcome="quota_exceeded"} 1`,
		`briefly_summarize_total{status="success"} 1`,
		"briefly_summarize_duration_seconds_count 1",
		"briefly_summarize_duration_seconds_sum 0.250000",
		"briefly_market_cache_hits_total 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q\nbody:\n%s", want, body)
		}
	}
}

func TestMetricsHandler_NilSnapshotter(t *testing.T) {
	t.Parallel()

	h := NewMetricsHandler(nil)
	w := httptest.NewRecorder()
	h.Metrics(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
