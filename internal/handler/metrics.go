package handler

import (
	"fmt"
	"net/http"

	"github.com/briefly/briefly/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "briefly_admissions_total{outcome=\"allowed\"} %d\n", snap.AdmissionsAllowed)
	writeMetric(w, "briefly_admissions_total{outcome=\"rate_limited\"} %d\n", snap.AdmissionsRateLimited)
	writeMetric(w, "briefly_admissions_total{outcome=\"quota_exceeded\"} %d\n", snap.AdmissionsQuotaExceeded)

	writeMetric(w, "briefly_summarize_total{status=\"success\"} %d\n", snap.SummarizeSuccesses)
	writeMetric(w, "briefly_summarize_total{status=\"failure\"} %d\n", snap.SummarizeFailures)
	writeMetric(w, "briefly_summarize_duration_seconds_count %d\n", snap.SummarizeDurationCount)
	writeMetric(w, "briefly_summarize_duration_seconds_sum %.6f\n", float64(snap.SummarizeDurationTotalNs)/1e9)

	writeMetric(w, "briefly_market_cache_hits_total %d\n", snap.MarketCacheHits)
	writeMetric(w, "briefly_market_cache_misses_total %d\n", snap.MarketCacheMisses)
	writeMetric(w, "briefly_market_fetch_duration_seconds_count %d\n", snap.MarketFetchCount)
	writeMetric(w, "briefly_market_fetch_duration_seconds_sum %.6f\n", float64(snap.MarketFetchTotalNs)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
