// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Admission metrics
	IncAdmissionAllowed()
	IncAdmissionRejected(reason string) // reason: "rate_limited", "quota_exceeded"

	// Summarization metrics
	IncSummarizeSuccess()
	IncSummarizeFailure()
	ObserveSummarizeDuration(duration time.Duration)

	// Market data metrics
	IncMarketCacheHit()
	IncMarketCacheMiss()
	ObserveMarketFetchDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
