package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	AdmissionsAllowed        uint64
	AdmissionsRateLimited    uint64
	AdmissionsQuotaExceeded  uint64
	SummarizeSuccesses       uint64
	SummarizeFailures        uint64
	SummarizeDurationCount   uint64
	SummarizeDurationTotalNs int64
	MarketCacheHits          uint64
	MarketCacheMisses        uint64
	MarketFetchCount         uint64
	MarketFetchTotalNs       int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	admissionsAllowed        uint64
	admissionsRateLimited    uint64
	admissionsQuotaExceeded  uint64
	summarizeSuccesses       uint64
	summarizeFailures        uint64
	summarizeDurationCount   uint64
	summarizeDurationTotalNs int64
	marketCacheHits          uint64
	marketCacheMisses        uint64
	marketFetchCount         uint64
	marketFetchTotalNs       int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		AdmissionsAllowed:        atomic.LoadUint64(&m.admissionsAllowed),
		AdmissionsRateLimited:    atomic.LoadUint64(&m.admissionsRateLimited),
		AdmissionsQuotaExceeded:  atomic.LoadUint64(&m.admissionsQuotaExceeded),
		SummarizeSuccesses:       atomic.LoadUint64(&m.summarizeSuccesses),
		SummarizeFailures:        atomic.LoadUint64(&m.summarizeFailures),
		SummarizeDurationCount:   atomic.LoadUint64(&m.summarizeDurationCount),
		SummarizeDurationTotalNs: atomic.LoadInt64(&m.summarizeDurationTotalNs),
		MarketCacheHits:          atomic.LoadUint64(&m.marketCacheHits),
		MarketCacheMisses:        atomic.LoadUint64(&m.marketCacheMisses),
		MarketFetchCount:         atomic.LoadUint64(&m.marketFetchCount),
		MarketFetchTotalNs:       atomic.LoadInt64(&m.marketFetchTotalNs),
	}
}

// IncAdmissionAllowed increments the allowed admissions counter.
func (m *InMemoryRecorder) IncAdmissionAllowed() {
	atomic.AddUint64(&m.admissionsAllowed, 1)
}

// IncAdmissionRejected increments the rejection counter for a reason.
func (m *InMemoryRecorder) IncAdmissionRejected(reason string) {
	switch reason {
	case "rate_limited":
		atomic.AddUint64(&m.admissionsRateLimited, 1)
	case "quota_exceeded":
		atomic.AddUint64(&m.admissionsQuotaExceeded, 1)
	}
}

// IncSummarizeSuccess increments the summarize success counter.
func (m *InMemoryRecorder) IncSummarizeSuccess() {
	atomic.AddUint64(&m.summarizeSuccesses, 1)
}

// IncSummarizeFailure increments the summarize failure counter.
func (m *InMemoryRecorder) IncSummarizeFailure() {
	atomic.AddUint64(&m.summarizeFailures, 1)
}

// ObserveSummarizeDuration records a summarization duration.
func (m *InMemoryRecorder) ObserveSummarizeDuration(duration time.Duration) {
	atomic.AddUint64(&m.summarizeDurationCount, 1)
	atomic.AddInt64(&m.summarizeDurationTotalNs, duration.Nanoseconds())
}

// IncMarketCacheHit increments the market cache hit counter.
func (m *InMemoryRecorder) IncMarketCacheHit() {
	atomic.AddUint64(&m.marketCacheHits, 1)
}

// IncMarketCacheMiss increments the market cache miss counter.
func (m *InMemoryRecorder) IncMarketCacheMiss() {
	atomic.AddUint64(&m.marketCacheMisses, 1)
}

// ObserveMarketFetchDuration records an upstream fetch duration.
func (m *InMemoryRecorder) ObserveMarketFetchDuration(duration time.Duration) {
	atomic.AddUint64(&m.marketFetchCount, 1)
	atomic.AddInt64(&m.marketFetchTotalNs, duration.Nanoseconds())
}
