package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncAdmissionAllowed is a no-op.
func (n *NoopRecorder) IncAdmissionAllowed() {}

// IncAdmissionRejected is a no-op.
func (n *NoopRecorder) IncAdmissionRejected(reason string) {}

// IncSummarizeSuccess is a no-op.
func (n *NoopRecorder) IncSummarizeSuccess() {}

// IncSummarizeFailure is a no-op.
func (n *NoopRecorder) IncSummarizeFailure() {}

// ObserveSummarizeDuration is a no-op.
func (n *NoopRecorder) ObserveSummarizeDuration(duration time.Duration) {}

// IncMarketCacheHit is a no-op.
func (n *NoopRecorder) IncMarketCacheHit() {}

// IncMarketCacheMiss is a no-op.
func (n *NoopRecorder) IncMarketCacheMiss() {}

// ObserveMarketFetchDuration is a no-op.
func (n *NoopRecorder) ObserveMarketFetchDuration(duration time.Duration) {}
