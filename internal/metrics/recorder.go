package metrics

import "time"

// ResultLabel enumerates operation result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultDegraded ResultLabel = "degraded"
	ResultError    ResultLabel = "error"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for chat and search metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe for nil receivers when using the NoopRecorder (allowing
// optional injection).
type Recorder interface {
	ObserveChatDuration(model string, d time.Duration)
	IncChatResult(model string, result ResultLabel)
	ObserveSearchDuration(d time.Duration, success bool)
	IncSearchResult(success bool)
	IncStoreOperation(store, op string)
	SetActiveStreams(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveChatDuration(string, time.Duration) {}
func (NoopRecorder) IncChatResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveSearchDuration(time.Duration, bool) {}
func (NoopRecorder) IncSearchResult(bool)                      {}
func (NoopRecorder) IncStoreOperation(string, string)          {}
func (NoopRecorder) SetActiveStreams(int)                      {}
