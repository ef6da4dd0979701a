package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	chatDuration   *prom.HistogramVec
	chatResults    *prom.CounterVec
	searchDuration *prom.HistogramVec
	searchResults  *prom.CounterVec
	storeOps       *prom.CounterVec
	activeStreams  prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.chatDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "shopassist",
			Name:      "chat_duration_seconds",
			Help:      "Duration of full chat round trips by model",
			Buckets:   prom.DefBuckets,
		}, []string{"model"})
		pr.chatResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "shopassist",
			Name:      "chat_results_total",
			Help:      "Chat completions by model and outcome",
		}, []string{"model", "result"})
		pr.searchDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "shopassist",
			Name:      "product_search_duration_seconds",
			Help:      "Duration of marketplace product searches",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.searchResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "shopassist",
			Name:      "product_search_results_total",
			Help:      "Product search attempts by success/failure",
		}, []string{"result"})
		pr.storeOps = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "shopassist",
			Name:      "store_operations_total",
			Help:      "Persistence operations by store and operation",
		}, []string{"store", "op"})
		pr.activeStreams = prom.NewGauge(prom.GaugeOpts{
			Namespace: "shopassist",
			Name:      "active_streams",
			Help:      "Currently open response streams",
		})
		reg.MustRegister(pr.chatDuration, pr.chatResults, pr.searchDuration,
			pr.searchResults, pr.storeOps, pr.activeStreams)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveChatDuration(model string, d time.Duration) {
	if p == nil || p.chatDuration == nil {
		return
	}
	p.chatDuration.WithLabelValues(model).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncChatResult(model string, result ResultLabel) {
	if p == nil || p.chatResults == nil {
		return
	}
	p.chatResults.WithLabelValues(model, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveSearchDuration(d time.Duration, success bool) {
	if p == nil || p.searchDuration == nil {
		return
	}
	p.searchDuration.WithLabelValues(resultLabel(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSearchResult(success bool) {
	if p == nil || p.searchResults == nil {
		return
	}
	p.searchResults.WithLabelValues(resultLabel(success)).Inc()
}

func (p *PrometheusRecorder) IncStoreOperation(store, op string) {
	if p == nil || p.storeOps == nil {
		return
	}
	p.storeOps.WithLabelValues(store, op).Inc()
}

func (p *PrometheusRecorder) SetActiveStreams(n int) {
	if p == nil || p.activeStreams == nil {
		return
	}
	p.activeStreams.Set(float64(n))
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}
