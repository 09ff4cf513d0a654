package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "hyperdocs"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration    *prom.HistogramVec
	pipelineDuration *prom.HistogramVec
	pipelineOutcome  *prom.CounterVec
	cacheLookups     *prom.CounterVec
	notifications    *prom.CounterVec
	warmConcurrency  prom.Gauge
}

// NewPrometheusRecorder constructs the pipeline metrics and registers them
// with reg. A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		pipelineDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Total page build duration",
			Buckets:   prom.DefBuckets,
		}, []string{"pipeline"}),
		pipelineOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_outcomes_total",
			Help:      "Page build outcomes by pipeline and terminal state",
		}, []string{"pipeline", "outcome"}),
		cacheLookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Serving cache lookups by outcome",
		}, []string{"outcome"}),
		notifications: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Operator notifications by delivery result",
		}, []string{"result"}),
		warmConcurrency: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "warm_concurrency",
			Help:      "Pages currently being rebuilt by the cache warmer",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.pipelineDuration, pr.pipelineOutcome,
		pr.cacheLookups, pr.notifications, pr.warmConcurrency)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObservePipelineDuration(pipeline string, d time.Duration) {
	if p == nil {
		return
	}
	p.pipelineDuration.WithLabelValues(pipeline).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPipelineOutcome(pipeline, outcome string) {
	if p == nil {
		return
	}
	p.pipelineOutcome.WithLabelValues(pipeline, outcome).Inc()
}

func (p *PrometheusRecorder) IncCacheLookup(outcome CacheOutcome) {
	if p == nil {
		return
	}
	p.cacheLookups.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncNotification(success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.notifications.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) SetWarmConcurrency(n int) {
	if p == nil {
		return
	}
	p.warmConcurrency.Set(float64(n))
}
