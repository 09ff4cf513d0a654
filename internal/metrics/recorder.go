// Package metrics records page pipeline observations.
//
// Components take a Recorder and default to NoopRecorder, so metrics are
// enabled by injecting a PrometheusRecorder without touching call sites.
package metrics

import "time"

// CacheOutcome classifies a serving-cache lookup.
type CacheOutcome string

const (
	CacheHit   CacheOutcome = "hit"
	CacheStale CacheOutcome = "stale"
	CacheMiss  CacheOutcome = "miss"
)

// Recorder defines observability hooks for the page pipeline.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObservePipelineDuration(pipeline string, d time.Duration)
	IncPipelineOutcome(pipeline, outcome string)
	IncCacheLookup(outcome CacheOutcome)
	IncNotification(success bool)
	SetWarmConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)    {}
func (NoopRecorder) ObservePipelineDuration(string, time.Duration) {}
func (NoopRecorder) IncPipelineOutcome(string, string)             {}
func (NoopRecorder) IncCacheLookup(CacheOutcome)                   {}
func (NoopRecorder) IncNotification(bool)                          {}
func (NoopRecorder) SetWarmConcurrency(int)                        {}
