// Package metrics implements the SyncMetrics port with Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/assetsync/internal/domain/model"
	"github.com/ericfisherdev/assetsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SyncMetrics = (*Prometheus)(nil)

// durationBuckets covers sub-second no-op passes up to multi-minute sweeps.
var durationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// Prometheus records sync activity on its own registry, so independent
// instances never collide on collector registration.
type Prometheus struct {
	registry *prometheus.Registry
	files    *prometheus.CounterVec
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheus creates the collectors and registers them, along with the Go
// runtime and process collectors, on a fresh registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assetsync",
			Name:      "files_total",
			Help:      "Per-file operations by stage and result.",
		}, []string{"stage", "result"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assetsync",
			Name:      "sync_runs_total",
			Help:      "Synchronization passes by trigger and status.",
		}, []string{"trigger", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "assetsync",
			Name:      "sync_duration_seconds",
			Help:      "Duration of synchronization passes.",
			Buckets:   durationBuckets,
		}, []string{"trigger"}),
	}

	p.registry.MustRegister(
		p.files,
		p.runs,
		p.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return p
}

// FileProcessed counts one per-file operation.
func (p *Prometheus) FileProcessed(stage model.FileStage, result model.FileResult) {
	p.files.WithLabelValues(string(stage), string(result)).Inc()
}

// RunFinished counts one pass and observes its duration.
func (p *Prometheus) RunFinished(trigger model.Trigger, status model.RunStatus, elapsed time.Duration) {
	p.runs.WithLabelValues(string(trigger), string(status)).Inc()
	p.duration.WithLabelValues(string(trigger)).Observe(elapsed.Seconds())
}

// Handler returns the /metrics scrape handler for this registry.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for additional collectors and tests.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}
