package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds batch counters for stage runs. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	items    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	lastRun  *prometheus.GaugeVec
}

// NewMetrics registers the stage collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bfv_pipeline_items_total",
			Help: "Matches handled per stage, by outcome",
		}, []string{"stage", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bfv_pipeline_stage_duration_seconds",
			Help:    "Wall time of each stage run",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"stage"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bfv_pipeline_last_success_timestamp_seconds",
			Help: "Unix time of the last successful stage run",
		}, []string{"stage"}),
	}
	m.registry.MustRegister(m.items, m.duration, m.lastRun)
	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) outcome(stage string, o Outcome) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(stage, o.String()).Inc()
}

func (m *Metrics) finished(stage string, started, finished time.Time) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(stage).Observe(finished.Sub(started).Seconds())
	m.lastRun.WithLabelValues(stage).Set(float64(finished.Unix()))
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
