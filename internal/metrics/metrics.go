// Package metrics exposes Prometheus instrumentation for the ingestion
// worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the worker's Prometheus collectors.
type Metrics struct {
	JobsProcessed  *prometheus.CounterVec
	ItemsProcessed *prometheus.CounterVec
	JobDuration    *prometheus.HistogramVec
}

// New registers the worker collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		JobsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_jobs_processed_total",
			Help: "Source jobs processed, by source type and outcome.",
		}, []string{"source_type", "outcome"}),
		ItemsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_items_processed_total",
			Help: "Items processed within source jobs, by outcome.",
		}, []string{"outcome"}),
		JobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ingest_job_duration_seconds",
			Help:    "Wall time spent processing one source job.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"source_type"}),
	}
}

// ObserveJob records one finished job.
func (m *Metrics) ObserveJob(sourceType, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.JobsProcessed.WithLabelValues(sourceType, outcome).Inc()
	m.JobDuration.WithLabelValues(sourceType).Observe(seconds)
}

// ObserveItem records one processed item.
func (m *Metrics) ObserveItem(outcome string) {
	if m == nil {
		return
	}
	m.ItemsProcessed.WithLabelValues(outcome).Inc()
}
