// Package metrics defines the Prometheus collectors for the classification
// passes and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors of the engine
type Metrics struct {
	registry *prometheus.Registry

	DocumentsClassified *prometheus.CounterVec
	DocumentsSkipped    *prometheus.CounterVec
	DocumentsFailed     *prometheus.CounterVec
	IndexEntriesTotal   prometheus.Counter
	DocumentDuration    *prometheus.HistogramVec
	RunsTotal           *prometheus.CounterVec
}

// New creates the collectors and registers them on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DocumentsClassified: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casillero_documents_classified_total",
				Help: "Documents labeled, by pass, deciding stage and label.",
			},
			[]string{"pass", "stage", "label"},
		),
		DocumentsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casillero_documents_skipped_total",
				Help: "Documents skipped, by pass and reason.",
			},
			[]string{"pass", "reason"},
		),
		DocumentsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casillero_documents_failed_total",
				Help: "Documents that failed, by pass and reason.",
			},
			[]string{"pass", "reason"},
		),
		IndexEntriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "casillero_index_entries_inserted_total",
				Help: "Subject-matter index entries inserted.",
			},
		),
		DocumentDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "casillero_document_duration_seconds",
				Help:    "Time spent on one document, by pass.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
			},
			[]string{"pass"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casillero_runs_total",
				Help: "Batch runs, by pass and final status.",
			},
			[]string{"pass", "status"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.DocumentsClassified,
		m.DocumentsSkipped,
		m.DocumentsFailed,
		m.IndexEntriesTotal,
		m.DocumentDuration,
		m.RunsTotal,
	)

	return m
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Classified records a labeled document. Safe on a nil receiver.
func (m *Metrics) Classified(pass, stage, label string) {
	if m == nil {
		return
	}
	m.DocumentsClassified.WithLabelValues(pass, stage, label).Inc()
}

// Skipped records a skipped document
func (m *Metrics) Skipped(pass, reason string) {
	if m == nil {
		return
	}
	m.DocumentsSkipped.WithLabelValues(pass, reason).Inc()
}

// Failed records a failed document
func (m *Metrics) Failed(pass, reason string) {
	if m == nil {
		return
	}
	m.DocumentsFailed.WithLabelValues(pass, reason).Inc()
}

// Indexed records inserted index entries
func (m *Metrics) Indexed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.IndexEntriesTotal.Add(float64(n))
}

// ObserveDocument records the time spent on one document
func (m *Metrics) ObserveDocument(pass string, d time.Duration) {
	if m == nil {
		return
	}
	m.DocumentDuration.WithLabelValues(pass).Observe(d.Seconds())
}

// RunFinished records the end of a batch run
func (m *Metrics) RunFinished(pass, status string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(pass, status).Inc()
}
