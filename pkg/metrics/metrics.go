// Package metrics defines the Prometheus collectors recorded during an index
// run. Each Metrics value owns its registry; batch runs write it out in the
// node-exporter textfile format instead of serving a scrape endpoint.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for a run.
type Metrics struct {
	registry *prometheus.Registry

	SourcesProcessedTotal    *prometheus.CounterVec
	LinesProcessedTotal      prometheus.Counter
	TokensProcessedTotal     prometheus.Counter
	WordsInsertedTotal       prometheus.Counter
	OccurrencesAppendedTotal prometheus.Counter
	SnapshotOperationsTotal  *prometheus.CounterVec
	SnapshotBytes            prometheus.Gauge
	TreeSize                 prometheus.Gauge
	TreeHeight               prometheus.Gauge
	PhaseDuration            *prometheus.HistogramVec
}

// New creates all collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SourcesProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordtracker_sources_processed_total",
				Help: "Text sources processed, by status (ok, unreadable).",
			},
			[]string{"status"},
		),
		LinesProcessedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordtracker_lines_processed_total",
				Help: "Lines read from text sources.",
			},
		),
		TokensProcessedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordtracker_tokens_processed_total",
				Help: "Word tokens extracted from text sources.",
			},
		),
		WordsInsertedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordtracker_words_inserted_total",
				Help: "Distinct words added to the tree.",
			},
		),
		OccurrencesAppendedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordtracker_occurrences_appended_total",
				Help: "Occurrences appended to words already in the tree.",
			},
		),
		SnapshotOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordtracker_snapshot_operations_total",
				Help: "Snapshot loads and saves by backend, operation and status.",
			},
			[]string{"backend", "op", "status"},
		),
		SnapshotBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wordtracker_snapshot_bytes",
				Help: "Size of the last encoded snapshot.",
			},
		),
		TreeSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wordtracker_tree_size",
				Help: "Number of distinct words in the tree.",
			},
		),
		TreeHeight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wordtracker_tree_height",
				Help: "Height of the word tree (-1 when empty).",
			},
		),
		PhaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wordtracker_phase_duration_seconds",
				Help:    "Duration of run phases in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"phase"},
		),
	}

	m.registry.MustRegister(
		m.SourcesProcessedTotal,
		m.LinesProcessedTotal,
		m.TokensProcessedTotal,
		m.WordsInsertedTotal,
		m.OccurrencesAppendedTotal,
		m.SnapshotOperationsTotal,
		m.SnapshotBytes,
		m.TreeSize,
		m.TreeHeight,
		m.PhaseDuration,
	)

	return m
}

// Gatherer exposes the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile atomically writes every collector to path in the text
// exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}
