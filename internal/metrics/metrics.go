// Package metrics records batch operation counters on a private prometheus
// registry and exports them in node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// File statuses used for the files_total counter.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusInvalid = "invalid"
)

// Metrics holds the tiffkit collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	filesTotal          *prometheus.CounterVec
	operationDuration   *prometheus.HistogramVec
	rendererInvocations *prometheus.CounterVec
	sourcesDeleted      *prometheus.CounterVec
	outputBytes         *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		filesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tiffkit_files_total",
				Help: "Total number of input files handled",
			},
			[]string{"operation", "status"}, // status: ok, failed, invalid
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tiffkit_operation_duration_seconds",
				Help:    "Batch operation duration in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 25, 50, 100, 300, 600},
			},
			[]string{"operation"},
		),
		rendererInvocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tiffkit_renderer_invocations_total",
				Help: "Total number of multi-page renderer runs",
			},
			[]string{"mode", "status"},
		),
		sourcesDeleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tiffkit_sources_deleted_total",
				Help: "Total number of source files removed after processing",
			},
			[]string{"operation"},
		),
		outputBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tiffkit_output_bytes_total",
				Help: "Total bytes written to output files",
			},
			[]string{"operation"},
		),
	}
}

// Registry exposes the underlying registry as a gatherer.
func (m *Metrics) Registry() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// RecordFile counts one input file with the given status.
func (m *Metrics) RecordFile(operation, status string) {
	if m == nil {
		return
	}
	m.filesTotal.WithLabelValues(operation, status).Inc()
}

// RecordFiles counts n input files with the given status.
func (m *Metrics) RecordFiles(operation, status string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.filesTotal.WithLabelValues(operation, status).Add(float64(n))
}

// ObserveDuration records how long an operation took.
func (m *Metrics) ObserveDuration(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordRenderer counts one renderer run.
func (m *Metrics) RecordRenderer(mode, status string) {
	if m == nil {
		return
	}
	m.rendererInvocations.WithLabelValues(mode, status).Inc()
}

// RecordDeleted counts removed source files.
func (m *Metrics) RecordDeleted(operation string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sourcesDeleted.WithLabelValues(operation).Add(float64(n))
}

// RecordOutputBytes adds to the bytes-written counter.
func (m *Metrics) RecordOutputBytes(operation string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.outputBytes.WithLabelValues(operation).Add(float64(n))
}

// WriteTextfile writes all metrics to path in the text exposition format
// read by the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
