// Package metrics exposes query counters and timings in the Prometheus
// text format.
//
// A Recorder owns its registry, so several engines in one process (and
// tests) never collide. The CLI writes the registry to a textfile after
// each invocation when --metrics-file is set, for pickup by the node
// exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/link-foundation/link-cli/internal/doublet"
)

const namespace = "clink"

// Recorder collects query metrics. It implements engine.Observer.
type Recorder struct {
	registry *prometheus.Registry

	queries     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	duration    prometheus.Histogram
	doublets    prometheus.Gauge
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		// Labels: status (ok, error)
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "total",
			Help:      "Total queries processed",
		}, []string{"status"}),

		// Labels: kind (create, delete, update, noop)
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "transitions_total",
			Help:      "Total transitions produced by queries",
		}, []string{"kind"}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Query processing time including persistence",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),

		doublets: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "doublets",
			Help:      "Number of doublets in the store",
		}),
	}
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveQuery records one processed query.
func (r *Recorder) ObserveQuery(d time.Duration, transitions []doublet.Transition, err error) {
	r.duration.Observe(d.Seconds())
	if err != nil {
		r.queries.WithLabelValues("error").Inc()
		return
	}
	r.queries.WithLabelValues("ok").Inc()
	for _, t := range transitions {
		r.transitions.WithLabelValues(t.Kind()).Inc()
	}
}

// SetDoublets records the current store size.
func (r *Recorder) SetDoublets(n int) {
	r.doublets.Set(float64(n))
}

// WriteTextfile writes every metric to path in the Prometheus text format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
