// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments distribution runs. A nil *Metrics is a no-op, so
// components can treat instrumentation as optional.
type Metrics struct {
	runs        *prometheus.CounterVec
	assignments prometheus.Counter
	skips       *prometheus.CounterVec
	duration    prometheus.Histogram
}

// New registers the engine collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadflow_distribution_runs_total",
			Help: "Distribution runs by final status.",
		}, []string{"status"}),
		assignments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leadflow_assignments_total",
			Help: "Successful lead assignments.",
		}),
		skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadflow_distribution_skips_total",
			Help: "Providers skipped during distribution, by reason.",
		}, []string{"reason"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "leadflow_distribution_duration_seconds",
			Help:    "Wall time of one distribution run.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.runs, m.assignments, m.skips, m.duration)
	return m
}

func (m *Metrics) ObserveRun(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) AddAssignments(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.assignments.Add(float64(n))
}

func (m *Metrics) IncSkip(reason string) {
	if m == nil {
		return
	}
	m.skips.WithLabelValues(reason).Inc()
}
