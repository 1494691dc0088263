package workqueue

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are shared by every queue created with them.
type Metrics struct {
	executed prometheus.Counter
	failed   prometheus.Counter
	pending  prometheus.Gauge
}

// NewMetrics creates the queue metrics and registers them with reg, if any.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		executed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "v8prof",
			Subsystem: "workqueue",
			Name:      "jobs_executed_total",
			Help:      "The number of jobs executed.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "v8prof",
			Subsystem: "workqueue",
			Name:      "jobs_failed_total",
			Help:      "The number of jobs that returned an error.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "v8prof",
			Subsystem: "workqueue",
			Name:      "jobs_pending",
			Help:      "The number of jobs waiting to run.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.executed,
			m.failed,
			m.pending,
		)
	}
	return m
}
