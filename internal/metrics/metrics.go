// Package metrics defines the prometheus client_golang collectors the
// Service Coordinator and Main Client update over a connection's
// lifetime. Out of scope per spec.md §1 ("the underlying OPC UA stack
// ... is out of scope"), but the ambient observability surface a
// production client carries regardless.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups every collector this module registers, so callers can
// wire them into any prometheus.Registerer (the default one, or a
// per-test registry).
type Metrics struct {
	ReadCycles        prometheus.Counter
	ReadCycleErrors   prometheus.Counter
	Reconnects        prometheus.Counter
	PoolExhaustions   prometheus.Counter
	ActiveSubscriptions prometheus.Gauge
	VariableChanges   prometheus.Counter
}

// New constructs the collector set without registering it.
func New() *Metrics {
	return &Metrics{
		ReadCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "s7ua",
			Name:      "read_cycles_total",
			Help:      "Number of read_all_variables cycles started.",
		}),
		ReadCycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "s7ua",
			Name:      "read_cycle_errors_total",
			Help:      "Number of read_all_variables cycles that failed.",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "s7ua",
			Name:      "reconnects_total",
			Help:      "Number of times the Main Client re-established its session.",
		}),
		PoolExhaustions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "s7ua",
			Name:      "pool_exhaustions_total",
			Help:      "Number of session pool acquisitions that failed before a session became available.",
		}),
		ActiveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "s7ua",
			Name:      "active_subscriptions",
			Help:      "Number of variables currently subscribed.",
		}),
		VariableChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "s7ua",
			Name:      "variable_changes_total",
			Help:      "Number of VariableValueChanged events emitted by the monitored-item push path.",
		}),
	}
}

// MustRegister registers every collector on reg, panicking on a
// duplicate registration the same way prometheus.MustRegister does.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.ReadCycles,
		m.ReadCycleErrors,
		m.Reconnects,
		m.PoolExhaustions,
		m.ActiveSubscriptions,
		m.VariableChanges,
	)
}
