// Package metrics exposes the Core's Prometheus instrumentation: the three
// gauges/counters the original implementation tracks for operational
// visibility (threshold clock round, leader-timeout occurrences, last
// decided leader round). Metrics collection is deliberately out of the
// Core's own scope (§1); Core only ever calls these setters.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the consensus core's Prometheus collectors. A nil
// *Metrics is valid and makes every method a no-op, so the Core can be used
// without a metrics backend (e.g. in tests) without a nil check at every
// call site.
type Metrics struct {
	thresholdClockRound  prometheus.Gauge
	leaderTimeoutTotal    prometheus.Counter
	lastDecidedLeaderRound prometheus.Gauge
}

// New registers and returns the Core's metrics against reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		thresholdClockRound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "consensus",
			Name:      "threshold_clock_round",
			Help:      "Current round of the local threshold clock.",
		}),
		leaderTimeoutTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "consensus",
			Name:      "leader_timeout_total",
			Help:      "Number of times a leader round timed out and force_new_block was invoked.",
		}),
		lastDecidedLeaderRound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "consensus",
			Name:      "last_decided_leader_round",
			Help:      "Round of the most recently decided leader slot.",
		}),
	}
	for _, c := range []prometheus.Collector{m.thresholdClockRound, m.leaderTimeoutTotal, m.lastDecidedLeaderRound} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// SetThresholdClockRound records the clock's current round.
func (m *Metrics) SetThresholdClockRound(round uint64) {
	if m == nil {
		return
	}
	m.thresholdClockRound.Set(float64(round))
}

// IncLeaderTimeout records a forced proposal due to leader timeout.
func (m *Metrics) IncLeaderTimeout() {
	if m == nil {
		return
	}
	m.leaderTimeoutTotal.Inc()
}

// SetLastDecidedLeaderRound records the most recently decided leader round.
func (m *Metrics) SetLastDecidedLeaderRound(round uint64) {
	if m == nil {
		return
	}
	m.lastDecidedLeaderRound.Set(float64(round))
}
