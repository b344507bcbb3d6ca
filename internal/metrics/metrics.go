// Package metrics exposes relay counters and gauges to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded per event.
const (
	Forwarded = "forwarded"
	Rejected  = "rejected"
	Dropped   = "dropped"
	Handled   = "handled"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	presence     prometheus.Gauge
	activeCalls  prometheus.Gauge
	events       *prometheus.CounterVec
	authFailures *prometheus.CounterVec
}

// New registers the relay collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		presence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "callrelay",
			Name:      "presence_entries",
			Help:      "Identities with a live connection.",
		}),
		activeCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "callrelay",
			Name:      "active_calls",
			Help:      "Call sessions currently tracked by the relay.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callrelay",
			Name:      "events_total",
			Help:      "Signaling events processed, by event and outcome.",
		}, []string{"event", "outcome"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callrelay",
			Name:      "auth_failures_total",
			Help:      "Rejected connection attempts, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.presence, m.activeCalls, m.events, m.authFailures)
	return m
}

func (m *Metrics) Event(event, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) AuthFailure(reason string) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetPresence(n int) {
	if m == nil {
		return
	}
	m.presence.Set(float64(n))
}

func (m *Metrics) SetActiveCalls(n int) {
	if m == nil {
		return
	}
	m.activeCalls.Set(float64(n))
}
