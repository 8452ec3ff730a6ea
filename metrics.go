package linkauth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts auth flow outcomes. All fields are optional on Auth; a nil
// Metrics disables collection entirely.
type Metrics struct {
	outcomes *prometheus.CounterVec
}

// NewMetrics creates and registers the auth metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkauth_outcomes_total",
			Help: "Auth flow outcomes by flow (register, login, google) and result.",
		}, []string{"flow", "result"}),
	}
	reg.MustRegister(m.outcomes)
	return m
}

// ObserveOutcome records one outcome of a flow.
func (m *Metrics) ObserveOutcome(flow, result string) {
	m.outcomes.WithLabelValues(flow, result).Inc()
}
