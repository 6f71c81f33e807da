package access

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts classifier outcomes.
type Metrics struct {
	decisions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "access",
			Name:      "decisions_total",
			Help:      "Route access decisions by action and visibility.",
		}, []string{"action", "visibility"}),
	}
	if reg != nil {
		reg.MustRegister(m.decisions)
	}
	return m
}

func (m *Metrics) Observe(d Decision) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(string(d.Action), string(d.Visibility)).Inc()
}
