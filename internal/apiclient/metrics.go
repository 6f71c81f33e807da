package apiclient

import "github.com/prometheus/client_golang/prometheus"

// Metrics instruments the client. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	retries  *prometheus.CounterVec
	refresh  *prometheus.CounterVec
	queued   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "apiclient",
			Name:      "requests_total",
			Help:      "Logical upstream requests by method and outcome.",
		}, []string{"method", "outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "apiclient",
			Name:      "retries_total",
			Help:      "Backoff retries by reason.",
		}, []string{"reason"}),
		refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "apiclient",
			Name:      "refresh_total",
			Help:      "Credential refresh calls by result.",
		}, []string{"result"}),
		queued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "apiclient",
			Name:      "refresh_queued_total",
			Help:      "Requests parked behind an in-flight refresh.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.retries, m.refresh, m.queued)
	}
	return m
}

func (m *Metrics) request(method, outcome string) {
	if m != nil {
		m.requests.WithLabelValues(method, outcome).Inc()
	}
}

func (m *Metrics) retry(reason string) {
	if m != nil {
		m.retries.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) refreshed(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.refresh.WithLabelValues("success").Inc()
		return
	}
	m.refresh.WithLabelValues("failure").Inc()
}

func (m *Metrics) parked() {
	if m != nil {
		m.queued.Inc()
	}
}
