package stream

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for routing and checking. All
// methods are safe on a nil *Metrics, which records nothing.
type Metrics struct {
	Produced        *prometheus.CounterVec
	Consumed        *prometheus.CounterVec
	Lag             *prometheus.GaugeVec
	RoutingFailures *prometheus.CounterVec
	Violations      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which suits tests.
// Panics if registration fails (following prometheus convention).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Produced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kongo_readings_produced_total",
			Help: "Readings accepted into a location queue",
		}, []string{"location"}),
		Consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kongo_readings_consumed_total",
			Help: "Readings taken from a location queue by its consumer",
		}, []string{"location"}),
		Lag: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kongo_consumer_lag",
			Help: "Readings produced minus readings consumed per location",
		}, []string{"location"}),
		RoutingFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kongo_routing_failures_total",
			Help: "Readings that could not be routed to a location queue",
		}, []string{"reason"}),
		Violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kongo_violations_total",
			Help: "Goods tolerance violations detected by checkers",
		}, []string{"metric"}),
	}
	if reg != nil {
		reg.MustRegister(m.Produced, m.Consumed, m.Lag, m.RoutingFailures, m.Violations)
	}
	return m
}

func (m *Metrics) produced(location string) {
	if m == nil {
		return
	}
	m.Produced.WithLabelValues(location).Inc()
}

func (m *Metrics) consumed(location string) {
	if m == nil {
		return
	}
	m.Consumed.WithLabelValues(location).Inc()
}

func (m *Metrics) lag(location string, lag int64) {
	if m == nil {
		return
	}
	m.Lag.WithLabelValues(location).Set(float64(lag))
}

func (m *Metrics) routingFailure(reason string) {
	if m == nil {
		return
	}
	m.RoutingFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) violation(metric string) {
	if m == nil {
		return
	}
	m.Violations.WithLabelValues(metric).Inc()
}
