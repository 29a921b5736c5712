package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for Commserve traffic.
// A nil *Metrics, or one built from a disabled config, records nothing.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	entityErrors    *prometheus.CounterVec
	operations      *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return &Metrics{}
	}
	ns := cfg.Namespace
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "requests_total",
				Help:      "Requests sent to the Commserve by method and HTTP status class",
			},
			[]string{"method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "request_duration_seconds",
				Help:      "Duration of Commserve requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		entityErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "entity_errors_total",
				Help:      "Errors raised by the object model by entity and error kind",
			},
			[]string{"entity", "kind"},
		),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "operations_total",
				Help:      "Submitted operations by kind and outcome (job or schedule)",
			},
			[]string{"operation", "outcome"},
		),
	}
	m.registry.MustRegister(m.requests, m.requestDuration, m.entityErrors, m.operations)
	return m
}

func (m *Metrics) enabled() bool {
	return m != nil && m.registry != nil
}

// ObserveRequest records one completed request. status is 0 when no response arrived.
func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if !m.enabled() {
		return
	}
	m.requests.WithLabelValues(method, statusClass(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// RecordError counts an error raised for entity.
func (m *Metrics) RecordError(entity, kind string) {
	if !m.enabled() {
		return
	}
	m.entityErrors.WithLabelValues(entity, kind).Inc()
}

// RecordOperation counts a submitted operation and whether it produced jobs or a schedule.
func (m *Metrics) RecordOperation(operation, outcome string) {
	if !m.enabled() {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// Registry exposes the underlying registry, nil when disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the collected metrics, or 404 when disabled.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func statusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
