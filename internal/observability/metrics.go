// Package observability exposes Prometheus metrics for upstream calls,
// mock fallbacks and backend health.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quillnote"

// Metrics groups the service's Prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	fallbacks        *prometheus.CounterVec
	serviceHealth    *prometheus.GaugeVec
	serviceLatency   *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Calls made to the external API by method, path and status.",
		}, []string{"method", "path", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of calls made to the external API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mock",
			Name:      "fallbacks_total",
			Help:      "Responses served from fixtures instead of the backend.",
		}, []string{"endpoint", "reason"}),
		serviceHealth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "service_status",
			Help:      "Last probe result per backend service: 1 healthy, 0.5 degraded, 0 unhealthy.",
		}, []string{"service"}),
		serviceLatency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "service_latency_seconds",
			Help:      "Latency of the last probe per backend service.",
		}, []string{"service"}),
	}

	reg.MustRegister(
		m.upstreamRequests,
		m.upstreamDuration,
		m.fallbacks,
		m.serviceHealth,
		m.serviceLatency,
	)
	return m
}

// ObserveUpstream records one call to the external API.
func (m *Metrics) ObserveUpstream(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(method, path, status).Inc()
	m.upstreamDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordFallback counts a fixture response served for endpoint.
func (m *Metrics) RecordFallback(endpoint, reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(endpoint, reason).Inc()
}

// SetServiceHealth records the last probe of service. score is 1, 0.5 or 0.
func (m *Metrics) SetServiceHealth(service string, score float64, latency time.Duration) {
	if m == nil {
		return
	}
	m.serviceHealth.WithLabelValues(service).Set(score)
	m.serviceLatency.WithLabelValues(service).Set(latency.Seconds())
}
