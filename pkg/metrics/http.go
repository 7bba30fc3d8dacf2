package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// initHTTPMetrics initializes API surface metrics. Routes are pre-normalized
// by the middleware (ids collapsed) to bound label cardinality.
func (m *Manager) initHTTPMetrics(cfg Config) {
	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, normalized route and status code",
		},
		[]string{"method", "route", "status"},
	)

	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by normalized route",
			Buckets: cfg.HTTPDurationBuckets,
		},
		[]string{"method", "route"},
	)

	m.httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Requests currently being served",
		},
	)

	m.registry.MustRegister(m.httpRequests, m.httpDuration, m.httpInFlight)
}

// HTTPServed records one completed request.
func (m *Manager) HTTPServed(method, route string, status int, duration time.Duration) {
	if !m.enabled {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RequestStarted marks a request entering the handler chain.
func (m *Manager) RequestStarted() {
	if !m.enabled {
		return
	}
	m.httpInFlight.Inc()
}

// RequestFinished marks a request leaving the handler chain.
func (m *Manager) RequestFinished() {
	if !m.enabled {
		return
	}
	m.httpInFlight.Dec()
}
