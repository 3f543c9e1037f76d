package fakecompute

import (
	"github.com/prometheus/client_golang/prometheus"
)

// httpMetrics are the request metrics of one fake server. Each server owns
// its registry so several servers can run in one test binary.
type httpMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
}

func newHTTPMetrics(registry *prometheus.Registry) *httpMetrics {
	m := &httpMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fakecompute_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fakecompute_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),
		requestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fakecompute_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
	}
	registry.MustRegister(m.requestsTotal, m.requestDuration, m.requestsInFlight)
	return m
}
