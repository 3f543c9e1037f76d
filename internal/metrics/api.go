package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// APIRequestsTotal counts compute API requests by method, collection, and status.
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gcompute_api_requests_total",
			Help: "Total number of compute API requests",
		},
		[]string{"method", "collection", "status"},
	)

	// APIRequestDuration measures compute API request duration in seconds.
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "gcompute_api_request_duration_seconds",
			Help: "Compute API request duration in seconds",
			// Buckets from 10ms to 30s
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "collection"},
	)

	// APIRetriesTotal counts retried compute API requests.
	APIRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gcompute_api_retries_total",
			Help: "Total number of retried compute API requests",
		},
		[]string{"method", "collection"},
	)
)

// registerAPIMetrics registers all client request metrics.
func registerAPIMetrics() error {
	return register(
		APIRequestsTotal,
		APIRequestDuration,
		APIRetriesTotal,
	)
}
