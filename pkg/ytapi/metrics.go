package ytapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for YouTube API operations.
var (
	ytRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yt_requests_total",
		Help: "Total YouTube API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	ytRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yt_request_duration_seconds",
		Help:    "YouTube API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	ytErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yt_errors_total",
		Help: "Total classified YouTube API errors by kind",
	}, []string{"kind"})

	ytRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yt_retries_total",
		Help: "Total rate-limit retry attempts by endpoint",
	}, []string{"endpoint"})

	ytRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yt_retry_exhausted_total",
		Help: "Total requests that exhausted all rate-limit retries by endpoint",
	}, []string{"endpoint"})
)
