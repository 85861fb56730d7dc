// Package metrics documents the Prometheus metrics exported by this
// module. All metrics are defined via promauto in their respective
// packages (ytapi, cache, quota) to maintain modularity and avoid
// circular dependencies; this package only carries the reference and the
// registry handle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the Prometheus registry used by this module. All metrics
// are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/ytapi):
//   - yt_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - yt_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - yt_errors_total{kind} (Counter): Classified errors (api_error, quota_exceeded)
//   - yt_retries_total{endpoint} (Counter): Rate-limit retry attempts
//   - yt_retry_exhausted_total{endpoint} (Counter): Requests that exhausted retries
//
// Cache Metrics (pkg/cache):
//   - yt_cache_hits_total (Counter): Channel entries found in the store
//   - yt_cache_misses_total (Counter): Channel IDs absent from the store
//   - yt_cache_errors_total{operation} (Counter): Store operation errors
//
// Quota Metrics (pkg/quota):
//   - yt_quota_units_total (Counter): Quota units charged since start
//   - yt_quota_units_used (Gauge): Units charged in the current quota day
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   rate(yt_cache_hits_total[5m]) /
//   (rate(yt_cache_hits_total[5m]) + rate(yt_cache_misses_total[5m]))
//
//   # Quota Burn Rate (units per hour)
//   rate(yt_quota_units_total[1h]) * 3600
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(yt_request_duration_seconds_bucket[5m]))
//
//   # Retry Exhaustion Rate
//   rate(yt_retry_exhausted_total[5m])
