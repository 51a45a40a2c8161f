// Package metrics provides the Prometheus metrics reference for devradar.
// All metrics are defined in pkg/github next to the code that drives them
// and registered automatically via promauto; this package documents them
// and exposes the registry for embedding applications.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by devradar.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/github):
//   - devradar_api_requests_total{endpoint, status} (Counter): API requests by endpoint path and HTTP status
//   - devradar_api_request_duration_seconds{endpoint} (Histogram): request duration including retries and waits
//   - devradar_api_errors_total{kind} (Counter): terminal failures by kind (not_found, unauthorized, rate_limited, transient)
//
// Retry Metrics (pkg/github):
//   - devradar_api_retries_total (Counter): retry attempts after transient failures
//   - devradar_api_retry_backoff_seconds (Histogram): backoff duration between retries
//   - devradar_api_retry_exhausted_total (Counter): requests that exhausted the retry cap
//
// Rate Limit Metrics (pkg/github):
//   - devradar_rate_limit_remaining (Gauge): requests remaining in the current window
//   - devradar_rate_limit_waits_total (Counter): backoff waits triggered by 403/429
//   - devradar_rate_limit_wait_seconds (Histogram): duration of rate limit waits
//
// Example Prometheus Queries:
//
//   # Terminal error rate by kind
//   rate(devradar_api_errors_total[5m])
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(devradar_api_request_duration_seconds_bucket[5m]))
//
//   # Time spent waiting on rate limits
//   rate(devradar_rate_limit_wait_seconds_sum[5m])
