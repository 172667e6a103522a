// Package metrics provides the centralized Prometheus metrics registry for
// the report engine. All metrics are defined in their respective packages
// (psi, cache, quota, greenhost) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the report engine.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Measurement Metrics (pkg/psi):
//   - deckgen_psi_requests_total{strategy, status} (Counter): Total measurement requests by strategy and HTTP status
//   - deckgen_psi_request_duration_seconds{strategy} (Histogram): Measurement request duration by strategy
//   - deckgen_psi_errors_total{class} (Counter): Errors by class (client, server, quota, network)
//
// Retry Metrics (pkg/psi):
//   - deckgen_psi_retries_total{error_class} (Counter): Retry attempts by error class
//   - deckgen_psi_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - deckgen_psi_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - deckgen_cache_hits_total{service} (Counter): Cache hits by service
//   - deckgen_cache_misses_total{service} (Counter): Cache misses by service
//   - deckgen_cache_errors_total{operation} (Counter): Cache operation errors
//
// Quota Metrics (pkg/quota):
//   - deckgen_quota_errors_in_window (Gauge): Quota errors observed in the current window
//   - deckgen_quota_blocks_total (Counter): Requests blocked by the quota guard
//
// Green Hosting Metrics (pkg/greenhost):
//   - deckgen_greenhost_lookups_total{result} (Counter): Hosting lookups by result (green, grey, error)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(deckgen_cache_hits_total[5m])) /
//   (sum(rate(deckgen_cache_hits_total[5m])) + sum(rate(deckgen_cache_misses_total[5m])))
//
//   # Measurement Error Rate
//   rate(deckgen_psi_errors_total[5m])
//
//   # P95 Measurement Latency
//   histogram_quantile(0.95, rate(deckgen_psi_request_duration_seconds_bucket[5m]))
//
//   # Quota Pressure
//   deckgen_quota_errors_in_window >= 4
