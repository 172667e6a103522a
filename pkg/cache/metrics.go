package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for cache operations.
var (
	// CacheHits counts cache hits by service.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deckgen_cache_hits_total",
		Help: "Total cache hits by service",
	}, []string{"service"})

	// CacheMisses counts cache misses by service.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deckgen_cache_misses_total",
		Help: "Total cache misses by service",
	}, []string{"service"})

	// CacheErrors counts cache operation errors.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deckgen_cache_errors_total",
		Help: "Total cache operation errors by operation",
	}, []string{"operation"})
)
