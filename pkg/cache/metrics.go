package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by backend (memory, bolt, redis).
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghstats_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"backend"},
	)

	// CacheMisses tracks cache misses (absent, expired, or corrupt entries).
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghstats_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"backend"},
	)

	// CacheErrors tracks cache operation errors by operation.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghstats_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"backend", "operation"}, // "get", "set", "invalidate", "clear"
	)
)
