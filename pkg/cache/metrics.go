package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts documents served from Redis.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scjn_cache_hits_total",
		Help: "Total number of document cache hits",
	})

	// CacheMisses counts lookups that fell through to the backend.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scjn_cache_misses_total",
		Help: "Total number of document cache misses",
	})

	// StoredBytes counts bytes written to the cache.
	StoredBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scjn_cache_stored_bytes",
		Help: "Total bytes written to the document cache",
	})

	// NotModified counts successful revalidations (304).
	NotModified = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scjn_cache_not_modified_total",
		Help: "Total number of 304 Not Modified revalidations",
	})

	// CacheErrors counts failed cache operations.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scjn_cache_errors_total",
		Help: "Total number of cache operation errors",
	}, []string{"operation"}) // "get", "put", "delete"
)
