package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// storeHits counts channel entries found in the store.
	storeHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yt_cache_hits_total",
			Help: "Total number of channel cache hits",
		},
	)

	// storeMisses counts channel IDs absent from the store.
	storeMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yt_cache_misses_total",
			Help: "Total number of channel cache misses",
		},
	)

	// storeErrors counts store operation failures.
	storeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yt_cache_errors_total",
			Help: "Total number of cache store operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
