package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gdlgraph",
		Subsystem: "macro_cache",
		Name:      "hits_total",
		Help:      "Macro-call cache lookups served from memory",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gdlgraph",
		Subsystem: "macro_cache",
		Name:      "misses_total",
		Help:      "Macro-call cache lookups that had to read and parse the file",
	})

	cacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gdlgraph",
		Subsystem: "macro_cache",
		Name:      "invalidations_total",
		Help:      "Macro-call cache entries dropped after a change notification",
	})
)
