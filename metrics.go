package gdlgraph

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gdlgraph",
		Subsystem: "call_hierarchy",
		Name:      "query_duration_seconds",
		Help:      "Duration of call hierarchy queries",
		Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"direction"})

	queryEdges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gdlgraph",
		Subsystem: "call_hierarchy",
		Name:      "edges_total",
		Help:      "Edges returned by call hierarchy queries",
	}, []string{"direction"})

	queryFailedUnits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gdlgraph",
		Subsystem: "call_hierarchy",
		Name:      "failed_units_total",
		Help:      "Per-part searches dropped from a query result after an error",
	}, []string{"direction"})
)
