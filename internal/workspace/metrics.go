package workspace

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// indexRefreshTotal counts index refreshes by outcome (ok, error, canceled).
	indexRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gdlgraph",
		Subsystem: "index",
		Name:      "refresh_total",
		Help:      "Workspace index refreshes by outcome",
	}, []string{"outcome"})

	indexParts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gdlgraph",
		Subsystem: "index",
		Name:      "parts",
		Help:      "Library parts in the workspace index after the last refresh",
	})
)
