package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchOutcomes counts provider fetch results per domain provider.
	// Outcome is success, fallback, or absent.
	FetchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "envagg",
		Subsystem: "provider",
		Name:      "fetch_outcomes_total",
		Help:      "Provider fetch outcomes (success, fallback, absent)",
	}, []string{"provider", "outcome"})

	// CacheLookups counts spatial cache lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "envagg",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Spatial cache lookups by result",
	}, []string{"result"})

	// CacheStores counts snapshot writes to the spatial cache.
	CacheStores = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "envagg",
		Subsystem: "cache",
		Name:      "stores_total",
		Help:      "Snapshots written to the spatial cache",
	})

	// CacheSweptEntries counts cache entries removed by expiry sweeps.
	CacheSweptEntries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "envagg",
		Subsystem: "cache",
		Name:      "swept_entries_total",
		Help:      "Expired cache entries removed by sweeps",
	})

	// Aggregations counts completed aggregation cycles by kind (full, partial).
	Aggregations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "envagg",
		Subsystem: "aggregator",
		Name:      "aggregations_total",
		Help:      "Completed aggregation cycles by request kind",
	}, []string{"kind"})
)
