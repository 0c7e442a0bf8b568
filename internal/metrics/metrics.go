// Package metrics exposes Prometheus collectors for the discovery pipeline.
// The /metrics endpoint itself is mounted by the HTTP server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	DiscoveryRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "creatorscout_discovery_runs_total",
		Help: "Discovery runs by pipeline path (google_search or ai_suggestion)",
	}, []string{"mode"})

	DiscoveryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "creatorscout_discovery_duration_seconds",
		Help:    "End-to-end discovery run duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	SearchQueries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "creatorscout_search_queries_total",
		Help: "Search provider queries issued",
	})

	SearchQueryErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "creatorscout_search_query_errors_total",
		Help: "Search provider queries that failed and contributed zero results",
	})

	EnrichBatches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "creatorscout_enrich_batches_total",
		Help: "Enrichment model calls issued",
	})

	EnrichDegraded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "creatorscout_enrich_degraded_total",
		Help: "Enrichment batches that degraded to pass-through formatting",
	})

	FallbackBatches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "creatorscout_fallback_batches_total",
		Help: "Generative fallback model calls issued",
	})

	FallbackErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "creatorscout_fallback_errors_total",
		Help: "Generative fallback model calls that failed",
	})

	ProfilesDiscovered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "creatorscout_profiles_discovered_total",
		Help: "Profiles returned to callers by source",
	}, []string{"source"})
)

func init() {
	prometheus.MustRegister(
		DiscoveryRuns,
		DiscoveryDuration,
		SearchQueries,
		SearchQueryErrors,
		EnrichBatches,
		EnrichDegraded,
		FallbackBatches,
		FallbackErrors,
		ProfilesDiscovered,
	)
}

// ObserveDiscoveryDuration records the elapsed time of one discovery run.
func ObserveDiscoveryDuration(start time.Time) {
	DiscoveryDuration.Observe(time.Since(start).Seconds())
}
