// Package metrics provides Prometheus metrics for the catalog matcher.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MatchResultsTotal tracks match calls by resulting match level
	MatchResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalogmatch",
			Subsystem: "matching",
			Name:      "results_total",
			Help:      "Total number of match calls by match level (unmatched calls use level none)",
		},
		[]string{"level"},
	)

	// MatchDuration tracks the time spent scoring one observed product against the snapshot
	MatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "catalogmatch",
			Subsystem: "matching",
			Name:      "duration_seconds",
			Help:      "Duration of a single match call in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// CatalogEntries is the size of the snapshot currently in use
	CatalogEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "catalogmatch",
			Subsystem: "catalog",
			Name:      "entries",
			Help:      "Number of active catalog entries in the current snapshot",
		},
	)

	// CatalogLoadFailuresTotal tracks failed snapshot loads
	CatalogLoadFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "catalogmatch",
			Subsystem: "catalog",
			Name:      "load_failures_total",
			Help:      "Total number of catalog snapshot loads that failed",
		},
	)

	// CacheRequestsTotal tracks match cache lookups by result
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalogmatch",
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Total number of match cache lookups by result",
		},
		[]string{"result"},
	)
)

// RecordMatch records the outcome and duration of a match call
func RecordMatch(level string, matched bool, duration time.Duration) {
	if !matched {
		level = "none"
	}
	MatchResultsTotal.WithLabelValues(level).Inc()
	MatchDuration.Observe(duration.Seconds())
}

// RecordSnapshot records a successfully swapped-in snapshot
func RecordSnapshot(entries int) {
	CatalogEntries.Set(float64(entries))
}

// RecordLoadFailure records a failed catalog load
func RecordLoadFailure() {
	CatalogLoadFailuresTotal.Inc()
}

// RecordCacheLookup records a cache hit, miss or error
func RecordCacheLookup(result string) {
	CacheRequestsTotal.WithLabelValues(result).Inc()
}
