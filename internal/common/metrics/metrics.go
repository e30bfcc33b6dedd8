// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "browser_fetches_issued_total",
			Help: "Total number of listing fetches issued",
		},
		[]string{"collection"},
	)

	FetchesStale = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "browser_fetches_stale_total",
			Help: "Total number of responses discarded because a newer request was issued",
		},
		[]string{"collection"},
	)

	FetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "browser_fetch_failures_total",
			Help: "Total number of failed fetches delivered to a browser",
		},
		[]string{"collection", "error_code"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "browser_fetch_duration_seconds",
			Help:    "Duration of listing fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection"},
	)

	DebounceFires = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "browser_debounce_fires_total",
			Help: "Number of debounced fetches released after the quiet period",
		},
		[]string{"collection"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "browser_cache_lookups_total",
			Help: "Response cache lookups by result",
		},
		[]string{"result"},
	)

	FetchesInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "browser_fetches_in_flight",
			Help: "Number of fetches currently awaiting a response",
		},
		[]string{"collection"},
	)
)
