package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CounterAdjustFailures counts denormalized counter updates that failed
	// after their edge write succeeded.
	CounterAdjustFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linernotes_counter_adjust_failures_total",
			Help: "Total number of counter adjustments that failed and were left for reconciliation",
		},
		[]string{"counter"},
	)

	// CountersReconciled counts counters rewritten from their edges.
	CountersReconciled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linernotes_counters_reconciled_total",
			Help: "Total number of counters recomputed from edge tables",
		},
		[]string{"counter", "trigger"},
	)

	// FeedPageDuration observes the time taken to assemble a feed page.
	FeedPageDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "linernotes_feed_page_duration_seconds",
			Help:    "Duration of feed page assembly in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
