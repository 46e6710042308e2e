// Package metrics registers the Prometheus collectors for fix processing and
// notification dispatch. Collectors are registered on the default registry at
// package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "region_notifier"

// FixesProcessedTotal counts fixes run through the pipeline.
// Label source: foreground, background or manual.
var FixesProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fixes_processed_total",
		Help:      "Total number of location fixes evaluated against the catalog.",
	},
	[]string{"source"},
)

// FixesDuplicateTotal counts fixes dropped because another source already
// delivered the same sample.
var FixesDuplicateTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fixes_duplicate_total",
		Help:      "Total number of duplicate fixes skipped before evaluation.",
	},
	[]string{"source"},
)

// TransitionsTotal counts region entry/exit transitions.
var TransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "Total number of region transitions, by region and kind.",
	},
	[]string{"region", "kind"},
)

// NotificationsRequestedTotal counts requests handed to the notification sink.
var NotificationsRequestedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_requested_total",
		Help:      "Total number of notification requests issued, by region.",
	},
	[]string{"region"},
)

// NotificationsSkippedTotal counts entries that produced no request.
// Label reason: empty_pool or publish_failed.
var NotificationsSkippedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_skipped_total",
		Help:      "Total number of entries for which no notification was delivered to the sink.",
	},
	[]string{"region", "reason"},
)

// FixProcessingDuration measures time spent evaluating one fix, lock included.
var FixProcessingDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fix_processing_duration_seconds",
		Help:      "Duration of evaluating one fix across all regions.",
		Buckets:   prometheus.DefBuckets,
	},
)
