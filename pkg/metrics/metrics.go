// Package metrics provides Prometheus metrics for the cache service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NodeStoresTotal counts node store operations by node type and outcome (created, updated)
	NodeStoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "elca",
			Subsystem: "cache",
			Name:      "node_stores_total",
			Help:      "Total number of cache node store operations",
		},
		[]string{"node_type", "outcome"},
	)

	// NodeCopiesTotal counts node copies by node type
	NodeCopiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "elca",
			Subsystem: "cache",
			Name:      "node_copies_total",
			Help:      "Total number of cache node copies",
		},
		[]string{"node_type"},
	)

	// IndicatorRowsStored counts indicator rows written by StoreIndicators
	IndicatorRowsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "elca",
			Subsystem: "cache",
			Name:      "indicator_rows_stored_total",
			Help:      "Total number of indicator rows inserted or updated",
		},
	)

	// RefreshDuration tracks cache refresh duration in seconds
	RefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "elca",
			Subsystem: "cache",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of cache tree refreshes in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"status"},
	)

	// RefreshedItemsTotal counts items recomputed by refreshes
	RefreshedItemsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "elca",
			Subsystem: "cache",
			Name:      "refreshed_items_total",
			Help:      "Total number of cache items recomputed",
		},
	)

	// ConcurrentModificationsTotal counts optimistic concurrency conflicts
	ConcurrentModificationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "elca",
			Subsystem: "cache",
			Name:      "concurrent_modifications_total",
			Help:      "Total number of cache item version conflicts",
		},
	)

	// LockWaitTime tracks time spent acquiring project locks
	LockWaitTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "elca",
			Subsystem: "cache",
			Name:      "lock_wait_seconds",
			Help:      "Time spent acquiring project refresh locks in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	// BenchmarkVersionCopiesTotal counts benchmark version clones
	BenchmarkVersionCopiesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "elca",
			Subsystem: "benchmark",
			Name:      "version_copies_total",
			Help:      "Total number of benchmark version copies",
		},
	)

	// EventsPublishedTotal counts kafka events by topic and status
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "elca",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of published cache events",
		},
		[]string{"topic", "status"},
	)

	// HTTPRequestsTotal tracks inbound API requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "elca",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks inbound API request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "elca",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)
)
