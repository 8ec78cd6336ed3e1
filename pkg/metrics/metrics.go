package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Classification pipeline
	RecordsClassified *prometheus.CounterVec
	RecordsFailed     prometheus.Counter
	ClassifyLatency   prometheus.Histogram

	// Alert lifecycle
	AlertsCreated      *prometheus.CounterVec
	AlertTransitions   *prometheus.CounterVec
	InvalidTransitions prometheus.Counter
	AlertsDeactivated  prometheus.Counter

	// Live view
	ActiveSubscriptions prometheus.Gauge
	SnapshotsEmitted    prometheus.Counter
	FeedErrors          prometheus.Counter

	// Database
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec

	// Notifications
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed prometheus.Counter
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		RecordsClassified: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "records_classified_total",
			Help:      "Total classified input records by resulting tier",
		}, []string{"tier"}),
		RecordsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "records_failed_total",
			Help:      "Total input records that could not be classified",
		}),
		ClassifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "classification_duration_seconds",
			Help:      "Time spent classifying one record, predictor call included",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		AlertsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "alerts_created_total",
			Help:      "Total risk alerts persisted by tier",
		}, []string{"tier"}),
		AlertTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "alert_transitions_total",
			Help:      "Total lifecycle transitions by target status",
		}, []string{"status"}),
		InvalidTransitions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "alert_invalid_transitions_total",
			Help:      "Total rejected lifecycle transitions",
		}),
		AlertsDeactivated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "alerts_deactivated_total",
			Help:      "Total soft-deleted alerts",
		}),
		ActiveSubscriptions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "live_view_subscriptions",
			Help:      "Current number of live view subscribers",
		}),
		SnapshotsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "live_view_snapshots_total",
			Help:      "Total snapshots pushed to subscribers",
		}),
		FeedErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "live_view_feed_errors_total",
			Help:      "Total change feed errors logged and suppressed",
		}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_sent_total",
			Help:      "Total notifications delivered by channel",
		}, []string{"channel"}),
		NotificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_failed_total",
			Help:      "Total notification deliveries that failed",
		}),
	}
}
