// Package metrics exposes Prometheus instrumentation for the sync
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SyncRuns counts source sync attempts by outcome.
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentalsync_source_syncs_total",
		Help: "Calendar source sync attempts by outcome.",
	}, []string{"status"})

	// SyncDuration observes how long one source sync takes end to end.
	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rentalsync_source_sync_duration_seconds",
		Help:    "Duration of one calendar source sync.",
		Buckets: prometheus.DefBuckets,
	})

	// BookingChanges counts reconciliation outcomes per booking.
	BookingChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentalsync_booking_changes_total",
		Help: "Bookings added, updated, or cancelled by reconciliation.",
	}, []string{"change"})

	// ConflictsDetected counts newly persisted conflicts by severity.
	ConflictsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentalsync_conflicts_detected_total",
		Help: "Newly detected booking conflicts by severity.",
	}, []string{"severity"})

	// ConflictsHealed counts conflicts resolved automatically.
	ConflictsHealed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentalsync_conflicts_healed_total",
		Help: "Conflicts auto-resolved after the underlying bookings stopped colliding.",
	})

	// ActionsCreated counts generated sync actions by type.
	ActionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentalsync_actions_created_total",
		Help: "Sync actions generated for operators by type.",
	}, []string{"type"})

	// ActionsAutoDismissed counts actions expired by the dismiss sweep.
	ActionsAutoDismissed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentalsync_actions_auto_dismissed_total",
		Help: "Pending sync actions dismissed after their expiry window.",
	})

	// HTTPRequests counts API requests by route and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentalsync_http_requests_total",
		Help: "API requests by route and status code.",
	}, []string{"route", "code"})
)

// Handler returns the /metrics scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSyncResult bumps the per-change counters for one reconcile run.
func RecordSyncResult(added, updated, cancelled int) {
	BookingChanges.WithLabelValues("added").Add(float64(added))
	BookingChanges.WithLabelValues("updated").Add(float64(updated))
	BookingChanges.WithLabelValues("cancelled").Add(float64(cancelled))
}
