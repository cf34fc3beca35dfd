package models

import (
	"time"
)

// SyncLog is the append-only audit record of one reconciliation attempt for
// one calendar source.
type SyncLog struct {
	ID                string    `db:"id" json:"id"`
	CalendarSourceID  string    `db:"calendar_source_id" json:"calendar_source_id"`
	Status            string    `db:"status" json:"status"`
	ErrorMessage      *string   `db:"error_message" json:"error_message,omitempty"`
	BookingsAdded     int       `db:"bookings_added" json:"bookings_added"`
	BookingsUpdated   int       `db:"bookings_updated" json:"bookings_updated"`
	BookingsCancelled int       `db:"bookings_cancelled" json:"bookings_cancelled"`
	ConflictsDetected int       `db:"conflicts_detected" json:"conflicts_detected"`
	ParseWarnings     int       `db:"parse_warnings" json:"parse_warnings"`
	DurationMs        int64     `db:"duration_ms" json:"duration_ms"`
	StartedAt         time.Time `db:"started_at" json:"started_at"`
}
