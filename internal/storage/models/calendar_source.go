// Package models contains the domain models for the application.
package models

import (
	"time"
)

// Platform identifiers for calendar sources and bookings.
const (
	PlatformAirbnb  = "airbnb"
	PlatformBooking = "booking"
	PlatformManual  = "manual"
)

// Sync status values recorded on a calendar source after each run.
const (
	SyncStatusPending = "pending"
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// CalendarSource represents one external booking calendar (iCal feed)
// attached to a property.
type CalendarSource struct {
	ID             string     `db:"id" json:"id"`
	PropertyID     string     `db:"property_id" json:"property_id"`
	Platform       string     `db:"platform" json:"platform"`
	FeedURL        string     `db:"feed_url" json:"feed_url"`
	SyncEnabled    bool       `db:"sync_enabled" json:"sync_enabled"`
	LastSyncAt     *time.Time `db:"last_sync_at" json:"last_sync_at,omitempty"`
	LastSyncStatus string     `db:"last_sync_status" json:"last_sync_status"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Property is a rental unit that owns calendar sources and bookings.
type Property struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
