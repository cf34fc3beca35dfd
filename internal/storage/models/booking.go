package models

import (
	"time"
)

// Booking status values.
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Booking represents one reservation, either imported from a platform feed
// (ExternalID set) or entered manually (ExternalID nil). Check-out is
// exclusive: the check-out day itself is not occupied.
type Booking struct {
	ID               string    `db:"id" json:"id"`
	PropertyID       string    `db:"property_id" json:"property_id"`
	CalendarSourceID *string   `db:"calendar_source_id" json:"calendar_source_id,omitempty"`
	Platform         string    `db:"platform" json:"platform"`
	ExternalID       *string   `db:"external_id" json:"external_id,omitempty"`
	GuestName        string    `db:"guest_name" json:"guest_name"`
	CheckIn          time.Time `db:"check_in" json:"check_in"`
	CheckOut         time.Time `db:"check_out" json:"check_out"`
	Status           string    `db:"status" json:"status"`
	ContentHash      string    `db:"content_hash" json:"content_hash"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Nights returns the booking length in nights.
func (b *Booking) Nights() int {
	return int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}

// Overlaps reports whether this booking's date range intersects another's
// under half-open-interval semantics. Touching ranges (one check-out equal
// to the other check-in) do not overlap.
func (b *Booking) Overlaps(other *Booking) bool {
	return b.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(b.CheckOut)
}

// IsManual reports whether the booking was entered by hand rather than
// imported from a feed. Manual bookings are never touched by reconciliation.
func (b *Booking) IsManual() bool {
	return b.ExternalID == nil
}
