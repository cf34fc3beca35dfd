package models

import (
	"time"
)

// Conflict types.
const (
	ConflictTypeOverlap   = "overlap"
	ConflictTypeDuplicate = "duplicate"
)

// Conflict severities.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Conflict records a detected collision between two bookings of the same
// property. The pair is unordered; BookingAID < BookingBID by convention so
// the unresolved-pair uniqueness constraint holds regardless of detection
// order.
type Conflict struct {
	ID              string     `db:"id" json:"id"`
	PropertyID      string     `db:"property_id" json:"property_id"`
	BookingAID      string     `db:"booking_a_id" json:"booking_a_id"`
	BookingBID      string     `db:"booking_b_id" json:"booking_b_id"`
	Type            string     `db:"conflict_type" json:"conflict_type"`
	Severity        string     `db:"severity" json:"severity"`
	OverlapStart    time.Time  `db:"overlap_start" json:"overlap_start"`
	OverlapEnd      time.Time  `db:"overlap_end" json:"overlap_end"`
	OverlapNights   int        `db:"overlap_nights" json:"overlap_nights"`
	Resolved        bool       `db:"resolved" json:"resolved"`
	ResolvedAt      *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolutionNotes *string    `db:"resolution_notes" json:"resolution_notes,omitempty"`
	DetectedAt      time.Time  `db:"detected_at" json:"detected_at"`
}

// ConflictSummary aggregates a property's unresolved conflicts.
type ConflictSummary struct {
	Total      int `json:"total"`
	Critical   int `json:"critical"`
	High       int `json:"high"`
	Medium     int `json:"medium"`
	Low        int `json:"low"`
	Duplicates int `json:"duplicates"`
	Overlaps   int `json:"overlaps"`
}
