package models

import (
	"time"
)

// Sync action types.
const (
	ActionTypeBlockDates   = "block_dates"
	ActionTypeUnblockDates = "unblock_dates"
)

// Sync action statuses.
const (
	ActionStatusPending   = "pending"
	ActionStatusCompleted = "completed"
	ActionStatusDismissed = "dismissed"
)

// Action priorities.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// SyncAction is an expiring remediation task surfaced to a human operator,
// typically "block these dates on the other platform".
type SyncAction struct {
	ID                    string     `db:"id" json:"id"`
	PropertyID            string     `db:"property_id" json:"property_id"`
	ConflictID            *string    `db:"conflict_id" json:"conflict_id,omitempty"`
	ActionType            string     `db:"action_type" json:"action_type"`
	Status                string     `db:"status" json:"status"`
	Priority              string     `db:"priority" json:"priority"`
	TargetPlatform        string     `db:"target_platform" json:"target_platform"`
	StartDate             time.Time  `db:"start_date" json:"start_date"`
	EndDate               time.Time  `db:"end_date" json:"end_date"`
	Description           string     `db:"description" json:"description"`
	Reason                string     `db:"reason" json:"reason"`
	AutoDismissAfterHours int        `db:"auto_dismiss_after_hours" json:"auto_dismiss_after_hours"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
	CompletedAt           *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// ShouldAutoDismiss reports whether a still-pending action has outlived its
// auto-dismiss window.
func (a *SyncAction) ShouldAutoDismiss(now time.Time) bool {
	if a.Status != ActionStatusPending || a.AutoDismissAfterHours <= 0 {
		return false
	}
	return now.Sub(a.CreatedAt) >= time.Duration(a.AutoDismissAfterHours)*time.Hour
}
