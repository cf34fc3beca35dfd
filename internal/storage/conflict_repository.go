package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rental-sync-manager/backend/internal/storage/models"
)

// ConflictRepository provides data access for booking conflicts.
type ConflictRepository struct {
	BaseRepository
}

// NewConflictRepository creates a new conflict repository.
func NewConflictRepository(db *DB) *ConflictRepository {
	return &ConflictRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new conflict. The caller is responsible for ordering the
// pair (booking_a_id < booking_b_id).
func (r *ConflictRepository) Create(ctx context.Context, c *models.Conflict) error {
	c.ID = GenerateID()
	c.DetectedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO booking_conflicts (
			id, property_id, booking_a_id, booking_b_id, conflict_type,
			severity, overlap_start, overlap_end, overlap_nights,
			resolved, detected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
	`,
		c.ID, c.PropertyID, c.BookingAID, c.BookingBID, c.Type,
		c.Severity, c.OverlapStart, c.OverlapEnd, c.OverlapNights,
		c.DetectedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting conflict: %w", err)
	}

	return nil
}

// GetUnresolvedByPair finds the unresolved conflict for an unordered booking
// pair, or nil if there is none.
func (r *ConflictRepository) GetUnresolvedByPair(ctx context.Context, bookingAID, bookingBID string) (*models.Conflict, error) {
	c := &models.Conflict{}

	err := r.DB().GetContext(ctx, c, `
		SELECT * FROM booking_conflicts
		WHERE resolved = 0
		  AND ((booking_a_id = ? AND booking_b_id = ?)
		    OR (booking_a_id = ? AND booking_b_id = ?))
	`, bookingAID, bookingBID, bookingBID, bookingAID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying conflict pair: %w", err)
	}

	return c, nil
}

// ListUnresolvedByProperty retrieves a property's unresolved conflicts.
func (r *ConflictRepository) ListUnresolvedByProperty(ctx context.Context, propertyID string) ([]models.Conflict, error) {
	var conflicts []models.Conflict
	err := r.DB().SelectContext(ctx, &conflicts, `
		SELECT * FROM booking_conflicts
		WHERE property_id = ? AND resolved = 0
		ORDER BY detected_at
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("querying unresolved conflicts: %w", err)
	}
	return conflicts, nil
}

// ListByProperty retrieves all conflicts of a property, newest first.
func (r *ConflictRepository) ListByProperty(ctx context.Context, propertyID string) ([]models.Conflict, error) {
	var conflicts []models.Conflict
	err := r.DB().SelectContext(ctx, &conflicts, `
		SELECT * FROM booking_conflicts
		WHERE property_id = ?
		ORDER BY detected_at DESC
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("querying conflicts: %w", err)
	}
	return conflicts, nil
}

// Resolve marks a conflict resolved with an explanatory note.
func (r *ConflictRepository) Resolve(ctx context.Context, id string, notes string) error {
	now := r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE booking_conflicts SET
			resolved = 1, resolved_at = ?, resolution_notes = ?
		WHERE id = ? AND resolved = 0
	`, now, notes, id)

	if err != nil {
		return fmt.Errorf("resolving conflict: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("unresolved conflict not found: %s", id)
	}

	return nil
}

// Summary aggregates a property's unresolved conflicts by severity and type.
func (r *ConflictRepository) Summary(ctx context.Context, propertyID string) (*models.ConflictSummary, error) {
	conflicts, err := r.ListUnresolvedByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	summary := &models.ConflictSummary{Total: len(conflicts)}
	for _, c := range conflicts {
		switch c.Severity {
		case models.SeverityCritical:
			summary.Critical++
		case models.SeverityHigh:
			summary.High++
		case models.SeverityMedium:
			summary.Medium++
		case models.SeverityLow:
			summary.Low++
		}

		switch c.Type {
		case models.ConflictTypeDuplicate:
			summary.Duplicates++
		case models.ConflictTypeOverlap:
			summary.Overlaps++
		}
	}

	return summary, nil
}
