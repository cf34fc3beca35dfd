package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rental-sync-manager/backend/internal/storage/models"
)

// SyncActionRepository provides data access for sync actions.
type SyncActionRepository struct {
	BaseRepository
}

// NewSyncActionRepository creates a new sync action repository.
func NewSyncActionRepository(db *DB) *SyncActionRepository {
	return &SyncActionRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new sync action.
func (r *SyncActionRepository) Create(ctx context.Context, a *models.SyncAction) error {
	a.ID = GenerateID()
	a.CreatedAt = r.Now()
	a.UpdatedAt = r.Now()
	if a.Status == "" {
		a.Status = models.ActionStatusPending
	}

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO sync_actions (
			id, property_id, conflict_id, action_type, status, priority,
			target_platform, start_date, end_date, description, reason,
			auto_dismiss_after_hours, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID, a.PropertyID, a.ConflictID, a.ActionType, a.Status, a.Priority,
		a.TargetPlatform, a.StartDate, a.EndDate, a.Description, a.Reason,
		a.AutoDismissAfterHours, a.CreatedAt, a.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting sync action: %w", err)
	}

	return nil
}

// GetByID retrieves a sync action by its ID. Returns nil if not found.
func (r *SyncActionRepository) GetByID(ctx context.Context, id string) (*models.SyncAction, error) {
	a := &models.SyncAction{}

	err := r.DB().GetContext(ctx, a, "SELECT * FROM sync_actions WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying sync action: %w", err)
	}

	return a, nil
}

// ListByProperty retrieves a property's sync actions, optionally filtered
// by status. Pass an empty status for all.
func (r *SyncActionRepository) ListByProperty(ctx context.Context, propertyID, status string) ([]models.SyncAction, error) {
	var actions []models.SyncAction
	var err error

	if status == "" {
		err = r.DB().SelectContext(ctx, &actions, `
			SELECT * FROM sync_actions
			WHERE property_id = ?
			ORDER BY created_at DESC
		`, propertyID)
	} else {
		err = r.DB().SelectContext(ctx, &actions, `
			SELECT * FROM sync_actions
			WHERE property_id = ? AND status = ?
			ORDER BY created_at DESC
		`, propertyID, status)
	}

	if err != nil {
		return nil, fmt.Errorf("querying sync actions: %w", err)
	}
	return actions, nil
}

// ListPending retrieves all pending sync actions across properties.
func (r *SyncActionRepository) ListPending(ctx context.Context) ([]models.SyncAction, error) {
	var actions []models.SyncAction
	err := r.DB().SelectContext(ctx, &actions, `
		SELECT * FROM sync_actions
		WHERE status = ?
		ORDER BY created_at
	`, models.ActionStatusPending)
	if err != nil {
		return nil, fmt.Errorf("querying pending sync actions: %w", err)
	}
	return actions, nil
}

// UpdateStatus transitions a sync action to a new status. Completion time is
// recorded when the action is marked completed.
func (r *SyncActionRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	now := r.Now()
	var completedAt *time.Time
	if status == models.ActionStatusCompleted {
		completedAt = &now
	}

	result, err := r.DB().ExecContext(ctx, `
		UPDATE sync_actions SET
			status = ?, completed_at = COALESCE(?, completed_at), updated_at = ?
		WHERE id = ?
	`, status, completedAt, now, id)

	if err != nil {
		return fmt.Errorf("updating sync action status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("sync action not found: %s", id)
	}

	return nil
}
