package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rental-sync-manager/backend/internal/storage/models"
)

// CalendarSourceRepository provides data access for calendar sources.
type CalendarSourceRepository struct {
	BaseRepository
}

// NewCalendarSourceRepository creates a new calendar source repository.
func NewCalendarSourceRepository(db *DB) *CalendarSourceRepository {
	return &CalendarSourceRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new calendar source.
func (r *CalendarSourceRepository) Create(ctx context.Context, src *models.CalendarSource) error {
	src.ID = GenerateID()
	src.CreatedAt = r.Now()
	src.UpdatedAt = r.Now()
	if src.LastSyncStatus == "" {
		src.LastSyncStatus = models.SyncStatusPending
	}

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO calendar_sources (
			id, property_id, platform, feed_url, sync_enabled,
			last_sync_status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		src.ID, src.PropertyID, src.Platform, src.FeedURL, src.SyncEnabled,
		src.LastSyncStatus, src.CreatedAt, src.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting calendar source: %w", err)
	}

	return nil
}

// GetByID retrieves a calendar source by its ID. Returns nil if not found.
func (r *CalendarSourceRepository) GetByID(ctx context.Context, id string) (*models.CalendarSource, error) {
	src := &models.CalendarSource{}

	err := r.DB().GetContext(ctx, src, `
		SELECT * FROM calendar_sources WHERE id = ?
	`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying calendar source: %w", err)
	}

	return src, nil
}

// ListByProperty retrieves all calendar sources of a property.
func (r *CalendarSourceRepository) ListByProperty(ctx context.Context, propertyID string) ([]models.CalendarSource, error) {
	var sources []models.CalendarSource
	err := r.DB().SelectContext(ctx, &sources, `
		SELECT * FROM calendar_sources
		WHERE property_id = ?
		ORDER BY platform
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("querying calendar sources: %w", err)
	}
	return sources, nil
}

// ListEnabled retrieves all sync-enabled calendar sources, least recently
// synced first so stale feeds are refreshed before fresh ones.
func (r *CalendarSourceRepository) ListEnabled(ctx context.Context) ([]models.CalendarSource, error) {
	var sources []models.CalendarSource
	err := r.DB().SelectContext(ctx, &sources, `
		SELECT * FROM calendar_sources
		WHERE sync_enabled = 1
		ORDER BY last_sync_at ASC NULLS FIRST
	`)
	if err != nil {
		return nil, fmt.Errorf("querying enabled calendar sources: %w", err)
	}
	return sources, nil
}

// ListEnabledByProperty retrieves the sync-enabled sources of one property.
func (r *CalendarSourceRepository) ListEnabledByProperty(ctx context.Context, propertyID string) ([]models.CalendarSource, error) {
	var sources []models.CalendarSource
	err := r.DB().SelectContext(ctx, &sources, `
		SELECT * FROM calendar_sources
		WHERE property_id = ? AND sync_enabled = 1
		ORDER BY platform
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("querying enabled calendar sources: %w", err)
	}
	return sources, nil
}

// Update updates an existing calendar source.
func (r *CalendarSourceRepository) Update(ctx context.Context, src *models.CalendarSource) error {
	src.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE calendar_sources SET
			platform = ?, feed_url = ?, sync_enabled = ?, updated_at = ?
		WHERE id = ?
	`,
		src.Platform, src.FeedURL, src.SyncEnabled, src.UpdatedAt, src.ID,
	)

	if err != nil {
		return fmt.Errorf("updating calendar source: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("calendar source not found: %s", src.ID)
	}

	return nil
}

// UpdateSyncStatus records the outcome of a sync run on the source.
// last_sync_at only advances on success.
func (r *CalendarSourceRepository) UpdateSyncStatus(ctx context.Context, id string, status string) error {
	now := time.Now().UTC()
	var lastSyncAt *time.Time
	if status == models.SyncStatusSuccess {
		lastSyncAt = &now
	}

	_, err := r.DB().ExecContext(ctx, `
		UPDATE calendar_sources SET
			last_sync_status = ?, last_sync_at = COALESCE(?, last_sync_at), updated_at = ?
		WHERE id = ?
	`, status, lastSyncAt, now, id)

	if err != nil {
		return fmt.Errorf("updating sync status: %w", err)
	}

	return nil
}

// Delete removes a calendar source by ID.
func (r *CalendarSourceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM calendar_sources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting calendar source: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("calendar source not found: %s", id)
	}

	return nil
}
