package storage

import (
	"context"
	"fmt"

	"github.com/rental-sync-manager/backend/internal/storage/models"
)

// SyncLogRepository provides append-only access to sync logs.
type SyncLogRepository struct {
	BaseRepository
}

// NewSyncLogRepository creates a new sync log repository.
func NewSyncLogRepository(db *DB) *SyncLogRepository {
	return &SyncLogRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create appends a sync log entry.
func (r *SyncLogRepository) Create(ctx context.Context, l *models.SyncLog) error {
	l.ID = GenerateID()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO sync_logs (
			id, calendar_source_id, status, error_message,
			bookings_added, bookings_updated, bookings_cancelled,
			conflicts_detected, parse_warnings, duration_ms, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		l.ID, l.CalendarSourceID, l.Status, l.ErrorMessage,
		l.BookingsAdded, l.BookingsUpdated, l.BookingsCancelled,
		l.ConflictsDetected, l.ParseWarnings, l.DurationMs, l.StartedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting sync log: %w", err)
	}

	return nil
}

// ListBySource retrieves the most recent sync logs of a calendar source.
func (r *SyncLogRepository) ListBySource(ctx context.Context, sourceID string, limit int) ([]models.SyncLog, error) {
	if limit <= 0 {
		limit = 20
	}

	var logs []models.SyncLog
	err := r.DB().SelectContext(ctx, &logs, `
		SELECT * FROM sync_logs
		WHERE calendar_source_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync logs: %w", err)
	}
	return logs, nil
}
