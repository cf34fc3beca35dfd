package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rental-sync-manager/backend/internal/storage/models"
)

// BookingRepository provides data access for bookings. Mutating methods take
// a Queryable so reconciliation can run them inside a single transaction.
type BookingRepository struct {
	BaseRepository
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *DB) *BookingRepository {
	return &BookingRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new booking.
func (r *BookingRepository) Create(ctx context.Context, q Queryable, b *models.Booking) error {
	if b.ID == "" {
		b.ID = GenerateID()
	}
	b.CreatedAt = r.Now()
	b.UpdatedAt = r.Now()
	if b.Status == "" {
		b.Status = models.BookingStatusConfirmed
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO bookings (
			id, property_id, calendar_source_id, platform, external_id,
			guest_name, check_in, check_out, status, content_hash,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID, b.PropertyID, b.CalendarSourceID, b.Platform, b.ExternalID,
		b.GuestName, b.CheckIn, b.CheckOut, b.Status, b.ContentHash,
		b.CreatedAt, b.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting booking: %w", err)
	}

	return nil
}

// Update overwrites the feed-derived fields of an existing booking.
func (r *BookingRepository) Update(ctx context.Context, q Queryable, b *models.Booking) error {
	b.UpdatedAt = r.Now()

	result, err := q.ExecContext(ctx, `
		UPDATE bookings SET
			guest_name = ?, check_in = ?, check_out = ?, status = ?,
			content_hash = ?, updated_at = ?
		WHERE id = ?
	`,
		b.GuestName, b.CheckIn, b.CheckOut, b.Status,
		b.ContentHash, b.UpdatedAt, b.ID,
	)

	if err != nil {
		return fmt.Errorf("updating booking: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("booking not found: %s", b.ID)
	}

	return nil
}

// UpdateStatus transitions a booking's status.
func (r *BookingRepository) UpdateStatus(ctx context.Context, q Queryable, id string, status string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?
	`, status, r.Now(), id)

	if err != nil {
		return fmt.Errorf("updating booking status: %w", err)
	}

	return nil
}

// GetByID retrieves a booking by its ID. Returns nil if not found.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	b := &models.Booking{}

	err := r.DB().GetContext(ctx, b, "SELECT * FROM bookings WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying booking: %w", err)
	}

	return b, nil
}

// ListExternalBySource loads the feed-owned bookings of one
// (property, platform) pair, i.e. those with an external identity.
// Manual bookings are excluded so reconciliation never sees them.
func (r *BookingRepository) ListExternalBySource(ctx context.Context, q Queryable, propertyID, platform string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := q.SelectContext(ctx, &bookings, `
		SELECT * FROM bookings
		WHERE property_id = ? AND platform = ? AND external_id IS NOT NULL
		ORDER BY check_in
	`, propertyID, platform)
	if err != nil {
		return nil, fmt.Errorf("querying external bookings: %w", err)
	}
	return bookings, nil
}

// ListConfirmedByProperty loads all confirmed bookings of a property,
// manual entries included. This is the conflict detector's input.
func (r *BookingRepository) ListConfirmedByProperty(ctx context.Context, propertyID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.DB().SelectContext(ctx, &bookings, `
		SELECT * FROM bookings
		WHERE property_id = ? AND status = ?
		ORDER BY check_in
	`, propertyID, models.BookingStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("querying confirmed bookings: %w", err)
	}
	return bookings, nil
}

// ListByProperty retrieves all bookings of a property.
func (r *BookingRepository) ListByProperty(ctx context.Context, propertyID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.DB().SelectContext(ctx, &bookings, `
		SELECT * FROM bookings
		WHERE property_id = ?
		ORDER BY check_in DESC
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("querying bookings: %w", err)
	}
	return bookings, nil
}

// MarkCompleted transitions confirmed bookings whose stay has ended
// (check_out strictly before today) to completed. Returns the number of
// rows transitioned.
func (r *BookingRepository) MarkCompleted(ctx context.Context, propertyID string, today time.Time) (int, error) {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE bookings SET status = ?, updated_at = ?
		WHERE property_id = ? AND status = ? AND check_out < ?
	`, models.BookingStatusCompleted, r.Now(), propertyID, models.BookingStatusConfirmed, today)
	if err != nil {
		return 0, fmt.Errorf("marking completed bookings: %w", err)
	}

	n, _ := result.RowsAffected()
	return int(n), nil
}
