package sync

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rental-sync-manager/backend/internal/feed"
	"github.com/rental-sync-manager/backend/internal/logging"
	"github.com/rental-sync-manager/backend/internal/storage"
	"github.com/rental-sync-manager/backend/internal/storage/models"
)

// SyncResult summarizes what one reconciliation run changed.
type SyncResult struct {
	Added     int      `json:"added"`
	Updated   int      `json:"updated"`
	Unchanged int      `json:"unchanged"`
	Cancelled int      `json:"cancelled"`
	Changed   []string `json:"-"` // booking IDs touched by this run

	// CancelledBookings carries the bookings cancelled by this run, in
	// their post-cancellation state, for downstream action generation.
	CancelledBookings []models.Booking `json:"-"`
}

// Reconciler diffs parsed feed records against stored bookings for one
// calendar source. All writes of a run happen in a single transaction, so
// a failed run leaves the database untouched.
type Reconciler struct {
	bookings *storage.BookingRepository
}

// NewReconciler creates a reconciler.
func NewReconciler(bookings *storage.BookingRepository) *Reconciler {
	return &Reconciler{bookings: bookings}
}

// Reconcile applies the feed state of one calendar source to the bookings
// table. Bookings are keyed by external_id within (property, platform):
// unseen IDs are created, changed content is updated, IDs that disappeared
// from the feed are cancelled. Manual bookings have no external_id and are
// never touched. Running twice with the same records is a no-op the second
// time.
func (r *Reconciler) Reconcile(ctx context.Context, source *models.CalendarSource, records []feed.ExternalRecord) (*SyncResult, error) {
	result := &SyncResult{}

	err := r.bookings.Transaction(ctx, func(tx *sqlx.Tx) error {
		existing, err := r.bookings.ListExternalBySource(ctx, tx, source.PropertyID, source.Platform)
		if err != nil {
			return err
		}

		confirmed := 0
		byExternalID := make(map[string]*models.Booking, len(existing))
		for i := range existing {
			b := &existing[i]
			byExternalID[*b.ExternalID] = b
			if b.Status == models.BookingStatusConfirmed {
				confirmed++
			}
		}

		if len(records) == 0 && confirmed > 0 {
			return fmt.Errorf("%w: %d confirmed bookings for source %s",
				ErrSuspiciousEmptyFeed, confirmed, source.ID)
		}

		seen := make(map[string]bool, len(records))
		for i := range records {
			rec := &records[i]
			seen[rec.ExternalID] = true

			current, exists := byExternalID[rec.ExternalID]
			if !exists {
				if rec.Status == models.BookingStatusCancelled {
					// Never stored, nothing to cancel.
					continue
				}
				if err := r.createFromRecord(ctx, tx, source, rec, result); err != nil {
					return err
				}
				continue
			}

			if current.ContentHash == rec.ContentHash {
				result.Unchanged++
				continue
			}
			if err := r.updateFromRecord(ctx, tx, current, rec, result); err != nil {
				return err
			}
		}

		// Confirmed bookings whose external_id disappeared from the feed
		// were cancelled on the platform. Already-cancelled and completed
		// ones stay as they are.
		for externalID, b := range byExternalID {
			if seen[externalID] || b.Status != models.BookingStatusConfirmed {
				continue
			}
			if err := r.bookings.UpdateStatus(ctx, tx, b.ID, models.BookingStatusCancelled); err != nil {
				return err
			}
			result.Cancelled++
			result.Changed = append(result.Changed, b.ID)
			b.Status = models.BookingStatusCancelled
			result.CancelledBookings = append(result.CancelledBookings, *b)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	logging.Debug("reconciled calendar source",
		"source_id", source.ID,
		"added", result.Added, "updated", result.Updated,
		"unchanged", result.Unchanged, "cancelled", result.Cancelled)

	return result, nil
}

func (r *Reconciler) createFromRecord(ctx context.Context, tx *sqlx.Tx, source *models.CalendarSource, rec *feed.ExternalRecord, result *SyncResult) error {
	externalID := rec.ExternalID
	booking := &models.Booking{
		PropertyID:       source.PropertyID,
		CalendarSourceID: &source.ID,
		Platform:         source.Platform,
		ExternalID:       &externalID,
		GuestName:        rec.GuestName,
		CheckIn:          rec.CheckIn,
		CheckOut:         rec.CheckOut,
		Status:           models.BookingStatusConfirmed,
		ContentHash:      rec.ContentHash,
	}
	if err := r.bookings.Create(ctx, tx, booking); err != nil {
		return err
	}
	result.Added++
	result.Changed = append(result.Changed, booking.ID)
	return nil
}

func (r *Reconciler) updateFromRecord(ctx context.Context, tx *sqlx.Tx, current *models.Booking, rec *feed.ExternalRecord, result *SyncResult) error {
	wasConfirmed := current.Status == models.BookingStatusConfirmed

	current.GuestName = rec.GuestName
	current.CheckIn = rec.CheckIn
	current.CheckOut = rec.CheckOut
	current.Status = rec.Status
	current.ContentHash = rec.ContentHash

	if err := r.bookings.Update(ctx, tx, current); err != nil {
		return err
	}

	if wasConfirmed && rec.Status == models.BookingStatusCancelled {
		result.Cancelled++
		result.CancelledBookings = append(result.CancelledBookings, *current)
	} else {
		result.Updated++
	}
	result.Changed = append(result.Changed, current.ID)
	return nil
}
