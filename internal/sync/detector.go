package sync

import (
	"context"
	"strings"
	"time"

	"github.com/rental-sync-manager/backend/internal/logging"
	"github.com/rental-sync-manager/backend/internal/storage"
	"github.com/rental-sync-manager/backend/internal/storage/models"
)

// AutoResolveNote is written on conflicts the detector heals on its own
// once the underlying bookings stop colliding.
const AutoResolveNote = "auto-resolved: bookings no longer conflict"

// ConflictEvent pairs a newly persisted conflict with the two bookings
// involved, so downstream consumers don't have to re-query them.
type ConflictEvent struct {
	Conflict models.Conflict
	BookingA models.Booking
	BookingB models.Booking
}

// Detector finds date collisions between the confirmed bookings of a
// property and keeps the persisted conflict set consistent with them.
type Detector struct {
	bookings  *storage.BookingRepository
	conflicts *storage.ConflictRepository
}

// NewDetector creates a conflict detector.
func NewDetector(bookings *storage.BookingRepository, conflicts *storage.ConflictRepository) *Detector {
	return &Detector{bookings: bookings, conflicts: conflicts}
}

// Detect runs pairwise overlap detection over the property's confirmed
// bookings. New conflicts are persisted and returned; at most one
// unresolved conflict exists per booking pair, so re-detecting an already
// known collision changes nothing. Unresolved conflicts whose pair no
// longer collides are resolved automatically with an audit note; the
// healed count is the second return value. A failure on one pair is
// logged and skipped rather than aborting the whole pass.
func (d *Detector) Detect(ctx context.Context, propertyID string) ([]ConflictEvent, int, error) {
	confirmed, err := d.bookings.ListConfirmedByProperty(ctx, propertyID)
	if err != nil {
		return nil, 0, err
	}

	var created []ConflictEvent
	active := make(map[string]bool)

	for i := 0; i < len(confirmed); i++ {
		for j := i + 1; j < len(confirmed); j++ {
			a, b := &confirmed[i], &confirmed[j]

			if sameSource(a, b) || !a.Overlaps(b) {
				continue
			}

			aID, bID := orderPair(a.ID, b.ID)
			active[aID+"|"+bID] = true

			existing, err := d.conflicts.GetUnresolvedByPair(ctx, aID, bID)
			if err != nil {
				logging.Warn("checking conflict pair failed", "booking_a", aID, "booking_b", bID, "error", err)
				continue
			}
			if existing != nil {
				continue
			}

			conflict := d.buildConflict(a, b)
			if err := d.conflicts.Create(ctx, conflict); err != nil {
				logging.Warn("persisting conflict failed", "booking_a", aID, "booking_b", bID, "error", err)
				continue
			}

			event := ConflictEvent{Conflict: *conflict, BookingA: *a, BookingB: *b}
			if conflict.BookingAID != a.ID {
				event.BookingA, event.BookingB = event.BookingB, event.BookingA
			}
			created = append(created, event)
		}
	}

	healed, err := d.heal(ctx, propertyID, active)
	if err != nil {
		return created, healed, err
	}

	return created, healed, nil
}

// heal resolves unresolved conflicts whose booking pair is no longer in
// the colliding set, whether because dates moved or a booking was
// cancelled or completed.
func (d *Detector) heal(ctx context.Context, propertyID string, active map[string]bool) (int, error) {
	unresolved, err := d.conflicts.ListUnresolvedByProperty(ctx, propertyID)
	if err != nil {
		return 0, err
	}

	healed := 0
	for _, c := range unresolved {
		if active[c.BookingAID+"|"+c.BookingBID] {
			continue
		}
		if err := d.conflicts.Resolve(ctx, c.ID, AutoResolveNote); err != nil {
			logging.Warn("auto-resolving conflict failed", "conflict_id", c.ID, "error", err)
			continue
		}
		healed++
		logging.Info("conflict auto-resolved", "conflict_id", c.ID, "property_id", propertyID)
	}

	return healed, nil
}

// buildConflict classifies a colliding pair and fills in the overlap
// window. Same-platform collisions are duplicates (the same stay exported
// twice); cross-platform ones are genuine double-bookings.
func (d *Detector) buildConflict(a, b *models.Booking) *models.Conflict {
	overlapStart := maxTime(a.CheckIn, b.CheckIn)
	overlapEnd := minTime(a.CheckOut, b.CheckOut)
	overlapNights := int(overlapEnd.Sub(overlapStart).Hours() / 24)

	conflictType := models.ConflictTypeOverlap
	var severity string

	if a.Platform == b.Platform {
		conflictType = models.ConflictTypeDuplicate
		if strings.EqualFold(a.GuestName, b.GuestName) {
			severity = models.SeverityHigh
		} else {
			severity = models.SeverityMedium
		}
	} else {
		shorter := a.Nights()
		if b.Nights() < shorter {
			shorter = b.Nights()
		}
		switch {
		case overlapNights >= shorter:
			severity = models.SeverityCritical
		case overlapNights*2 >= shorter:
			severity = models.SeverityHigh
		default:
			severity = models.SeverityMedium
		}
	}

	aID, bID := orderPair(a.ID, b.ID)

	return &models.Conflict{
		PropertyID:    a.PropertyID,
		BookingAID:    aID,
		BookingBID:    bID,
		Type:          conflictType,
		Severity:      severity,
		OverlapStart:  overlapStart,
		OverlapEnd:    overlapEnd,
		OverlapNights: overlapNights,
	}
}

// sameSource reports whether two bookings came from the same calendar
// feed. A feed never conflicts with itself; overlapping events inside one
// feed are the platform's own bookkeeping.
func sameSource(a, b *models.Booking) bool {
	return a.CalendarSourceID != nil && b.CalendarSourceID != nil &&
		*a.CalendarSourceID == *b.CalendarSourceID
}

// orderPair returns the pair in lexicographic order so the unresolved-pair
// uniqueness constraint is insensitive to detection order.
func orderPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
