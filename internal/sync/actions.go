package sync

import (
	"context"
	"fmt"

	"github.com/rental-sync-manager/backend/internal/storage"
	"github.com/rental-sync-manager/backend/internal/storage/models"
)

const dateLayout = "2006-01-02"

// Generator turns detected conflicts and cancellations into pending
// operator actions. Actions expire on their own so a stale suggestion
// never lingers after the next sync has already moved on.
type Generator struct {
	actions             *storage.SyncActionRepository
	sources             *storage.CalendarSourceRepository
	blockDismissHours   int
	unblockDismissHours int
}

// NewGenerator creates an action generator. Dismiss windows are in hours;
// non-positive values fall back to 72h for blocks and 24h for unblocks.
func NewGenerator(actions *storage.SyncActionRepository, sources *storage.CalendarSourceRepository, blockDismissHours, unblockDismissHours int) *Generator {
	if blockDismissHours <= 0 {
		blockDismissHours = 72
	}
	if unblockDismissHours <= 0 {
		unblockDismissHours = 24
	}
	return &Generator{
		actions:             actions,
		sources:             sources,
		blockDismissHours:   blockDismissHours,
		unblockDismissHours: unblockDismissHours,
	}
}

// Generate persists one block_dates action per new conflict and one
// unblock_dates action per cancelled feed booking and affected platform.
// The returned slice is what was actually created.
func (g *Generator) Generate(ctx context.Context, propertyID string, events []ConflictEvent, cancelled []models.Booking) ([]models.SyncAction, error) {
	var created []models.SyncAction

	for i := range events {
		action, err := g.blockAction(ctx, &events[i])
		if err != nil {
			return created, err
		}
		created = append(created, *action)
	}

	if len(cancelled) > 0 {
		unblocks, err := g.unblockActions(ctx, propertyID, cancelled)
		if err != nil {
			return created, err
		}
		created = append(created, unblocks...)
	}

	return created, nil
}

// blockAction suggests blocking the overlap window on the platform of the
// later-arriving booking, since that is the side where the dates were
// still sellable when they should not have been.
func (g *Generator) blockAction(ctx context.Context, event *ConflictEvent) (*models.SyncAction, error) {
	later := &event.BookingA
	if event.BookingB.CreatedAt.After(event.BookingA.CreatedAt) {
		later = &event.BookingB
	}

	c := &event.Conflict
	action := &models.SyncAction{
		PropertyID:     c.PropertyID,
		ConflictID:     &c.ID,
		ActionType:     models.ActionTypeBlockDates,
		Priority:       priorityForSeverity(c.Severity),
		TargetPlatform: later.Platform,
		StartDate:      c.OverlapStart,
		EndDate:        c.OverlapEnd,
		Description: fmt.Sprintf("Block %s to %s on %s",
			c.OverlapStart.Format(dateLayout), c.OverlapEnd.Format(dateLayout), later.Platform),
		Reason: fmt.Sprintf("%s conflict: %s (%s) and %s (%s) collide for %d night(s)",
			c.Type, event.BookingA.GuestName, event.BookingA.Platform,
			event.BookingB.GuestName, event.BookingB.Platform, c.OverlapNights),
		AutoDismissAfterHours: g.blockDismissHours,
	}

	if err := g.actions.Create(ctx, action); err != nil {
		return nil, fmt.Errorf("creating block action: %w", err)
	}
	return action, nil
}

// unblockActions suggests freeing the dates of each cancelled booking on
// every other platform the property syncs with, where the host likely
// blocked them by hand.
func (g *Generator) unblockActions(ctx context.Context, propertyID string, cancelled []models.Booking) ([]models.SyncAction, error) {
	sources, err := g.sources.ListEnabledByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	platforms := make(map[string]bool)
	for _, src := range sources {
		platforms[src.Platform] = true
	}

	var created []models.SyncAction
	for i := range cancelled {
		b := &cancelled[i]
		for platform := range platforms {
			if platform == b.Platform {
				continue
			}

			action := &models.SyncAction{
				PropertyID:     b.PropertyID,
				ActionType:     models.ActionTypeUnblockDates,
				Priority:       models.PriorityLow,
				TargetPlatform: platform,
				StartDate:      b.CheckIn,
				EndDate:        b.CheckOut,
				Description: fmt.Sprintf("Unblock %s to %s on %s",
					b.CheckIn.Format(dateLayout), b.CheckOut.Format(dateLayout), platform),
				Reason: fmt.Sprintf("booking by %s was cancelled on %s, dates may be freed",
					b.GuestName, b.Platform),
				AutoDismissAfterHours: g.unblockDismissHours,
			}

			if err := g.actions.Create(ctx, action); err != nil {
				return created, fmt.Errorf("creating unblock action: %w", err)
			}
			created = append(created, *action)
		}
	}

	return created, nil
}

// priorityForSeverity maps conflict severity onto action priority.
func priorityForSeverity(severity string) string {
	switch severity {
	case models.SeverityCritical:
		return models.PriorityCritical
	case models.SeverityHigh:
		return models.PriorityHigh
	case models.SeverityLow:
		return models.PriorityLow
	default:
		return models.PriorityMedium
	}
}
