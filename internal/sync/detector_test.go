package sync

import (
	"context"
	"testing"

	"github.com/rental-sync-manager/backend/internal/storage/models"
)

func TestDetectTouchingBookingsDoNotConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	property := env.createProperty(t, "Casa Azul")
	airbnb := env.createSource(t, property.ID, models.PlatformAirbnb)
	booking := env.createSource(t, property.ID, models.PlatformBooking)

	// Back to back: check-out day equals the next check-in day.
	env.createBooking(t, airbnb, "a1", "Joana", date(2025, 1, 10), date(2025, 1, 15))
	env.createBooking(t, booking, "b1", "Maria", date(2025, 1, 15), date(2025, 1, 20))

	events, healed, err := NewDetector(env.bookings, env.conflicts).Detect(ctx, property.ID)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(events) != 0 || healed != 0 {
		t.Errorf("events = %d, healed = %d; want none", len(events), healed)
	}
}

func TestDetectOverlapWindowAndSeverity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	property := env.createProperty(t, "Casa Azul")
	airbnb := env.createSource(t, property.ID, models.PlatformAirbnb)
	booking := env.createSource(t, property.ID, models.PlatformBooking)

	// 5-night and 8-night stays overlapping Jan 12..15, 3 nights. The
	// overlap covers more than half of the shorter stay.
	env.createBooking(t, airbnb, "a1", "Joana", date(2025, 1, 10), date(2025, 1, 15))
	env.createBooking(t, booking, "b1", "Maria", date(2025, 1, 12), date(2025, 1, 20))

	events, _, err := NewDetector(env.bookings, env.conflicts).Detect(ctx, property.ID)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d; want 1", len(events))
	}

	c := events[0].Conflict
	if c.Type != models.ConflictTypeOverlap {
		t.Errorf("Type = %q; want overlap", c.Type)
	}
	if c.Severity != models.SeverityHigh {
		t.Errorf("Severity = %q; want high", c.Severity)
	}
	if !c.OverlapStart.Equal(date(2025, 1, 12)) || !c.OverlapEnd.Equal(date(2025, 1, 15)) {
		t.Errorf("overlap window = %v .. %v", c.OverlapStart, c.OverlapEnd)
	}
	if c.OverlapNights != 3 {
		t.Errorf("OverlapNights = %d; want 3", c.OverlapNights)
	}
	if c.BookingAID >= c.BookingBID {
		t.Errorf("pair not ordered: %s >= %s", c.BookingAID, c.BookingBID)
	}
}

func TestDetectFullyCoveredBookingIsCritical(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	property := env.createProperty(t, "Casa Azul")
	airbnb := env.createSource(t, property.ID, models.PlatformAirbnb)
	booking := env.createSource(t, property.ID, models.PlatformBooking)

	env.createBooking(t, airbnb, "a1", "Joana", date(2025, 2, 1), date(2025, 2, 10))
	env.createBooking(t, booking, "b1", "Maria", date(2025, 2, 3), date(2025, 2, 5))

	events, _, err := NewDetector(env.bookings, env.conflicts).Detect(ctx, property.ID)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(events) != 1 || events[0].Conflict.Severity != models.SeverityCritical {
		t.Fatalf("events = %+v; want one critical conflict", events)
	}
}

func TestDetectSamePlatformDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	property := env.createProperty(t, "Casa Azul")

	env.createManualBooking(t, property.ID, "Joana Silva", date(2025, 3, 1), date(2025, 3, 5))
	env.createManualBooking(t, property.ID, "joana silva", date(2025, 3, 1), date(2025, 3, 5))

	events, _, err := NewDetector(env.bookings, env.conflicts).Detect(ctx, property.ID)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d; want 1", len(events))
	}

	c := events[0].Conflict
	if c.Type != models.ConflictTypeDuplicate {
		t.Errorf("Type = %q; want duplicate", c.Type)
	}
	if c.Severity != models.SeverityHigh {
		t.Errorf("Severity = %q; want high for matching guest names", c.Severity)
	}
}

func TestDetectSameSourceNeverConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	property := env.createProperty(t, "Casa Azul")
	airbnb := env.createSource(t, property.ID, models.PlatformAirbnb)

	env.createBooking(t, airbnb, "a1", "Joana", date(2025, 1, 10), date(2025, 1, 15))
	env.createBooking(t, airbnb, "a2", "Pedro", date(2025, 1, 12), date(2025, 1, 18))

	events, _, err := NewDetector(env.bookings, env.conflicts).Detect(ctx, property.ID)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events = %d; want 0 for same-source bookings", len(events))
	}
}

func TestDetectKeepsOneUnresolvedConflictPerPair(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	property := env.createProperty(t, "Casa Azul")
	airbnb := env.createSource(t, property.ID, models.PlatformAirbnb)
	booking := env.createSource(t, property.ID, models.PlatformBooking)

	env.createBooking(t, airbnb, "a1", "Joana", date(2025, 1, 10), date(2025, 1, 15))
	env.createBooking(t, booking, "b1", "Maria", date(2025, 1, 12), date(2025, 1, 20))

	d := NewDetector(env.bookings, env.conflicts)

	first, _, err := d.Detect(ctx, property.ID)
	if err != nil {
		t.Fatalf("first Detect: %v", err)
	}
	second, _, err := d.Detect(ctx, property.ID)
	if err != nil {
		t.Fatalf("second Detect: %v", err)
	}

	if len(first) != 1 || len(second) != 0 {
		t.Errorf("first = %d, second = %d; want 1 then 0", len(first), len(second))
	}

	unresolved, _ := env.conflicts.ListUnresolvedByProperty(ctx, property.ID)
	if len(unresolved) != 1 {
		t.Errorf("unresolved conflicts = %d; want exactly 1", len(unresolved))
	}
}

func TestDetectHealsStaleConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	property := env.createProperty(t, "Casa Azul")
	airbnb := env.createSource(t, property.ID, models.PlatformAirbnb)
	booking := env.createSource(t, property.ID, models.PlatformBooking)

	a := env.createBooking(t, airbnb, "a1", "Joana", date(2025, 1, 10), date(2025, 1, 15))
	env.createBooking(t, booking, "b1", "Maria", date(2025, 1, 12), date(2025, 1, 20))

	d := NewDetector(env.bookings, env.conflicts)
	if _, _, err := d.Detect(ctx, property.ID); err != nil {
		t.Fatalf("seeding Detect: %v", err)
	}

	// The airbnb guest cancelled; the collision is gone.
	if err := env.bookings.UpdateStatus(ctx, env.db, a.ID, models.BookingStatusCancelled); err != nil {
		t.Fatalf("cancelling booking: %v", err)
	}

	events, healed, err := d.Detect(ctx, property.ID)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(events) != 0 || healed != 1 {
		t.Errorf("events = %d, healed = %d; want 0 and 1", len(events), healed)
	}

	all, _ := env.conflicts.ListByProperty(ctx, property.ID)
	if len(all) != 1 {
		t.Fatalf("conflicts = %d; want 1", len(all))
	}
	if !all[0].Resolved || all[0].ResolutionNotes == nil || *all[0].ResolutionNotes != AutoResolveNote {
		t.Errorf("conflict not auto-resolved with audit note: %+v", all[0])
	}
}

func TestDetectManualBookingsParticipate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	property := env.createProperty(t, "Casa Azul")
	airbnb := env.createSource(t, property.ID, models.PlatformAirbnb)

	env.createBooking(t, airbnb, "a1", "Joana", date(2025, 1, 10), date(2025, 1, 15))
	env.createManualBooking(t, property.ID, "Walk-in", date(2025, 1, 14), date(2025, 1, 16))

	events, _, err := NewDetector(env.bookings, env.conflicts).Detect(ctx, property.ID)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(events) != 1 || events[0].Conflict.Type != models.ConflictTypeOverlap {
		t.Fatalf("events = %+v; want one overlap with the manual booking", events)
	}
}
