package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rental-sync-manager/backend/internal/feed"
	"github.com/rental-sync-manager/backend/internal/storage/models"
)

const schedulerTestFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:res-1\r\n" +
	"DTSTART;VALUE=DATE:20250110\r\n" +
	"DTEND;VALUE=DATE:20250115\r\n" +
	"SUMMARY:Reserved - Joana Silva\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func newTestScheduler(env *testEnv) *Scheduler {
	return NewScheduler(SchedulerDeps{
		Sources:    env.sources,
		Bookings:   env.bookings,
		Logs:       env.logs,
		Actions:    env.actions,
		Client:     feed.NewClient(5*time.Second, 0, 1000, time.Minute),
		Parser:     feed.NewParser(),
		Reconciler: NewReconciler(env.bookings),
		Detector:   NewDetector(env.bookings, env.conflicts),
		Generator:  NewGenerator(env.actions, env.sources, 72, 24),
	}, 30, 60, 4)
}

func TestRunNowSyncsProperty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(schedulerTestFeed))
	}))
	defer srv.Close()

	property := env.createProperty(t, "Casa Azul")
	src := &models.CalendarSource{
		PropertyID:  property.ID,
		Platform:    models.PlatformAirbnb,
		FeedURL:     srv.URL,
		SyncEnabled: true,
	}
	if err := env.sources.Create(ctx, src); err != nil {
		t.Fatalf("creating source: %v", err)
	}

	summary, err := newTestScheduler(env).RunNow(ctx, property.ID)
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if len(summary.Sources) != 1 {
		t.Fatalf("summary sources = %d; want 1", len(summary.Sources))
	}

	outcome := summary.Sources[0]
	if outcome.Status != models.SyncStatusSuccess {
		t.Fatalf("outcome = %+v; want success", outcome)
	}
	if outcome.Result.Added != 1 {
		t.Errorf("Added = %d; want 1", outcome.Result.Added)
	}

	bookings, _ := env.bookings.ListByProperty(ctx, property.ID)
	if len(bookings) != 1 || bookings[0].GuestName != "Joana Silva" {
		t.Errorf("bookings = %+v; want one for Joana Silva", bookings)
	}

	logs, _ := env.logs.ListBySource(ctx, src.ID, 0)
	if len(logs) != 1 || logs[0].Status != models.SyncStatusSuccess || logs[0].BookingsAdded != 1 {
		t.Errorf("sync logs = %+v; want one success entry", logs)
	}

	stored, _ := env.sources.GetByID(ctx, src.ID)
	if stored.LastSyncStatus != models.SyncStatusSuccess || stored.LastSyncAt == nil {
		t.Errorf("source status = %q, last_sync_at = %v; want success with timestamp", stored.LastSyncStatus, stored.LastSyncAt)
	}
}

func TestRunNowIsolatesFailingSources(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(schedulerTestFeed))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer bad.Close()

	property := env.createProperty(t, "Casa Azul")
	for _, s := range []*models.CalendarSource{
		{PropertyID: property.ID, Platform: models.PlatformAirbnb, FeedURL: good.URL, SyncEnabled: true},
		{PropertyID: property.ID, Platform: models.PlatformBooking, FeedURL: bad.URL, SyncEnabled: true},
	} {
		if err := env.sources.Create(ctx, s); err != nil {
			t.Fatalf("creating source: %v", err)
		}
	}

	summary, err := newTestScheduler(env).RunNow(ctx, property.ID)
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if len(summary.Sources) != 2 {
		t.Fatalf("summary sources = %d; want 2", len(summary.Sources))
	}

	byPlatform := map[string]SourceOutcome{}
	for _, o := range summary.Sources {
		byPlatform[o.Platform] = o
	}

	if byPlatform[models.PlatformAirbnb].Status != models.SyncStatusSuccess {
		t.Errorf("airbnb outcome = %+v; want success despite booking failure", byPlatform[models.PlatformAirbnb])
	}
	failed := byPlatform[models.PlatformBooking]
	if failed.Status != models.SyncStatusError || failed.Error == "" {
		t.Errorf("booking outcome = %+v; want error with message", failed)
	}
}

func TestRunNowRejectsConcurrentRuns(t *testing.T) {
	env := newTestEnv(t)
	property := env.createProperty(t, "Casa Azul")

	s := newTestScheduler(env)
	if !s.tryAcquire(property.ID) {
		t.Fatal("tryAcquire failed on a free property")
	}
	defer s.release(property.ID)

	if _, err := s.RunNow(context.Background(), property.ID); err != ErrSyncInProgress {
		t.Errorf("RunNow = %v; want ErrSyncInProgress", err)
	}
}

func TestRunNowMarksCompletedBookings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	property := env.createProperty(t, "Casa Azul")

	// Far in the past, stay long over.
	env.createManualBooking(t, property.ID, "Past Guest", date(2020, 1, 1), date(2020, 1, 5))

	summary, err := newTestScheduler(env).RunNow(ctx, property.ID)
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if summary.CompletedBookings != 1 {
		t.Errorf("CompletedBookings = %d; want 1", summary.CompletedBookings)
	}

	bookings, _ := env.bookings.ListByProperty(ctx, property.ID)
	if bookings[0].Status != models.BookingStatusCompleted {
		t.Errorf("Status = %q; want completed", bookings[0].Status)
	}
}

func TestSweepDismissesExpiredActions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	property := env.createProperty(t, "Casa Azul")

	action := &models.SyncAction{
		PropertyID:            property.ID,
		ActionType:            models.ActionTypeBlockDates,
		Priority:              models.PriorityHigh,
		TargetPlatform:        models.PlatformAirbnb,
		StartDate:             date(2025, 1, 10),
		EndDate:               date(2025, 1, 15),
		Description:           "Block 2025-01-10 to 2025-01-15 on airbnb",
		Reason:                "test",
		AutoDismissAfterHours: 1,
	}
	if err := env.actions.Create(ctx, action); err != nil {
		t.Fatalf("creating action: %v", err)
	}

	// Age the action past its window.
	if _, err := env.db.ExecContext(ctx,
		"UPDATE sync_actions SET created_at = ? WHERE id = ?",
		time.Now().UTC().Add(-2*time.Hour), action.ID); err != nil {
		t.Fatalf("aging action: %v", err)
	}

	newTestScheduler(env).sweepActions()

	stored, _ := env.actions.GetByID(ctx, action.ID)
	if stored.Status != models.ActionStatusDismissed {
		t.Errorf("Status = %q; want dismissed", stored.Status)
	}
}
