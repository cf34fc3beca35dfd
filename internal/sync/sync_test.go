package sync

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rental-sync-manager/backend/internal/feed"
	"github.com/rental-sync-manager/backend/internal/storage"
	"github.com/rental-sync-manager/backend/internal/storage/models"
)

// testEnv wires a reconciliation pipeline against a throwaway database.
type testEnv struct {
	db         *storage.DB
	properties *storage.PropertyRepository
	sources    *storage.CalendarSourceRepository
	bookings   *storage.BookingRepository
	conflicts  *storage.ConflictRepository
	actions    *storage.SyncActionRepository
	logs       *storage.SyncLogRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := storage.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	return &testEnv{
		db:         db,
		properties: storage.NewPropertyRepository(db),
		sources:    storage.NewCalendarSourceRepository(db),
		bookings:   storage.NewBookingRepository(db),
		conflicts:  storage.NewConflictRepository(db),
		actions:    storage.NewSyncActionRepository(db),
		logs:       storage.NewSyncLogRepository(db),
	}
}

func (e *testEnv) createProperty(t *testing.T, name string) *models.Property {
	t.Helper()
	p := &models.Property{Name: name}
	if err := e.properties.Create(context.Background(), p); err != nil {
		t.Fatalf("creating property: %v", err)
	}
	return p
}

func (e *testEnv) createSource(t *testing.T, propertyID, platform string) *models.CalendarSource {
	t.Helper()
	src := &models.CalendarSource{
		PropertyID:  propertyID,
		Platform:    platform,
		FeedURL:     "https://example.com/" + platform + ".ics",
		SyncEnabled: true,
	}
	if err := e.sources.Create(context.Background(), src); err != nil {
		t.Fatalf("creating calendar source: %v", err)
	}
	return src
}

func (e *testEnv) createBooking(t *testing.T, src *models.CalendarSource, externalID, guest string, checkIn, checkOut time.Time) *models.Booking {
	t.Helper()
	b := &models.Booking{
		PropertyID:       src.PropertyID,
		CalendarSourceID: &src.ID,
		Platform:         src.Platform,
		ExternalID:       &externalID,
		GuestName:        guest,
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		Status:           models.BookingStatusConfirmed,
		ContentHash:      feed.ContentHash(checkIn, checkOut, guest, models.BookingStatusConfirmed),
	}
	if err := e.bookings.Create(context.Background(), e.db, b); err != nil {
		t.Fatalf("creating booking: %v", err)
	}
	return b
}

func (e *testEnv) createManualBooking(t *testing.T, propertyID, guest string, checkIn, checkOut time.Time) *models.Booking {
	t.Helper()
	b := &models.Booking{
		PropertyID: propertyID,
		Platform:   models.PlatformManual,
		GuestName:  guest,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Status:     models.BookingStatusConfirmed,
	}
	if err := e.bookings.Create(context.Background(), e.db, b); err != nil {
		t.Fatalf("creating manual booking: %v", err)
	}
	return b
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func record(externalID, guest string, checkIn, checkOut time.Time) feed.ExternalRecord {
	return feed.ExternalRecord{
		ExternalID:  externalID,
		GuestName:   guest,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Status:      feed.RecordStatusConfirmed,
		ContentHash: feed.ContentHash(checkIn, checkOut, guest, feed.RecordStatusConfirmed),
	}
}

func cancelledRecord(externalID, guest string, checkIn, checkOut time.Time) feed.ExternalRecord {
	r := record(externalID, guest, checkIn, checkOut)
	r.Status = feed.RecordStatusCancelled
	r.ContentHash = feed.ContentHash(checkIn, checkOut, guest, feed.RecordStatusCancelled)
	return r
}
