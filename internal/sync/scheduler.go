package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"

	"github.com/rental-sync-manager/backend/internal/feed"
	"github.com/rental-sync-manager/backend/internal/logging"
	"github.com/rental-sync-manager/backend/internal/metrics"
	"github.com/rental-sync-manager/backend/internal/storage"
	"github.com/rental-sync-manager/backend/internal/storage/models"
)

// Notifier receives sync lifecycle events for broadcasting. Implementations
// must not block; a nil Notifier disables notifications.
type Notifier interface {
	SyncCompleted(source models.CalendarSource, entry models.SyncLog)
	SyncFailed(source models.CalendarSource, err error)
	ConflictDetected(event ConflictEvent)
	ActionCreated(action models.SyncAction)
}

// SourceOutcome reports how one calendar source fared within a property run.
type SourceOutcome struct {
	SourceID     string      `json:"source_id"`
	Platform     string      `json:"platform"`
	Status       string      `json:"status"`
	Error        string      `json:"error,omitempty"`
	Result       *SyncResult `json:"result,omitempty"`
	NewConflicts int         `json:"new_conflicts"`
	Healed       int         `json:"healed_conflicts"`
}

// PropertyRunSummary reports one full property sync pass.
type PropertyRunSummary struct {
	PropertyID        string          `json:"property_id"`
	CompletedBookings int             `json:"completed_bookings"`
	Sources           []SourceOutcome `json:"sources"`
}

// SchedulerDeps bundles the collaborators a Scheduler drives.
type SchedulerDeps struct {
	Sources    *storage.CalendarSourceRepository
	Bookings   *storage.BookingRepository
	Logs       *storage.SyncLogRepository
	Actions    *storage.SyncActionRepository
	Client     *feed.Client
	Parser     *feed.Parser
	Reconciler *Reconciler
	Detector   *Detector
	Generator  *Generator
	Notifier   Notifier
}

// Scheduler periodically syncs all enabled calendar sources. Properties
// run in parallel up to a bounded width; the sources of one property run
// sequentially, and at most one sync per property is in flight at a time.
type Scheduler struct {
	deps SchedulerDeps

	cron          *cron.Cron
	sem           *semaphore.Weighted
	intervalMin   int
	sweepInterval int

	runningMu gosync.Mutex
	running   map[string]bool

	wg gosync.WaitGroup
}

// NewScheduler creates a sync scheduler. intervalMin is the full-pass
// cadence (default 30), sweepIntervalMin the action expiry sweep cadence
// (default 60), maxConcurrent the property parallelism bound (default 4).
func NewScheduler(deps SchedulerDeps, intervalMin, sweepIntervalMin int, maxConcurrent int64) *Scheduler {
	if intervalMin <= 0 {
		intervalMin = 30
	}
	if sweepIntervalMin <= 0 {
		sweepIntervalMin = 60
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	return &Scheduler{
		deps:          deps,
		cron:          cron.New(),
		sem:           semaphore.NewWeighted(maxConcurrent),
		intervalMin:   intervalMin,
		sweepInterval: sweepIntervalMin,
		running:       make(map[string]bool),
	}
}

// Start registers the periodic jobs and kicks off an immediate first pass.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %dm", s.intervalMin), s.runAll); err != nil {
		return fmt.Errorf("scheduling sync pass: %w", err)
	}
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %dm", s.sweepInterval), s.sweepActions); err != nil {
		return fmt.Errorf("scheduling action sweep: %w", err)
	}

	s.cron.Start()
	logging.Info("sync scheduler started", "interval_min", s.intervalMin, "sweep_interval_min", s.sweepInterval)

	go s.runAll()
	return nil
}

// Stop halts scheduling and waits for in-flight property runs to finish.
func (s *Scheduler) Stop() {
	logging.Info("stopping sync scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
	logging.Info("sync scheduler stopped")
}

// RunNow synchronously runs a full sync pass for one property. Returns
// ErrSyncInProgress when a pass for the property is already running.
func (s *Scheduler) RunNow(ctx context.Context, propertyID string) (*PropertyRunSummary, error) {
	if !s.tryAcquire(propertyID) {
		return nil, ErrSyncInProgress
	}
	defer s.release(propertyID)

	return s.runProperty(ctx, propertyID), nil
}

// runAll syncs every property with enabled sources, bounded-parallel.
func (s *Scheduler) runAll() {
	ctx := context.Background()

	sources, err := s.deps.Sources.ListEnabled(ctx)
	if err != nil {
		logging.Error("listing enabled sources failed", "error", err)
		return
	}

	seen := make(map[string]bool)
	var propertyIDs []string
	for _, src := range sources {
		if !seen[src.PropertyID] {
			seen[src.PropertyID] = true
			propertyIDs = append(propertyIDs, src.PropertyID)
		}
	}

	for _, propertyID := range propertyIDs {
		propertyID := propertyID

		if err := s.sem.Acquire(ctx, 1); err != nil {
			return
		}
		if !s.tryAcquire(propertyID) {
			// A manual run is still going; this pass skips the property.
			s.sem.Release(1)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.sem.Release(1)
			defer s.release(propertyID)
			s.runProperty(ctx, propertyID)
		}()
	}
}

// runProperty syncs each enabled source of a property in turn. A failed
// source never blocks the others; every attempt leaves a sync log behind.
func (s *Scheduler) runProperty(ctx context.Context, propertyID string) *PropertyRunSummary {
	summary := &PropertyRunSummary{PropertyID: propertyID}

	completed, err := s.deps.Bookings.MarkCompleted(ctx, propertyID, todayUTC())
	if err != nil {
		logging.Warn("completion sweep failed", "property_id", propertyID, "error", err)
	}
	summary.CompletedBookings = completed

	sources, err := s.deps.Sources.ListEnabledByProperty(ctx, propertyID)
	if err != nil {
		logging.Error("listing property sources failed", "property_id", propertyID, "error", err)
		return summary
	}

	for i := range sources {
		outcome := s.syncSource(ctx, &sources[i])
		summary.Sources = append(summary.Sources, outcome)
	}

	return summary
}

// syncSource runs the full pipeline for one source: fetch, parse,
// reconcile, detect conflicts, generate actions, log, notify.
func (s *Scheduler) syncSource(ctx context.Context, source *models.CalendarSource) SourceOutcome {
	started := time.Now().UTC()

	body, err := s.deps.Client.Fetch(ctx, source.FeedURL)
	if err != nil {
		return s.failSource(ctx, source, started, fmt.Errorf("fetching feed: %w", err))
	}

	records, warnings, err := s.deps.Parser.Parse(body, source.Platform)
	if err != nil {
		return s.failSource(ctx, source, started, err)
	}

	result, err := s.deps.Reconciler.Reconcile(ctx, source, records)
	if err != nil {
		return s.failSource(ctx, source, started, err)
	}

	events, healed, err := s.deps.Detector.Detect(ctx, source.PropertyID)
	if err != nil {
		logging.Warn("conflict detection incomplete", "source_id", source.ID, "error", err)
	}

	actions, err := s.deps.Generator.Generate(ctx, source.PropertyID, events, result.CancelledBookings)
	if err != nil {
		logging.Warn("action generation incomplete", "source_id", source.ID, "error", err)
	}

	duration := time.Since(started)
	entry := models.SyncLog{
		CalendarSourceID:  source.ID,
		Status:            models.SyncStatusSuccess,
		BookingsAdded:     result.Added,
		BookingsUpdated:   result.Updated,
		BookingsCancelled: result.Cancelled,
		ConflictsDetected: len(events),
		ParseWarnings:     warnings,
		DurationMs:        duration.Milliseconds(),
		StartedAt:         started,
	}
	if err := s.deps.Logs.Create(ctx, &entry); err != nil {
		logging.Error("writing sync log failed", "source_id", source.ID, "error", err)
	}
	if err := s.deps.Sources.UpdateSyncStatus(ctx, source.ID, models.SyncStatusSuccess); err != nil {
		logging.Error("updating source status failed", "source_id", source.ID, "error", err)
	}

	metrics.SyncRuns.WithLabelValues(models.SyncStatusSuccess).Inc()
	metrics.SyncDuration.Observe(duration.Seconds())
	metrics.RecordSyncResult(result.Added, result.Updated, result.Cancelled)
	for i := range events {
		metrics.ConflictsDetected.WithLabelValues(events[i].Conflict.Severity).Inc()
	}
	metrics.ConflictsHealed.Add(float64(healed))
	for i := range actions {
		metrics.ActionsCreated.WithLabelValues(actions[i].ActionType).Inc()
	}

	if n := s.deps.Notifier; n != nil {
		n.SyncCompleted(*source, entry)
		for i := range events {
			n.ConflictDetected(events[i])
		}
		for i := range actions {
			n.ActionCreated(actions[i])
		}
	}

	logging.Info("calendar source synced",
		"source_id", source.ID, "platform", source.Platform,
		"added", result.Added, "updated", result.Updated,
		"cancelled", result.Cancelled, "conflicts", len(events),
		"healed", healed, "warnings", warnings,
		"duration_ms", duration.Milliseconds())

	return SourceOutcome{
		SourceID:     source.ID,
		Platform:     source.Platform,
		Status:       models.SyncStatusSuccess,
		Result:       result,
		NewConflicts: len(events),
		Healed:       healed,
	}
}

// failSource records a source failure without touching booking state.
func (s *Scheduler) failSource(ctx context.Context, source *models.CalendarSource, started time.Time, cause error) SourceOutcome {
	logging.Error("calendar source sync failed",
		"source_id", source.ID, "platform", source.Platform, "error", cause)

	msg := cause.Error()
	entry := models.SyncLog{
		CalendarSourceID: source.ID,
		Status:           models.SyncStatusError,
		ErrorMessage:     &msg,
		DurationMs:       time.Since(started).Milliseconds(),
		StartedAt:        started,
	}
	if err := s.deps.Logs.Create(ctx, &entry); err != nil {
		logging.Error("writing sync log failed", "source_id", source.ID, "error", err)
	}
	if err := s.deps.Sources.UpdateSyncStatus(ctx, source.ID, models.SyncStatusError); err != nil {
		logging.Error("updating source status failed", "source_id", source.ID, "error", err)
	}

	metrics.SyncRuns.WithLabelValues(models.SyncStatusError).Inc()

	if n := s.deps.Notifier; n != nil {
		n.SyncFailed(*source, cause)
	}

	return SourceOutcome{
		SourceID: source.ID,
		Platform: source.Platform,
		Status:   models.SyncStatusError,
		Error:    msg,
	}
}

// sweepActions dismisses pending actions that outlived their expiry
// window. The suggestion is stale by then; the next sync regenerates it
// if the underlying problem persists.
func (s *Scheduler) sweepActions() {
	ctx := context.Background()
	now := time.Now().UTC()

	pending, err := s.deps.Actions.ListPending(ctx)
	if err != nil {
		logging.Error("listing pending actions failed", "error", err)
		return
	}

	dismissed := 0
	for i := range pending {
		a := &pending[i]
		if !a.ShouldAutoDismiss(now) {
			continue
		}
		if err := s.deps.Actions.UpdateStatus(ctx, a.ID, models.ActionStatusDismissed); err != nil {
			logging.Warn("auto-dismissing action failed", "action_id", a.ID, "error", err)
			continue
		}
		dismissed++
	}

	if dismissed > 0 {
		metrics.ActionsAutoDismissed.Add(float64(dismissed))
		logging.Info("expired sync actions dismissed", "count", dismissed)
	}
}

// tryAcquire claims the per-property run slot.
func (s *Scheduler) tryAcquire(propertyID string) bool {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	if s.running[propertyID] {
		return false
	}
	s.running[propertyID] = true
	return true
}

func (s *Scheduler) release(propertyID string) {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	delete(s.running, propertyID)
}

func todayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
