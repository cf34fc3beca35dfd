package events

import (
	"github.com/rental-sync-manager/backend/internal/logging"
	"github.com/rental-sync-manager/backend/internal/storage/models"
	"github.com/rental-sync-manager/backend/internal/sync"
)

// Broadcaster translates sync lifecycle events into WebSocket messages.
// It satisfies the scheduler's Notifier interface.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new event broadcaster.
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// SyncCompleted announces a finished source sync.
func (b *Broadcaster) SyncCompleted(source models.CalendarSource, entry models.SyncLog) {
	b.broadcast(NewMessage(TypeSyncCompleted, SyncCompletedPayload{
		SourceID:          source.ID,
		PropertyID:        source.PropertyID,
		Platform:          source.Platform,
		BookingsAdded:     entry.BookingsAdded,
		BookingsUpdated:   entry.BookingsUpdated,
		BookingsCancelled: entry.BookingsCancelled,
		ConflictsDetected: entry.ConflictsDetected,
		ParseWarnings:     entry.ParseWarnings,
		DurationMs:        entry.DurationMs,
	}))
}

// SyncFailed announces a failed source sync.
func (b *Broadcaster) SyncFailed(source models.CalendarSource, err error) {
	b.broadcast(NewMessage(TypeSyncError, SyncErrorPayload{
		SourceID:   source.ID,
		PropertyID: source.PropertyID,
		Platform:   source.Platform,
		Message:    err.Error(),
	}))
}

// ConflictDetected announces a newly detected booking conflict.
func (b *Broadcaster) ConflictDetected(event sync.ConflictEvent) {
	c := event.Conflict
	b.broadcast(NewMessage(TypeConflictDetected, ConflictPayload{
		ConflictID:    c.ID,
		PropertyID:    c.PropertyID,
		ConflictType:  c.Type,
		Severity:      c.Severity,
		GuestA:        event.BookingA.GuestName,
		PlatformA:     event.BookingA.Platform,
		GuestB:        event.BookingB.GuestName,
		PlatformB:     event.BookingB.Platform,
		OverlapStart:  c.OverlapStart,
		OverlapEnd:    c.OverlapEnd,
		OverlapNights: c.OverlapNights,
	}))
}

// ActionCreated announces a newly generated sync action.
func (b *Broadcaster) ActionCreated(action models.SyncAction) {
	b.broadcast(NewMessage(TypeActionCreated, ActionPayload{
		ActionID:       action.ID,
		PropertyID:     action.PropertyID,
		ActionType:     action.ActionType,
		Priority:       action.Priority,
		TargetPlatform: action.TargetPlatform,
		StartDate:      action.StartDate,
		EndDate:        action.EndDate,
		Description:    action.Description,
	}))
}

// Notify sends a free-form notification to all clients.
func (b *Broadcaster) Notify(level, title, message string) {
	b.broadcast(NewMessage(TypeNotification, NotificationPayload{
		Level:   level,
		Title:   title,
		Message: message,
	}))
}

func (b *Broadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		logging.Error("encoding websocket message failed", "type", string(msg.Type), "error", err)
		return
	}
	b.hub.Broadcast(data)
}
