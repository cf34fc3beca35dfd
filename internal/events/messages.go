package events

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeSyncCompleted    MessageType = "sync.completed"
	TypeSyncError        MessageType = "sync.error"
	TypeConflictDetected MessageType = "conflict.detected"
	TypeConflictResolved MessageType = "conflict.resolved"
	TypeActionCreated    MessageType = "action.created"
	TypeNotification     MessageType = "notification"

	// Client -> Server command types
	TypePing MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncCompletedPayload is the payload for sync.completed events.
type SyncCompletedPayload struct {
	SourceID          string `json:"source_id"`
	PropertyID        string `json:"property_id"`
	Platform          string `json:"platform"`
	BookingsAdded     int    `json:"bookings_added"`
	BookingsUpdated   int    `json:"bookings_updated"`
	BookingsCancelled int    `json:"bookings_cancelled"`
	ConflictsDetected int    `json:"conflicts_detected"`
	ParseWarnings     int    `json:"parse_warnings"`
	DurationMs        int64  `json:"duration_ms"`
}

// SyncErrorPayload is the payload for sync.error events.
type SyncErrorPayload struct {
	SourceID   string `json:"source_id"`
	PropertyID string `json:"property_id"`
	Platform   string `json:"platform"`
	Message    string `json:"message"`
}

// ConflictPayload is the payload for conflict.detected events.
type ConflictPayload struct {
	ConflictID    string    `json:"conflict_id"`
	PropertyID    string    `json:"property_id"`
	ConflictType  string    `json:"conflict_type"`
	Severity      string    `json:"severity"`
	GuestA        string    `json:"guest_a"`
	PlatformA     string    `json:"platform_a"`
	GuestB        string    `json:"guest_b"`
	PlatformB     string    `json:"platform_b"`
	OverlapStart  time.Time `json:"overlap_start"`
	OverlapEnd    time.Time `json:"overlap_end"`
	OverlapNights int       `json:"overlap_nights"`
}

// ActionPayload is the payload for action.created events.
type ActionPayload struct {
	ActionID       string    `json:"action_id"`
	PropertyID     string    `json:"property_id"`
	ActionType     string    `json:"action_type"`
	Priority       string    `json:"priority"`
	TargetPlatform string    `json:"target_platform"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Description    string    `json:"description"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level   string `json:"level"` // info, warning, error, success
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
