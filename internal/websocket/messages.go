package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client events
	TypeStreamItemCreated   MessageType = "stream.item_created"
	TypeCalendarEntryDelete MessageType = "calendar.entry_deleted"
	TypeProfileUpdated      MessageType = "profile.updated"

	// Client -> Server commands
	TypePing MessageType = "ping"

	// Server -> Client responses
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message is the WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload,omitempty"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// StreamItemPayload is the payload for stream.item_created events.
type StreamItemPayload struct {
	ID        string `json:"id"`
	ActorID   int64  `json:"actor_id"`
	Context   string `json:"context"`
	ContextID int64  `json:"context_id"`
	Verb      string `json:"verb"`
}

// CalendarEntryDeletedPayload is the payload for calendar.entry_deleted events.
type CalendarEntryDeletedPayload struct {
	EntryID int64 `json:"entry_id"`
	OwnerID int64 `json:"owner_id"`
}

// ProfileUpdatedPayload is the payload for profile.updated events.
type ProfileUpdatedPayload struct {
	UserID int64 `json:"user_id"`
}

// ErrorPayload is the payload for error responses.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}
