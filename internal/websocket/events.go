package websocket

import (
	"github.com/social-apps/backend/internal/storage/models"
)

// EventBroadcaster encodes domain events and hands them to the hub.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastStreamItem announces a new activity stream item.
func (b *EventBroadcaster) BroadcastStreamItem(item models.StreamItem) {
	b.broadcast(NewMessage(TypeStreamItemCreated, StreamItemPayload{
		ID:        item.ID,
		ActorID:   item.ActorID,
		Context:   item.Context,
		ContextID: item.ContextID,
		Verb:      item.Verb,
	}))
}

// BroadcastCalendarEntryDeleted announces a removed calendar entry.
func (b *EventBroadcaster) BroadcastCalendarEntryDeleted(entryID, ownerID int64) {
	b.broadcast(NewMessage(TypeCalendarEntryDelete, CalendarEntryDeletedPayload{
		EntryID: entryID,
		OwnerID: ownerID,
	}))
}

// BroadcastProfileUpdated announces a saved profile.
func (b *EventBroadcaster) BroadcastProfileUpdated(userID int64) {
	b.broadcast(NewMessage(TypeProfileUpdated, ProfileUpdatedPayload{UserID: userID}))
}

func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		b.hub.lggr.Errorw("encoding websocket message", "type", msg.Type, "err", err)
		return
	}

	b.hub.Broadcast(data)
}
