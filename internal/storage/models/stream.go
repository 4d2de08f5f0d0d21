package models

import "time"

// Stream verbs.
const (
	VerbCreate = "create"
	VerbUpdate = "update"
)

// StreamItem is an activity stream record.
type StreamItem struct {
	ID        string    `json:"id"`
	ActorID   int64     `json:"actor_id"`
	Context   string    `json:"context"`
	ContextID int64     `json:"context_id"`
	Verb      string    `json:"verb"`
	CreatedAt time.Time `json:"created_at"`
}
