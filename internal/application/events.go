package application

import (
	"context"
	"time"
)

// Note lifecycle event types.
const (
	EventNoteCreated = "note.created"
	EventNoteUpdated = "note.updated"
	EventNoteDeleted = "note.deleted"
)

// NoteEvent is published after a note change has been persisted.
type NoteEvent struct {
	Type       string    `json:"type"`
	NoteID     string    `json:"note_id"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher is satisfied by *helpers.RabbitPublisher.
type EventPublisher interface {
	PublishJSON(ctx context.Context, msgType string, body any) error
}
