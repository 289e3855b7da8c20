package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	repo "github.com/oksasatya/go-ddd-notes/internal/domain/repository"
)

// NoteEventHandler brings the search index in line with the note store for
// each consumed NoteEvent. Handling is idempotent: the store is re-read, so
// replayed or reordered events converge on the current state.
type NoteEventHandler struct {
	Notes  repo.NoteRepository
	Index  NoteIndexer
	Logger *logrus.Logger
}

func NewNoteEventHandler(notes repo.NoteRepository, index NoteIndexer, logger *logrus.Logger) *NoteEventHandler {
	return &NoteEventHandler{Notes: notes, Index: index, Logger: logger}
}

var ErrUnknownEvent = errors.New("unknown note event")

func (h *NoteEventHandler) Handle(ctx context.Context, evt NoteEvent) error {
	err := h.handle(ctx, evt)
	if h.Logger != nil {
		entry := h.Logger.WithFields(logrus.Fields{"type": evt.Type, "note_id": evt.NoteID})
		if err != nil {
			entry.WithError(err).Warn("note event failed")
		} else {
			entry.Debug("note event handled")
		}
	}
	return err
}

func (h *NoteEventHandler) handle(ctx context.Context, evt NoteEvent) error {
	if evt.NoteID == "" {
		return fmt.Errorf("%w: missing note_id", ErrUnknownEvent)
	}
	switch evt.Type {
	case EventNoteCreated, EventNoteUpdated:
		n, err := h.Notes.GetByID(ctx, evt.NoteID)
		if errors.Is(err, repo.ErrNotFound) {
			// deleted since the event was published
			return h.Index.DeleteNote(ctx, evt.NoteID)
		}
		if err != nil {
			return err
		}
		return h.Index.IndexNote(ctx, n)
	case EventNoteDeleted:
		return h.Index.DeleteNote(ctx, evt.NoteID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, evt.Type)
	}
}
