package repository

import (
	"context"

	"github.com/oksasatya/go-ddd-notes/internal/domain/entity"
)

// NoteRepository defines the interface for note persistence.
// Delete removes the note row only; implementations must not cascade to users.
type NoteRepository interface {
	Create(ctx context.Context, n *entity.Note) error
	GetByID(ctx context.Context, id string) (*entity.Note, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Note, error)
	Update(ctx context.Context, n *entity.Note) error
	Delete(ctx context.Context, id string) error
}
