package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-ddd-notes/internal/domain/entity"
	"github.com/oksasatya/go-ddd-notes/internal/domain/repository"
)

// NoteRepository keeps notes in a map guarded by a RWMutex.
// When built with a UserRepository it rejects notes whose user does not exist,
// mirroring the foreign key on notes.user_id.
type NoteRepository struct {
	mu    sync.RWMutex
	notes map[string]entity.Note
	users *UserRepository
}

func NewNoteRepository(users *UserRepository) *NoteRepository {
	return &NoteRepository{notes: make(map[string]entity.Note), users: users}
}

func (r *NoteRepository) checkUser(userID string) error {
	if r.users == nil {
		return nil
	}
	r.users.mu.RLock()
	defer r.users.mu.RUnlock()
	if _, ok := r.users.users[userID]; !ok {
		return repository.ErrInvalidReference
	}
	return nil
}

func (r *NoteRepository) Create(_ context.Context, n *entity.Note) error {
	if err := r.checkUser(n.UserID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// ids are always generated here, as the database does
	n.ID = uuid.NewString()
	now := time.Now()
	n.CreatedAt, n.UpdatedAt = now, now
	r.notes[n.ID] = *n
	return nil
}

func (r *NoteRepository) GetByID(_ context.Context, id string) (*entity.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &n, nil
}

func (r *NoteRepository) ListByUser(_ context.Context, userID string) ([]*entity.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Note, 0)
	for _, n := range r.notes {
		if n.UserID == userID {
			n := n
			out = append(out, &n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *NoteRepository) Update(_ context.Context, n *entity.Note) error {
	if err := r.checkUser(n.UserID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notes[n.ID]; !ok {
		return repository.ErrNotFound
	}
	n.UpdatedAt = time.Now()
	r.notes[n.ID] = *n
	return nil
}

// Delete removes the note only; the user store is not consulted.
func (r *NoteRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.notes, id)
	return nil
}

var _ repository.NoteRepository = (*NoteRepository)(nil)
