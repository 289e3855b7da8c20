package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-notes/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-notes/internal/domain/repository"
	"github.com/oksasatya/go-ddd-notes/pkg/helpers"
)

// NoteIndexer is satisfied by *search.NoteIndex.
type NoteIndexer interface {
	IndexNote(ctx context.Context, n *entity.Note) error
	DeleteNote(ctx context.Context, id string) error
	Search(ctx context.Context, userID, q string, size int) ([]*entity.Note, error)
}

// NoteService owns the note lifecycle. Cache, search index and events are
// optional collaborators; a nil value disables each of them.
type NoteService struct {
	Notes    repo.NoteRepository
	Users    repo.UserRepository
	Redis    *redis.Client
	CacheTTL time.Duration
	Logger   *logrus.Logger
	Search   NoteIndexer
	Events   EventPublisher
}

func NewNoteService(notes repo.NoteRepository, users repo.UserRepository, rdb *redis.Client, cacheTTL time.Duration, logger *logrus.Logger, search NoteIndexer, events EventPublisher) *NoteService {
	return &NoteService{
		Notes:    notes,
		Users:    users,
		Redis:    rdb,
		CacheTTL: cacheTTL,
		Logger:   logger,
		Search:   search,
		Events:   events,
	}
}

type CreateNoteInput struct {
	Title   string
	Content string
	UserID  string
}

// UpdateNoteInput is a partial update; nil fields keep their current value.
type UpdateNoteInput struct {
	Title   *string
	Content *string
	UserID  *string
}

// Validate reports whether n may be persisted. It never touches storage.
func (s *NoteService) Validate(n *entity.Note) entity.ValidationResult {
	return n.Validate()
}

// Create validates the note, checks that its user exists and stores it.
// An invalid note is returned as *entity.InvalidNoteError before any storage call.
func (s *NoteService) Create(ctx context.Context, in CreateNoteInput) (*entity.Note, error) {
	n := &entity.Note{Title: in.Title, Content: in.Content, UserID: in.UserID}
	if err := n.Validate().Err(); err != nil {
		return nil, err
	}
	if _, err := s.lookupUser(ctx, n.UserID); err != nil {
		return nil, err
	}
	if err := s.Notes.Create(ctx, n); err != nil {
		if errors.Is(err, repo.ErrInvalidReference) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.cacheNote(ctx, n)
	s.indexNote(ctx, n)
	s.publish(ctx, EventNoteCreated, n)
	return n, nil
}

// Get returns a note, reading through the Redis cache when configured.
func (s *NoteService) Get(ctx context.Context, id string) (*entity.Note, error) {
	if s.Redis != nil {
		var cached entity.Note
		found, err := helpers.RedisGetJSON(ctx, s.Redis, helpers.NoteCacheKey(id), &cached)
		if err != nil {
			helpers.LogWarn(s.Logger, "note cache read failed", err, logrus.Fields{"note_id": id})
		} else if found {
			return &cached, nil
		}
	}

	n, err := s.Notes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	s.cacheNote(ctx, n)
	return n, nil
}

// ListByUser returns a user's notes, newest first.
func (s *NoteService) ListByUser(ctx context.Context, userID string) ([]*entity.Note, error) {
	if _, err := s.lookupUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.Notes.ListByUser(ctx, userID)
}

// Update applies a partial update and revalidates the result.
func (s *NoteService) Update(ctx context.Context, id string, in UpdateNoteInput) (*entity.Note, error) {
	n, err := s.Notes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}

	prevUser := n.UserID
	if in.Title != nil {
		n.Title = *in.Title
	}
	if in.Content != nil {
		n.Content = *in.Content
	}
	if in.UserID != nil {
		n.UserID = *in.UserID
	}
	if err := n.Validate().Err(); err != nil {
		return nil, err
	}
	if n.UserID != prevUser {
		if _, err := s.lookupUser(ctx, n.UserID); err != nil {
			return nil, err
		}
	}

	if err := s.Notes.Update(ctx, n); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrNoteNotFound
		case errors.Is(err, repo.ErrInvalidReference):
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.cacheNote(ctx, n)
	s.indexNote(ctx, n)
	s.publish(ctx, EventNoteUpdated, n)
	return n, nil
}

// Owner resolves the note's user through the user repository.
func (s *NoteService) Owner(ctx context.Context, n *entity.Note) (*entity.User, error) {
	if n == nil || strings.TrimSpace(n.UserID) == "" {
		return nil, ErrUserNotFound
	}
	return s.lookupUser(ctx, n.UserID)
}

// Delete removes the note and everything derived from it: its cache entry,
// its search document. The owning user and the user's cache entry stay as
// they are. Cache, index and event failures are logged, not returned.
func (s *NoteService) Delete(ctx context.Context, id string) error {
	n, err := s.Notes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNoteNotFound
		}
		return err
	}
	if err := s.Notes.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNoteNotFound
		}
		return err
	}

	if s.Redis != nil {
		if err := helpers.RedisDel(ctx, s.Redis, helpers.NoteCacheKey(id)); err != nil {
			helpers.LogWarn(s.Logger, "note cache evict failed", err, logrus.Fields{"note_id": id})
		}
	}
	if s.Search != nil {
		if err := s.Search.DeleteNote(ctx, id); err != nil {
			helpers.LogWarn(s.Logger, "note de-index failed", err, logrus.Fields{"note_id": id})
		}
	}
	s.publish(ctx, EventNoteDeleted, n)
	return nil
}

// SearchNotes searches a user's notes. Without an index it returns no results.
func (s *NoteService) SearchNotes(ctx context.Context, userID, q string, size int) ([]*entity.Note, error) {
	if s.Search == nil {
		return []*entity.Note{}, nil
	}
	return s.Search.Search(ctx, userID, q, size)
}

func (s *NoteService) lookupUser(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *NoteService) cacheNote(ctx context.Context, n *entity.Note) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisSetJSON(ctx, s.Redis, helpers.NoteCacheKey(n.ID), n, s.CacheTTL); err != nil {
		helpers.LogWarn(s.Logger, "note cache write failed", err, logrus.Fields{"note_id": n.ID})
	}
}

func (s *NoteService) indexNote(ctx context.Context, n *entity.Note) {
	if s.Search == nil {
		return
	}
	if err := s.Search.IndexNote(ctx, n); err != nil {
		helpers.LogWarn(s.Logger, "note index failed", err, logrus.Fields{"note_id": n.ID})
	}
}

func (s *NoteService) publish(ctx context.Context, eventType string, n *entity.Note) {
	if s.Events == nil {
		return
	}
	evt := NoteEvent{Type: eventType, NoteID: n.ID, UserID: n.UserID, OccurredAt: time.Now().UTC()}
	if err := s.Events.PublishJSON(ctx, eventType, evt); err != nil {
		helpers.LogWarn(s.Logger, "note event publish failed", err, logrus.Fields{"note_id": n.ID, "type": eventType})
	}
}
