package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-ddd-notes/internal/application"
	"github.com/oksasatya/go-ddd-notes/internal/domain/entity"
	"github.com/oksasatya/go-ddd-notes/internal/infrastructure/memory"
)

// spyNotes counts calls that reach the note store.
type spyNotes struct {
	*memory.NoteRepository
	mu      sync.Mutex
	creates int
	updates int
	deletes int
}

func (s *spyNotes) Create(ctx context.Context, n *entity.Note) error {
	s.mu.Lock()
	s.creates++
	s.mu.Unlock()
	return s.NoteRepository.Create(ctx, n)
}

func (s *spyNotes) Update(ctx context.Context, n *entity.Note) error {
	s.mu.Lock()
	s.updates++
	s.mu.Unlock()
	return s.NoteRepository.Update(ctx, n)
}

func (s *spyNotes) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	s.deletes++
	s.mu.Unlock()
	return s.NoteRepository.Delete(ctx, id)
}

type fakeIndex struct {
	mu      sync.Mutex
	docs    map[string]*entity.Note
	deleted []string
	err     error
}

func newFakeIndex() *fakeIndex { return &fakeIndex{docs: map[string]*entity.Note{}} }

func (f *fakeIndex) IndexNote(_ context.Context, n *entity.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *n
	f.docs[n.ID] = &cp
	return nil
}

func (f *fakeIndex) DeleteNote(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.docs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, userID, _ string, _ int) ([]*entity.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*entity.Note{}
	for _, n := range f.docs {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []application.NoteEvent
	err    error
}

func (f *fakePublisher) PublishJSON(_ context.Context, _ string, body any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, body.(application.NoteEvent))
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	users   *memory.UserRepository
	notes   *spyNotes
	mr      *miniredis.Miniredis
	rdb     *redis.Client
	index   *fakeIndex
	events  *fakePublisher
	logs    *test.Hook
	svc     *application.NoteService
	userSvc *application.UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	users := memory.NewUserRepository()
	notes := &spyNotes{NoteRepository: memory.NewNoteRepository(users)}
	index := newFakeIndex()
	events := &fakePublisher{}

	userSvc := application.NewUserService(users, rdb, time.Minute, logger)
	userSvc.HashCost = bcrypt.MinCost

	return &fixture{
		users:   users,
		notes:   notes,
		mr:      mr,
		rdb:     rdb,
		index:   index,
		events:  events,
		logs:    hook,
		svc:     application.NewNoteService(notes, users, rdb, time.Minute, logger, index, events),
		userSvc: userSvc,
	}
}

var errBoom = errors.New("boom")
