// Package factory builds valid users and notes for tests and seeding.
// Every builder starts from a valid default and applies overrides in order.
package factory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-ddd-notes/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-notes/internal/domain/repository"
	"github.com/oksasatya/go-ddd-notes/pkg/helpers"
)

const (
	DefaultPassword = "password123"
	DefaultName     = "Demo User"
	DefaultTitle    = "Groceries"
	DefaultContent  = "Milk, eggs"
)

var (
	hashOnce    sync.Once
	defaultHash string
)

// defaultPasswordHash is computed once at the minimum bcrypt cost.
func defaultPasswordHash() string {
	hashOnce.Do(func() {
		h, err := helpers.HashPassword(DefaultPassword, bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		defaultHash = h
	})
	return defaultHash
}

type UserOption func(*entity.User)

func WithEmail(email string) UserOption       { return func(u *entity.User) { u.Email = email } }
func WithName(name string) UserOption         { return func(u *entity.User) { u.Name = name } }
func WithPasswordHash(hash string) UserOption { return func(u *entity.User) { u.Password = hash } }
func Verified() UserOption                    { return func(u *entity.User) { u.IsVerified = true } }

// NewUser returns an unsaved user with a unique email.
func NewUser(opts ...UserOption) *entity.User {
	u := &entity.User{
		Email:    "user-" + uuid.NewString()[:8] + "@example.com",
		Password: defaultPasswordHash(),
		Name:     DefaultName,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type NoteOption func(*entity.Note)

func WithTitle(title string) NoteOption     { return func(n *entity.Note) { n.Title = title } }
func WithContent(content string) NoteOption { return func(n *entity.Note) { n.Content = content } }
func WithUserID(id string) NoteOption       { return func(n *entity.Note) { n.UserID = id } }

// NewNote returns an unsaved note owned by userID.
func NewNote(userID string, opts ...NoteOption) *entity.Note {
	n := &entity.Note{Title: DefaultTitle, Content: DefaultContent, UserID: userID}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// CreateUser persists a NewUser.
func CreateUser(ctx context.Context, users repo.UserRepository, opts ...UserOption) (*entity.User, error) {
	u := NewUser(opts...)
	if err := users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateNote persists a default user and a note owned by it.
func CreateNote(ctx context.Context, users repo.UserRepository, notes repo.NoteRepository, opts ...NoteOption) (*entity.Note, *entity.User, error) {
	u, err := CreateUser(ctx, users)
	if err != nil {
		return nil, nil, err
	}
	n := NewNote(u.ID, opts...)
	if err := notes.Create(ctx, n); err != nil {
		return nil, nil, err
	}
	return n, u, nil
}
