package application

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-notes/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-notes/internal/domain/repository"
	"github.com/oksasatya/go-ddd-notes/pkg/helpers"
	"github.com/oksasatya/go-ddd-notes/pkg/validation"
)

// UserService is the identity side notes point at.
type UserService struct {
	Repo     repo.UserRepository
	Redis    *redis.Client
	CacheTTL time.Duration
	Logger   *logrus.Logger
	HashCost int // bcrypt cost, 0 for default
}

func NewUserService(r repo.UserRepository, rdb *redis.Client, cacheTTL time.Duration, logger *logrus.Logger) *UserService {
	return &UserService{Repo: r, Redis: rdb, CacheTTL: cacheTTL, Logger: logger}
}

type RegisterUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"present"`
}

// Register creates a user with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, in RegisterUserInput) (*entity.User, error) {
	if details := validation.Struct(in); details != nil {
		return nil, &InvalidInputError{Fields: details}
	}
	if _, err := s.Repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	hash, err := helpers.HashPassword(in.Password, s.HashCost)
	if err != nil {
		return nil, err
	}
	u := &entity.User{Email: in.Email, Password: hash, Name: in.Name}
	if err := s.Repo.Create(ctx, u); err != nil {
		helpers.LogError(s.Logger, "create user failed", err, logrus.Fields{"email": in.Email})
		return nil, err
	}
	s.cacheUser(ctx, u)
	return u, nil
}

// Get returns a user, reading through the Redis cache when configured.
func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	if s.Redis != nil {
		var cached entity.User
		found, err := helpers.RedisGetJSON(ctx, s.Redis, helpers.UserCacheKey(id), &cached)
		if err != nil {
			helpers.LogWarn(s.Logger, "user cache read failed", err, logrus.Fields{"user_id": id})
		} else if found {
			return &cached, nil
		}
	}
	return s.Reload(ctx, id)
}

// Reload fetches the user from the repository, bypassing and then refreshing the cache.
func (s *UserService) Reload(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	s.cacheUser(ctx, u)
	return u, nil
}

func (s *UserService) cacheUser(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisSetJSON(ctx, s.Redis, helpers.UserCacheKey(u.ID), u, s.CacheTTL); err != nil {
		helpers.LogWarn(s.Logger, "user cache write failed", err, logrus.Fields{"user_id": u.ID})
	}
}
