package container

import (
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-notes/config"
	"github.com/oksasatya/go-ddd-notes/internal/application"
	repo "github.com/oksasatya/go-ddd-notes/internal/domain/repository"
	"github.com/oksasatya/go-ddd-notes/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-ddd-notes/internal/infrastructure/postgres"
	"github.com/oksasatya/go-ddd-notes/internal/infrastructure/search"
	"github.com/oksasatya/go-ddd-notes/pkg/helpers"
)

// app-level container to share constructed components across packages
// Commands set the singletons they have and build services from them.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	esClient    *elasticsearch.Client
	rabbitPub   *helpers.RabbitPublisher
)

func SetConfig(c *config.Config)              { cfg = c }
func GetConfig() *config.Config               { return cfg }
func SetLogger(l *logrus.Logger)              { logger = l }
func GetLogger() *logrus.Logger               { return logger }
func SetPGPool(p *pgxpool.Pool)               { pgPool = p }
func GetPGPool() *pgxpool.Pool                { return pgPool }
func SetRedis(r *redis.Client)                { redisClient = r }
func GetRedis() *redis.Client                 { return redisClient }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }

const defaultCacheTTL = 10 * time.Minute

// Reset clears every singleton.
func Reset() {
	cfg, logger, pgPool, redisClient, esClient, rabbitPub = nil, nil, nil, nil, nil, nil
}

// Repositories returns postgres repositories when a pool is set, in-memory ones otherwise.
func Repositories() (repo.UserRepository, repo.NoteRepository) {
	if pgPool != nil {
		return pginfra.NewUserRepository(pgPool), pginfra.NewNoteRepository(pgPool)
	}
	users := memory.NewUserRepository()
	return users, memory.NewNoteRepository(users)
}

// NoteIndex returns the search index, or nil when search is off or no client is set.
func NoteIndex() application.NoteIndexer {
	if cfg == nil || !cfg.SearchEnabled || esClient == nil {
		return nil
	}
	return search.NewNoteIndex(esClient, cfg.ESNotesIndex)
}

// EventPublisher returns the broker publisher, or nil when events are off.
func EventPublisher() application.EventPublisher {
	if cfg == nil || !cfg.EventsEnabled || rabbitPub == nil {
		return nil
	}
	return rabbitPub
}

// Services builds the user and note services over the given repositories.
// With events on, indexing is left to the note event consumer.
func Services(users repo.UserRepository, notes repo.NoteRepository) (*application.UserService, *application.NoteService) {
	ttl := defaultCacheTTL
	if cfg != nil {
		ttl = cfg.NoteCacheTTL
	}
	events := EventPublisher()
	index := NoteIndex()
	if events != nil {
		index = nil
	}
	userSvc := application.NewUserService(users, redisClient, ttl, logger)
	noteSvc := application.NewNoteService(notes, users, redisClient, ttl, logger, index, events)
	return userSvc, noteSvc
}
