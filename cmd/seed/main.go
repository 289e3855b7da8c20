package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-ddd-notes/config"
	"github.com/oksasatya/go-ddd-notes/internal/application"
	"github.com/oksasatya/go-ddd-notes/internal/container"
	"github.com/oksasatya/go-ddd-notes/internal/factory"
	pginfra "github.com/oksasatya/go-ddd-notes/internal/infrastructure/postgres"
	"github.com/oksasatya/go-ddd-notes/internal/infrastructure/search"
	"github.com/oksasatya/go-ddd-notes/pkg/helpers"
)

func main() {
	inMemory := flag.Bool("memory", false, "use in-memory repositories instead of postgres")
	email := flag.String("email", "demo@example.com", "seed user email")
	password := flag.String("password", factory.DefaultPassword, "seed user password")
	name := flag.String("name", factory.DefaultName, "seed user name")
	flag.Parse()

	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	container.SetConfig(cfg)
	container.SetLogger(logger)

	ctx := context.Background()

	if !*inMemory {
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
			AppName:     cfg.AppName + "-seed",
			MaxConns:    cfg.DBMaxConns,
			MinConns:    cfg.DBMinConns,
			MaxConnLife: cfg.DBMaxConnLife,
		})
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		container.SetPGPool(pool)
	}

	// Redis is optional for seeding; skip the cache when it is unreachable
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Warn("redis unavailable, seeding without cache")
		_ = rdb.Close()
	} else {
		container.SetRedis(rdb)
		defer func() { _ = rdb.Close() }()
	}
	cancel()

	if cfg.SearchEnabled {
		es, err := search.NewClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			log.Fatalf("failed to init elasticsearch client: %v", err)
		}
		if err := search.NewNoteIndex(es, cfg.ESNotesIndex).EnsureIndex(ctx); err != nil {
			log.Fatalf("failed to create notes index: %v", err)
		}
		container.SetES(es)
	}
	if cfg.EventsEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQNoteEventsQueue)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer pub.Close()
		container.SetRabbitPub(pub)
	}

	users, notes := container.Repositories()
	userSvc, noteSvc := container.Services(users, notes)

	u, err := userSvc.Register(ctx, application.RegisterUserInput{Email: *email, Password: *password, Name: *name})
	if errors.Is(err, application.ErrEmailTaken) {
		u, err = users.GetByEmail(ctx, *email)
	}
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s name=%s\n", u.ID, u.Email, u.Name)

	draft := factory.NewNote(u.ID)
	n, err := noteSvc.Create(ctx, application.CreateNoteInput{Title: draft.Title, Content: draft.Content, UserID: draft.UserID})
	if err != nil {
		log.Fatalf("failed to seed note: %v", err)
	}
	owner, err := noteSvc.Owner(ctx, n)
	if err != nil {
		log.Fatalf("failed to resolve note owner: %v", err)
	}
	fmt.Printf("seeded note: id=%s title=%q owner=%s valid=%v\n", n.ID, n.Title, owner.Email, noteSvc.Validate(n).Valid())
}
