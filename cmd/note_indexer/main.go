package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/oksasatya/go-ddd-notes/config"
	"github.com/oksasatya/go-ddd-notes/internal/application"
	pginfra "github.com/oksasatya/go-ddd-notes/internal/infrastructure/postgres"
	"github.com/oksasatya/go-ddd-notes/internal/infrastructure/search"
	"github.com/oksasatya/go-ddd-notes/pkg/helpers"
)

// note_indexer consumes note lifecycle events and keeps the search index in step.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-indexer", cfg.Env)

	if !cfg.EventsEnabled || !cfg.SearchEnabled {
		logger.Info("EVENTS_ENABLED and SEARCH_ENABLED must both be true; note indexer disabled")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQNoteEventsQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
		AppName:     cfg.AppName + "-indexer",
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
		MaxConnLife: cfg.DBMaxConnLife,
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	es, err := search.NewClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		log.Fatalf("failed to init elasticsearch client: %v", err)
	}

	index := search.NewNoteIndex(es, cfg.ESNotesIndex)
	if err := index.EnsureIndex(ctx); err != nil {
		log.Fatalf("failed to create notes index: %v", err)
	}

	handler := application.NewNoteEventHandler(pginfra.NewNoteRepository(pool), index, logger)

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// Prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	if _, err := ch.QueueDeclare(cfg.RabbitMQNoteEventsQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQNoteEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			var evt application.NoteEvent
			if err := json.Unmarshal(msg.Body, &evt); err != nil {
				logger.WithError(err).Warn("bad message")
				_ = msg.Nack(false, false)
				continue
			}

			c, cancelMsg := context.WithTimeout(ctx, 15*time.Second)
			err := handler.Handle(c, evt)
			cancelMsg()
			switch {
			case err == nil:
				_ = msg.Ack(false)
			case errors.Is(err, application.ErrUnknownEvent):
				_ = msg.Nack(false, false)
			default:
				_ = msg.Nack(false, true)
			}
		}
		close(done)
	}()

	logger.Infof("note indexer listening on queue=%s", cfg.RabbitMQNoteEventsQueue)
	<-stop
	logger.Info("shutting down...")
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
