// Command edgesink consumes decomposition hits from Kafka and records their
// edges in PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/events"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := events.NewEdgeRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		slog.Error("failed to prepare schema", "error", err)
		os.Exit(1)
	}

	topic := cfg.Kafka.Topics.DecompositionHits
	consumer := kafka.NewConsumer(cfg.Kafka, topic, events.NewSink(repo).Handle)
	defer consumer.Close()

	slog.Info("edge sink started", "topic", topic, "group", cfg.Kafka.ConsumerGroup)
	if err := consumer.Run(ctx); err != nil {
		slog.Error("consumer error", "error", err)
		os.Exit(1)
	}
	slog.Info("edge sink stopped")
}
