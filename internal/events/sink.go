package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/resilience"
)

// EdgeWriter persists the edges of a hit. *EdgeRepository satisfies it.
type EdgeWriter interface {
	SaveHit(ctx context.Context, e HitEvent) error
}

type Sink struct {
	repo   EdgeWriter
	retry  resilience.RetryConfig
	logger *slog.Logger
}

func NewSink(repo EdgeWriter) *Sink {
	return &Sink{
		repo: repo,
		retry: resilience.RetryConfig{
			MaxAttempts:    5,
			InitialDelay:   200 * time.Millisecond,
			MaxDelay:       5 * time.Second,
			JitterFraction: 0.1,
			Retryable:      func(err error) bool { return !IsPermanent(err) },
		},
		logger: slog.Default().With("component", "edge-sink"),
	}
}

// Handle is a kafka.MessageHandler. Undecodable messages are logged and
// skipped so they are committed instead of blocking the partition.
func (s *Sink) Handle(ctx context.Context, key, value []byte) error {
	e, err := kafka.DecodeJSON[HitEvent](value)
	if err != nil {
		s.logger.Warn("skipping malformed hit", "key", string(key), "error", err)
		return nil
	}
	if e.Word == "" || e.Signature == "" {
		s.logger.Warn("skipping incomplete hit", "key", string(key))
		return nil
	}
	if err := resilience.Retry(ctx, "save hit", s.retry, func() error {
		return s.repo.SaveHit(ctx, e)
	}); err != nil {
		return err
	}
	s.logger.Debug("hit stored", "word", e.Word, "edges", len(e.Edges), "run_id", e.RunID)
	return nil
}
