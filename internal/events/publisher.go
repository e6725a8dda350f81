package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/resilience"
)

const publishTimeout = 5 * time.Second

// Writer is the producing side of the broker. *kafka.Producer satisfies it.
type Writer interface {
	Publish(ctx context.Context, events ...kafka.Event) error
}

// Publisher forwards hits to the broker from a buffered queue so the search
// coordinator never waits on the network. Hits are dropped when the queue is
// full or the broker's circuit is open.
type Publisher struct {
	writer  Writer
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
	queue  chan HitEvent
	done   chan struct{}
}

func NewPublisher(w Writer, bufferSize int, m *metrics.Metrics) *Publisher {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Publisher{
		writer: w,
		breaker: resilience.NewCircuitBreaker("hit-publisher", resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			ResetTimeout:     10 * time.Second,
		}),
		metrics: m,
		logger:  slog.Default().With("component", "hit-publisher"),
		queue:   make(chan HitEvent, bufferSize),
		done:    make(chan struct{}),
	}
}

// Start launches the forwarding loop. It runs until Close, so hits queued
// before a cancellation are still delivered.
func (p *Publisher) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer close(p.done)
		for e := range p.queue {
			p.publish(ctx, e)
		}
	}()
	p.logger.Info("hit publisher started", "buffer_size", cap(p.queue))
}

// Track queues e without blocking.
func (p *Publisher) Track(e HitEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.count("dropped")
		return
	}
	select {
	case p.queue <- e:
	default:
		p.count("dropped")
		p.logger.Warn("hit dropped, buffer full", "word", e.Word)
	}
}

// Close stops accepting hits and waits for the queue to drain.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	<-p.done
}

func (p *Publisher) publish(ctx context.Context, e HitEvent) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	err := p.breaker.Execute(func() error {
		return p.writer.Publish(ctx, kafka.Event{Key: e.Word, Value: e})
	})
	switch {
	case err == nil:
		p.count("ok")
	case errors.Is(err, resilience.ErrCircuitOpen):
		p.count("dropped")
		p.logger.Debug("hit dropped, broker circuit open", "word", e.Word)
	default:
		p.count("error")
		p.logger.Error("publishing hit failed", "word", e.Word, "error", err)
	}
}

func (p *Publisher) count(status string) {
	if p.metrics != nil {
		p.metrics.EdgesPublishedTotal.WithLabelValues(status).Inc()
	}
}
