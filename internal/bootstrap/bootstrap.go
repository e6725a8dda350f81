// Package bootstrap turns configuration into the pieces every command needs:
// the decomposition policy, the snapshot backend and a loaded result store.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/decompose"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/store"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/store/badgerstore"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/store/segment"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/config"
)

const (
	BackendSegment = "segment"
	BackendBadger  = "badger"
)

// Policy builds the decomposition policy described by cfg.
func Policy(cfg *config.Config) (decompose.Policy, error) {
	return decompose.New(cfg.Search.Variant, decompose.Params{
		MinTestWordLen:    cfg.Search.MinTestWordLen,
		MinClippedWordLen: cfg.Search.MinClippedWordLen,
		InternalOnly:      cfg.Search.InternalOnly,
		MaxDepth:          cfg.Search.MaxDepth,
		MemoLimit:         cfg.Driver.MemoLimit,
	}, decompose.GraphOptions{
		Subtractions: cfg.Search.Subtractions,
		Replacements: cfg.Search.Replacements,
	})
}

// Snapshotter is a store.Snapshotter that holds resources until closed.
type Snapshotter interface {
	store.Snapshotter
	io.Closer
}

type segmentCloser struct {
	*segment.Snapshotter
}

func (segmentCloser) Close() error { return nil }

// OpenSnapshotter opens the configured backend for signature, creating the
// data directory if needed.
func OpenSnapshotter(cfg config.StoreConfig, signature string) (Snapshotter, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	switch cfg.Backend {
	case BackendSegment, "":
		return segmentCloser{segment.New(cfg.DataDir, signature)}, nil
	case BackendBadger:
		return badgerstore.Open(cfg.DataDir, signature)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// LoadStore returns a store for signature filled from snap. A missing
// snapshot yields an empty store unless required is set.
func LoadStore(ctx context.Context, snap store.Snapshotter, signature string, required bool) (*store.Store, error) {
	st := store.New(signature)
	err := st.Load(ctx, snap)
	switch {
	case err == nil:
		slog.Default().With("component", "bootstrap").Info("results loaded",
			"snapshot", store.SnapshotName(signature),
			"entries", st.Len(),
		)
		return st, nil
	case errors.Is(err, store.ErrNoSnapshot) && !required:
		slog.Default().With("component", "bootstrap").Info("no snapshot, starting fresh",
			"snapshot", store.SnapshotName(signature),
		)
		return st, nil
	default:
		return nil, err
	}
}
