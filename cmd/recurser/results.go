package main

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/bootstrap"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/store"
)

// openResults loads the stored results of the configured policy. It fails
// when nothing has been stored yet.
func openResults(ctx context.Context) (*store.Store, error) {
	policy, err := bootstrap.Policy(cfg)
	if err != nil {
		return nil, err
	}
	snap, err := bootstrap.OpenSnapshotter(cfg.Store, policy.Signature())
	if err != nil {
		return nil, err
	}
	defer snap.Close()
	return bootstrap.LoadStore(ctx, snap, policy.Signature(), true)
}
