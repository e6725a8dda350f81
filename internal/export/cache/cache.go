// Package cache memoizes encoded query API responses in Redis. Concurrent
// misses for the same key collapse into one computation.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/metrics"
)

// Backend is the key/value store behind the cache. *redis.Client satisfies
// it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

type QueryCache struct {
	backend Backend
	ttl     time.Duration
	prefix  string
	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Metrics
	hits    atomic.Int64
	misses  atomic.Int64
}

// New returns a cache whose keys live under "rw:<namespace>:". The namespace
// should identify the loaded result snapshot so a new snapshot never serves
// stale answers.
func New(backend Backend, ttl time.Duration, namespace string, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		backend: backend,
		ttl:     ttl,
		prefix:  "rw:" + namespace + ":",
		logger:  slog.Default().With("component", "query-cache"),
		metrics: m,
	}
}

// Get returns the cached response for route and params.
func (c *QueryCache) Get(ctx context.Context, route string, params url.Values) ([]byte, bool) {
	key := c.buildKey(route, params)
	data, found, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
	}
	if err != nil || !found {
		c.miss()
		return nil, false
	}
	c.hit()
	c.logger.Debug("cache hit", "route", route, "key", key)
	return data, true
}

func (c *QueryCache) Set(ctx context.Context, route string, params url.Values, data []byte) {
	key := c.buildKey(route, params)
	if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute serves from the cache or runs compute once per key across
// concurrent callers. cached reports whether the response came from Redis.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	route string,
	params url.Values,
	compute func() ([]byte, error),
) (data []byte, cached bool, err error) {
	if data, ok := c.Get(ctx, route, params); ok {
		return data, true, nil
	}
	key := c.buildKey(route, params)
	val, err, _ := c.group.Do(key, func() (any, error) {
		data, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, route, params, data)
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]byte), false, nil
}

// Invalidate drops every key of this cache's namespace.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.backend.DeletePrefix(ctx, c.prefix)
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// buildKey hashes the route with its query parameters. url.Values encodes
// keys in sorted order, so parameter order never splits the cache.
func (c *QueryCache) buildKey(route string, params url.Values) string {
	hash := sha256.Sum256([]byte(route + "?" + params.Encode()))
	return fmt.Sprintf("%s%x", c.prefix, hash[:16])
}
