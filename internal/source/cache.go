package source

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"sales-kpi/internal/storage"
)

// Cache holds the last fetched table for ttl. A store, when set, lets the
// table survive restarts and be shared between replicas.
type Cache struct {
	provider Provider
	ttl      time.Duration
	store    storage.Store
	logger   *slog.Logger
	now      func() time.Time

	fetches atomic.Int64

	mu   sync.Mutex
	snap *storage.Snapshot
}

func NewCache(provider Provider, ttl time.Duration, store storage.Store, logger *slog.Logger) *Cache {
	return &Cache{
		provider: provider,
		ttl:      ttl,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns the cached table, refreshing it first when it is stale or
// when useCache is false.
func (c *Cache) Get(ctx context.Context, useCache bool) (*storage.Snapshot, error) {
	if !useCache {
		return c.Refresh(ctx)
	}
	return c.RefreshIfStale(ctx)
}

// RefreshIfStale fetches only when nothing is cached, the cached table is at
// least ttl old, or it came from the fallback.
func (c *Cache) RefreshIfStale(ctx context.Context) (*storage.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fresh(c.snap) {
		return c.snap, nil
	}
	if c.snap == nil && c.store != nil {
		if snap := c.load(ctx); c.fresh(snap) {
			c.snap = snap
			return snap, nil
		}
	}
	return c.refresh(ctx)
}

// Refresh always fetches from the provider.
func (c *Cache) Refresh(ctx context.Context) (*storage.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refresh(ctx)
}

// Snapshot returns the cached table without fetching. It is nil before the
// first successful fetch.
func (c *Cache) Snapshot() *storage.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Fetches counts provider fetches, successful or not.
func (c *Cache) Fetches() int64 { return c.fetches.Load() }

func (c *Cache) Provider() Provider { return c.provider }

// fresh reports whether snap can be served without a fetch. Fallback data
// never is, so the next read retries the upstream.
func (c *Cache) fresh(snap *storage.Snapshot) bool {
	return snap != nil && !snap.FellBack && snap.Age(c.now()) < c.ttl
}

func (c *Cache) refresh(ctx context.Context) (*storage.Snapshot, error) {
	c.fetches.Add(1)
	start := time.Now()

	rows, err := c.provider.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	name, fellBack := origin(c.provider)
	snap := &storage.Snapshot{
		Source:    name,
		FellBack:  fellBack,
		FetchedAt: c.now(),
		Rows:      rows,
	}
	c.snap = snap

	c.logger.InfoContext(ctx, "source fetched",
		"source", name,
		"fell_back", fellBack,
		"rows", len(rows),
		"duration", time.Since(start))

	if c.store != nil && !fellBack {
		if err := c.store.Save(ctx, c.provider.Name(), snap); err != nil {
			c.logger.WarnContext(ctx, "failed to save snapshot", "error", err)
		}
	}
	return snap, nil
}

func (c *Cache) load(ctx context.Context) *storage.Snapshot {
	snap, err := c.store.Load(ctx, c.provider.Name())
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.WarnContext(ctx, "failed to load snapshot", "error", err)
		}
		return nil
	}
	c.logger.InfoContext(ctx, "loaded from cache", "source", snap.Source, "rows", len(snap.Rows))
	return snap
}
