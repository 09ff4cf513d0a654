// Package cache holds assembled pages between revalidations.
//
// A fresh entry is served as is. An expired entry is served stale while a
// single background rebuild runs; a missing entry is built inline, and
// concurrent misses for the same key share one build.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/singleflight"

	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/metrics"
)

// Config controls entry retention and background refreshes.
type Config struct {
	// JanitorInterval is how often expired entries are swept.
	JanitorInterval time.Duration `yaml:"janitor_interval"`
	// StaleFor is how long an expired entry may still be served while it
	// is being rebuilt. After that it is dropped by the janitor.
	StaleFor time.Duration `yaml:"stale_for"`
	// RefreshTimeout bounds every rebuild, inline or in the background.
	RefreshTimeout time.Duration `yaml:"refresh_timeout"`
}

func DefaultConfig() Config {
	return Config{
		JanitorInterval: time.Minute,
		StaleFor:        24 * time.Hour,
		RefreshTimeout:  30 * time.Second,
	}
}

// Loader builds the value for a key. A ttl <= 0 means the value must not be
// kept; any cached entry for the key is dropped.
type Loader[V any] func(ctx context.Context) (value V, ttl time.Duration, err error)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a revalidating key/value cache safe for concurrent use.
type Cache[V any] struct {
	cfg      Config
	logger   logging.Logger
	recorder metrics.Recorder
	now      func() time.Time

	mu    sync.RWMutex
	items map[string]entry[V]
	group singleflight.Group

	sched gocron.Scheduler
}

// New returns an empty cache. The janitor is not running until Start.
func New[V any](cfg Config, logger logging.Logger, recorder metrics.Recorder) *Cache[V] {
	def := DefaultConfig()
	if cfg.JanitorInterval <= 0 {
		cfg.JanitorInterval = def.JanitorInterval
	}
	if cfg.StaleFor <= 0 {
		cfg.StaleFor = def.StaleFor
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = def.RefreshTimeout
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Cache[V]{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
		items:    make(map[string]entry[V]),
	}
}

// Key joins a site slug and page identifiers into a cache key. Keys of one
// site share the prefix used by PurgeSite.
func Key(site string, parts ...string) string {
	return site + "/" + strings.Join(parts, "/")
}

// Get returns the value for key, building it with load when absent. Stale
// values are returned immediately and refreshed in the background.
func (c *Cache[V]) Get(ctx context.Context, key string, load Loader[V]) (V, error) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if ok {
		if c.now().Before(e.expiresAt) {
			c.recorder.IncCacheLookup(metrics.CacheHit)
			return e.value, nil
		}
		c.recorder.IncCacheLookup(metrics.CacheStale)
		c.refresh(key, load)
		return e.value, nil
	}

	c.recorder.IncCacheLookup(metrics.CacheMiss)
	// The shared build outlives any one waiter; it is bounded by
	// RefreshTimeout instead of the caller's context.
	ch := c.group.DoChan(key, func() (any, error) {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.RefreshTimeout)
		defer cancel()
		return c.build(bctx, key, load)
	})
	var zero V
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		val, _ := res.Val.(V)
		return val, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// refresh rebuilds key in the background unless a build is already running.
func (c *Cache[V]) refresh(key string, load Loader[V]) {
	ch := c.group.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.RefreshTimeout)
		defer cancel()
		return c.build(ctx, key, load)
	})
	go func() {
		res := <-ch
		if res.Err != nil {
			c.logger.Warn("background refresh failed",
				logging.Field{Key: "key", Value: key},
				logging.Field{Key: "error", Value: res.Err.Error()})
		}
	}()
}

func (c *Cache[V]) build(ctx context.Context, key string, load Loader[V]) (any, error) {
	v, ttl, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.mu.Lock()
	if ttl > 0 {
		c.items[key] = entry[V]{value: v, expiresAt: c.now().Add(ttl)}
	} else {
		delete(c.items, key)
	}
	c.mu.Unlock()
	return v, nil
}

// Set stores v under key for ttl.
func (c *Cache[V]) Set(key string, v V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry[V]{value: v, expiresAt: c.now().Add(ttl)}
}

// Peek returns the cached value for key without building or refreshing it.
func (c *Cache[V]) Peek(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	return e.value, ok
}

// Delete drops key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// PurgeSite drops every entry of a site and returns how many were removed.
func (c *Cache[V]) PurgeSite(site string) int {
	prefix := site + "/"
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// Len reports the number of entries, fresh or stale.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Sweep drops entries that expired more than StaleFor ago.
func (c *Cache[V]) Sweep() int {
	cutoff := c.now().Add(-c.cfg.StaleFor)
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.items {
		if e.expiresAt.Before(cutoff) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// Start schedules the janitor.
func (c *Cache[V]) Start() error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(c.cfg.JanitorInterval),
		gocron.NewTask(func() {
			if n := c.Sweep(); n > 0 {
				c.logger.Debug("cache sweep", logging.Field{Key: "removed", Value: n})
			}
		}),
		gocron.WithName("cache-janitor"),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to create janitor job: %w", err)
	}
	s.Start()
	c.sched = s
	return nil
}

// Stop shuts the janitor down.
func (c *Cache[V]) Stop() error {
	if c.sched == nil {
		return nil
	}
	err := c.sched.Shutdown()
	c.sched = nil
	return err
}
