package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"SmartMoney/internal/domain/models"
	pkgcache "SmartMoney/pkg/cache"
)

const (
	keyPrefix  = "screen"
	lockPrefix = "lock"
)

// DefaultTTL bounds how long a finished run is served without recomputation.
const DefaultTTL = time.Hour

// DefaultLockTTL releases a run lock whose holder died without unlocking.
const DefaultLockTTL = 30 * time.Minute

const lockPoll = 250 * time.Millisecond

// ResultCache keeps finished screening runs keyed by universe, period and
// interval on top of any pkg/cache store.
type ResultCache struct {
	store    pkgcache.Service
	ttl      time.Duration
	lockTTL  time.Duration
	lockPoll time.Duration
	now      func() time.Time
}

type Option func(*ResultCache)

// WithTTL sets the time-to-live of cached runs.
func WithTTL(ttl time.Duration) Option {
	return func(c *ResultCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLockTTL sets how long a run lock survives a holder that never unlocks.
func WithLockTTL(ttl time.Duration) Option {
	return func(c *ResultCache) {
		if ttl > 0 {
			c.lockTTL = ttl
		}
	}
}

// WithClock overrides the clock used to judge staleness.
func WithClock(now func() time.Time) Option {
	return func(c *ResultCache) { c.now = now }
}

func NewResultCache(store pkgcache.Service, opts ...Option) *ResultCache {
	c := &ResultCache{store: store, ttl: DefaultTTL, lockTTL: DefaultLockTTL, lockPoll: lockPoll, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key hashes the sorted, upper-cased universe so that the same set of
// tickers in any order maps to one entry.
func (c *ResultCache) Key(universe []string, period, interval string) string {
	syms := make([]string, 0, len(universe))
	for _, s := range universe {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			syms = append(syms, s)
		}
	}
	sort.Strings(syms)
	return pkgcache.GenerateKeyWithParams(keyPrefix, pkgcache.HashKey(strings.Join(syms, ","), 16), period, interval)
}

// Get returns the cached run or pkgcache.ErrCacheMiss when absent or older
// than the TTL.
func (c *ResultCache) Get(ctx context.Context, key string) (*models.ScreeningResult, error) {
	var res models.ScreeningResult
	if err := c.store.Get(ctx, key, &res); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, err
		}
		return nil, fmt.Errorf("result cache get %s: %w", key, err)
	}
	if c.now().Sub(res.ComputedAt) >= c.ttl {
		_ = c.store.Delete(ctx, key)
		return nil, pkgcache.ErrCacheMiss
	}
	return &res, nil
}

func (c *ResultCache) Put(ctx context.Context, key string, res *models.ScreeningResult) error {
	if res == nil {
		return errors.New("result cache: nil result")
	}
	if err := c.store.Set(ctx, key, res, c.ttl); err != nil {
		return fmt.Errorf("result cache put %s: %w", key, err)
	}
	return nil
}

func (c *ResultCache) Invalidate(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// InvalidateAll drops every cached run.
func (c *ResultCache) InvalidateAll(ctx context.Context) error {
	return c.store.DeleteByPattern(ctx, pkgcache.BuildPattern(keyPrefix+":"))
}

// Lock takes the run lock for key, polling until it is free or ctx is done.
// With a Redis-backed store the lock is shared by every replica. The
// returned func releases it.
func (c *ResultCache) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := pkgcache.GenerateKeyWithParams(lockPrefix, key)
	ticker := time.NewTicker(c.lockPoll)
	defer ticker.Stop()
	for {
		ok, err := c.store.TryLock(ctx, lockKey, c.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("result cache lock %s: %w", key, err)
		}
		if ok {
			return func() { _ = c.store.Unlock(context.WithoutCancel(ctx), lockKey) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
