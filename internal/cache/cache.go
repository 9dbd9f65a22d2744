package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL is how long an aggregated result stays fresh.
const DefaultTTL = 30 * time.Minute

// ErrNotFound is returned by a Store when key holds no live value.
var ErrNotFound = errors.New("cache entry not found")

// Store is a byte-oriented key/value backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// envelope is the stored form of every entry. Timestamp is Unix milliseconds.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Cache stores JSON values in a Store with a freshness window. Every backend
// failure degrades to a miss so callers fall through to the providers.
type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	log   *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New constructs a Cache over store.
func New(store Store, log *zap.Logger, opts ...Option) *Cache {
	c := &Cache{store: store, ttl: DefaultTTL, now: time.Now, log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get decodes the live value under key into dst and reports whether it did.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Warn("corrupt cache entry", zap.String("key", key), zap.Error(err))
		return false
	}

	age := c.now().Sub(time.UnixMilli(env.Timestamp))
	if age >= c.ttl {
		return false
	}

	if err := json.Unmarshal(env.Data, dst); err != nil {
		c.log.Warn("corrupt cache payload", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Set stores value under key stamped with the current time.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	b, err := json.Marshal(envelope{Data: data, Timestamp: c.now().UnixMilli()})
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.store.Set(ctx, key, b, c.ttl); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// ClearAll removes every entry written through any Cache.
func (c *Cache) ClearAll(ctx context.Context) error {
	return c.store.DeletePrefix(ctx, Prefix)
}
