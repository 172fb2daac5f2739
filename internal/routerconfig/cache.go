// Package routerconfig stores router key-value settings and caches the fallback landing URL.
package routerconfig

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/musicdeclares/amplify/internal/models"
)

const (
	// DefaultFallbackURL is served whenever the stored setting cannot be read.
	DefaultFallbackURL = "https://musicdeclares.net/amplify"
	// DefaultTTL is how long a fetched fallback URL is reused.
	DefaultTTL = 60 * time.Second
)

// Store reads a router_config value by key.
type Store interface {
	GetValue(ctx context.Context, key string) (string, error)
}

// FallbackCache holds the last fetched fallback URL for at most ttl.
// Concurrent misses may each refetch; the lock only guards the fields.
type FallbackCache struct {
	store    Store
	ttl      time.Duration
	fallback string
	now      func() time.Time
	logger   *zap.Logger

	mu        sync.RWMutex
	value     string
	fetchedAt time.Time
}

// NewFallbackCache creates a cache over store. Zero ttl and empty fallback take the defaults.
func NewFallbackCache(store Store, ttl time.Duration, fallback string, logger *zap.Logger) *FallbackCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if fallback == "" {
		fallback = DefaultFallbackURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackCache{store: store, ttl: ttl, fallback: fallback, now: time.Now, logger: logger}
}

// FallbackURL returns the cached value if fresh, otherwise refetches. It never fails.
func (c *FallbackCache) FallbackURL(ctx context.Context) string {
	now := c.now()
	c.mu.RLock()
	value, fetchedAt := c.value, c.fetchedAt
	c.mu.RUnlock()
	if value != "" && now.Sub(fetchedAt) < c.ttl {
		return value
	}

	v, err := c.store.GetValue(ctx, models.ConfigKeyFallbackURL)
	if err != nil {
		c.logger.Warn("fallback url lookup failed, using default", zap.Error(err))
		return c.fallback
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return c.fallback
	}

	c.mu.Lock()
	c.value, c.fetchedAt = v, now
	c.mu.Unlock()
	return v
}
