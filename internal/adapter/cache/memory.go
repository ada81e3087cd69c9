package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rate-history-service/internal/domain/model"
	"rate-history-service/pkg/logger"
)

// MemoryCache keeps fetched snapshots in-process for the configured TTL.
// Unavailable snapshots are cached too: a hole in the published history is
// stable for past dates, and caching it avoids re-hitting the CDN on every
// rebuild of the same window.
type MemoryCache struct {
	cacheMap map[string]*model.RateSnapshot
	mutex    sync.RWMutex
	cacheTTL time.Duration
	log      *logger.Logger
}

func NewMemoryCache(cacheTTL time.Duration, log *logger.Logger) *MemoryCache {
	return &MemoryCache{
		cacheMap: make(map[string]*model.RateSnapshot),
		cacheTTL: cacheTTL,
		log:      log,
	}
}

func snapshotKey(base model.Currency, date model.DateKey) string {
	return fmt.Sprintf("%s-%s", base.Normalize(), date)
}

func (c *MemoryCache) Get(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	key := snapshotKey(base, date)
	snapshot, found := c.cacheMap[key]

	if found {
		if time.Since(snapshot.FetchedAt) > c.cacheTTL {
			c.log.Debug("Cache entry expired", "key", key)
			return nil, false
		}
		c.log.Debug("Cache hit", "key", key)
		return snapshot, true
	}

	c.log.Debug("Cache miss", "key", key)
	return nil, false
}

func (c *MemoryCache) Set(ctx context.Context, snapshot *model.RateSnapshot) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	key := snapshotKey(snapshot.BaseCurrency, snapshot.Date)
	c.cacheMap[key] = snapshot
	c.log.Debug("Cache set", "key", key)

	return nil
}

func (c *MemoryCache) ClearExpired(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	expiredKeys := make([]string, 0)

	for key, snapshot := range c.cacheMap {
		if now.Sub(snapshot.FetchedAt) > c.cacheTTL {
			expiredKeys = append(expiredKeys, key)
		}
	}

	for _, key := range expiredKeys {
		delete(c.cacheMap, key)
		c.log.Debug("Removed expired cache entry", "key", key)
	}

	if len(expiredKeys) > 0 {
		c.log.Info("Cleared expired cache entries", "count", len(expiredKeys))
	}
	return nil
}

func (c *MemoryCache) Close() error {
	return nil
}
