package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rate-history-service/internal/domain/model"
	"rate-history-service/pkg/logger"
)

// RedisCache shares fetched snapshots across instances. Entries expire via
// Redis TTL, so ClearExpired is a no-op here.
type RedisCache struct {
	client   *redis.Client
	cacheTTL time.Duration
	log      *logger.Logger
}

func NewRedisCache(addr string, cacheTTL time.Duration, log *logger.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client:   client,
		cacheTTL: cacheTTL,
		log:      log,
	}, nil
}

func redisKey(base model.Currency, date model.DateKey) string {
	return fmt.Sprintf("snapshot:%s:%s", base.Normalize(), date)
}

func (c *RedisCache) Get(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, bool) {
	key := redisKey(base, date)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.log.Debug("Cache miss", "key", key)
		return nil, false
	}
	if err != nil {
		c.log.Error("Cache read failed", "error", err, "key", key)
		return nil, false
	}

	var snapshot model.RateSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		c.log.Error("Failed to decode cached snapshot", "error", err, "key", key)
		return nil, false
	}

	c.log.Debug("Cache hit", "key", key)
	return &snapshot, true
}

func (c *RedisCache) Set(ctx context.Context, snapshot *model.RateSnapshot) error {
	key := redisKey(snapshot.BaseCurrency, snapshot.Date)

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}

	c.log.Debug("Cache set", "key", key)
	return nil
}

func (c *RedisCache) ClearExpired(ctx context.Context) error {
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
