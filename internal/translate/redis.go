package translate

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisTextPrefix     = "lingolens:tr:"
	redisFailurePrefix  = "lingolens:fail:"
	redisCooldownPrefix = "lingolens:cool:"

	redisOpTimeout = 2 * time.Second
)

// RedisCache shares translations and cool-down state across processes.
// TTL and cool-down windows ride on native key expiry; capacity is left
// to the server's maxmemory policy.
type RedisCache struct {
	client   *redis.Client
	ttl      time.Duration
	cooldown time.Duration
	log      *slog.Logger

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewRedisCache connects to addr and verifies the server is reachable.
func NewRedisCache(addr string, ttl, cooldown time.Duration, log *slog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisCache{client: client, ttl: ttl, cooldown: cooldown, log: log}, nil
}

func (c *RedisCache) Lookup(key Key) (string, bool) {
	ctx, cancel := c.opContext()
	defer cancel()

	text, err := c.client.Get(ctx, redisTextPrefix+key.String()).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("redis lookup failed", "error", err)
		}
		c.misses.Add(1)
		return "", false
	}
	c.hits.Add(1)
	return text, true
}

func (c *RedisCache) Insert(key Key, text string) {
	ctx, cancel := c.opContext()
	defer cancel()

	pipe := c.client.Pipeline()
	pipe.Set(ctx, redisTextPrefix+key.String(), text, c.ttl)
	pipe.Del(ctx, redisFailurePrefix+key.String(), redisCooldownPrefix+key.String())
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("redis insert failed", "error", err)
	}
}

func (c *RedisCache) RecordFailure(key Key) int {
	ctx, cancel := c.opContext()
	defer cancel()

	count, err := c.client.Incr(ctx, redisFailurePrefix+key.String()).Result()
	if err != nil {
		c.log.Warn("redis failure count failed", "error", err)
		return 0
	}
	// Failure counters should not outlive the cache entry they describe.
	c.client.Expire(ctx, redisFailurePrefix+key.String(), c.ttl)
	return int(count)
}

func (c *RedisCache) StartCooldown(key Key) {
	ctx, cancel := c.opContext()
	defer cancel()

	if err := c.client.Set(ctx, redisCooldownPrefix+key.String(), "1", c.cooldown).Err(); err != nil {
		c.log.Warn("redis cooldown set failed", "error", err)
	}
}

func (c *RedisCache) InCooldown(key Key) bool {
	ctx, cancel := c.opContext()
	defer cancel()

	n, err := c.client.Exists(ctx, redisCooldownPrefix+key.String()).Result()
	if err != nil {
		c.log.Warn("redis cooldown check failed", "error", err)
		return false
	}
	return n > 0
}

func (c *RedisCache) Stats() Stats {
	ctx, cancel := c.opContext()
	defer cancel()

	stats := Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
	if size, err := c.client.DBSize(ctx).Result(); err == nil {
		stats.Entries = int(size)
	}
	return stats
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), redisOpTimeout)
}
