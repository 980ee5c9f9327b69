package weather

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned by a Cache when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores serialized readings with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return val, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// CachedSource serves recent readings for an airport from a cache before calling the wrapped source.
// Cache failures are logged and never fail the fetch.
type CachedSource struct {
	source Source
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedSource(source Source, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{source: source, cache: cache, ttl: ttl, logger: logger}
}

func (c *CachedSource) Name() string { return c.source.Name() }

func (c *CachedSource) key(airport string) string {
	return "flightwx:weather:" + c.source.Name() + ":" + strings.ToUpper(airport)
}

func (c *CachedSource) FetchCurrentWeather(ctx context.Context, airport string) (*Reading, error) {
	key := c.key(airport)

	if data, err := c.cache.Get(ctx, key); err == nil {
		var reading Reading
		if err := json.Unmarshal(data, &reading); err == nil {
			return &reading, nil
		}
		c.logger.Warn("discarding undecodable cached reading", "key", key)
	} else if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("weather cache read failed", "key", key, "error", err)
	}

	reading, err := c.source.FetchCurrentWeather(ctx, airport)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(reading); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("weather cache write failed", "key", key, "error", err)
		}
	}

	return reading, nil
}
