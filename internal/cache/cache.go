// Package cache keeps encoded catalog list responses in Redis (cache-aside).
// With no Redis address configured every call goes straight to the loader.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"shop-service/pkg/config"
	"shop-service/pkg/logger"
	"shop-service/prometheus"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Keys of the cached list endpoints
const (
	KeyProducts      = "products:all"
	KeyCategories    = "categories:all"
	KeySubcategories = "subcategories:all"
)

// Cache wraps a Redis client with a key prefix and a TTL
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var current *Cache

// New creates a cache on top of an existing client
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// Initialize connects to Redis when an address is configured
func Initialize(cfg *config.RedisConfig, serviceName string) error {
	if cfg.Addr == "" {
		current = nil
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	current = New(client, serviceName+":", cfg.TTL)
	return nil
}

// Set replaces the active cache, nil disables caching
func Set(c *Cache) {
	current = c
}

// Remember returns the cached JSON for key, or runs load, encodes its result
// and stores it. Redis failures degrade to calling load.
func Remember(ctx context.Context, key string, load func() (interface{}, error)) ([]byte, error) {
	c := current
	if c == nil {
		return encode(load)
	}

	fullKey := c.prefix + key
	data, err := c.client.Get(ctx, fullKey).Bytes()
	switch {
	case err == nil:
		prometheus.RecordCache("hit")
		return data, nil
	case errors.Is(err, redis.Nil):
		prometheus.RecordCache("miss")
	default:
		prometheus.RecordCache("error")
		logger.GetLogger().Warn("Cache read failed", zap.String("key", fullKey), zap.Error(err))
	}

	data, err = encode(load)
	if err != nil {
		return nil, err
	}

	if err := c.client.Set(ctx, fullKey, data, c.ttl).Err(); err != nil {
		logger.GetLogger().Warn("Cache write failed", zap.String("key", fullKey), zap.Error(err))
	}
	return data, nil
}

// Invalidate drops the given keys
func Invalidate(ctx context.Context, keys ...string) {
	c := current
	if c == nil || len(keys) == 0 {
		return
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		logger.GetLogger().Warn("Cache invalidation failed", zap.Strings("keys", full), zap.Error(err))
	}
}

// Close releases the Redis client
func Close() error {
	if current == nil {
		return nil
	}
	return current.client.Close()
}

func encode(load func() (interface{}, error)) ([]byte, error) {
	v, err := load()
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
