package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/stakesim/pkg/cache"
	"github.com/amirasaad/stakesim/pkg/config"
	"github.com/redis/go-redis/v9"
)

// RedisPriceCache implements cache.PriceCache using Redis.
type RedisPriceCache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisPriceCache creates a cache from a redis URL and config section.
func NewRedisPriceCache(cfg *config.Redis, prefix string, logger *slog.Logger) (*RedisPriceCache, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, errors.New("redis price cache: url is required")
	}
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis price cache: invalid URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opt.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opt.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opt.WriteTimeout = cfg.WriteTimeout
	}
	return NewRedisPriceCacheWithOptions(opt, cfg.KeyPrefix+prefix, logger), nil
}

// NewRedisPriceCacheWithOptions creates a new RedisPriceCache from redis.Options.
func NewRedisPriceCacheWithOptions(
	opt *redis.Options,
	prefix string,
	logger *slog.Logger,
) *RedisPriceCache {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(opt)
	return &RedisPriceCache{client: client, prefix: prefix, logger: logger}
}

// Ping checks the connection.
func (r *RedisPriceCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client.
func (r *RedisPriceCache) Close() error {
	return r.client.Close()
}

func (r *RedisPriceCache) key(key string) string {
	return r.prefix + key
}

func (r *RedisPriceCache) Get(ctx context.Context, key string) (*cache.PriceSnapshot, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("Redis cache miss", "key", key)
		return nil, nil // cache miss
	}
	if err != nil {
		r.logger.Error("Redis cache get error", "key", key, "error", err)
		return nil, err
	}
	var snap cache.PriceSnapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		r.logger.Error("Redis cache unmarshal error", "key", key, "error", err)
		return nil, err
	}
	r.logger.Debug("Redis cache hit", "key", key, "coins", len(snap.Quotes))
	return &snap, nil
}

func (r *RedisPriceCache) Set(
	ctx context.Context,
	key string,
	snap *cache.PriceSnapshot,
	ttl time.Duration,
) error {
	data, err := json.Marshal(snap)
	if err != nil {
		r.logger.Error("Redis cache marshal error", "key", key, "error", err)
		return err
	}
	err = r.client.Set(ctx, r.key(key), data, ttl).Err()
	if err != nil {
		r.logger.Error("Redis cache set error", "key", key, "error", err)
		return err
	}
	r.logger.Debug("Redis cache set", "key", key, "coins", len(snap.Quotes), "ttl", ttl)
	return nil
}

func (r *RedisPriceCache) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, r.key(key)).Err()
	if err != nil {
		r.logger.Error("Redis cache delete error", "key", key, "error", err)
		return err
	}
	r.logger.Debug("Redis cache delete", "key", key)
	return nil
}

var _ cache.PriceCache = (*RedisPriceCache)(nil)
