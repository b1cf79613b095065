package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/editorial-cms/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache stores JSON-encoded values. Misses and cache failures look the same to callers.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Del(ctx context.Context, keys ...string)
	DelPattern(ctx context.Context, pattern string)
}

// Redis is a Cache backed by a redis server
type Redis struct {
	client *redis.Client
	log    zerolog.Logger
}

var _ Cache = (*Redis)(nil)

// New connects to redis and verifies the connection
func New(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 3,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewWithClient(client, log), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client, log zerolog.Logger) *Redis {
	return &Redis{
		client: client,
		log:    log.With().Str("component", "cache").Logger(),
	}
}

// Get retrieves JSON-encoded value from cache
func (r *Redis) Get(ctx context.Context, key string, dest interface{}) bool {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return false
	}
	return json.Unmarshal(val, dest) == nil
}

// Set stores JSON-encoded value in cache
func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// Del removes keys
func (r *Redis) Del(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.log.Warn().Err(err).Strs("keys", keys).Msg("Cache delete failed")
	}
}

// DelPattern deletes keys matching a pattern in batches
func (r *Redis) DelPattern(ctx context.Context, pattern string) {
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	const batchSize = 100

	pipe := r.client.Pipeline()
	count := 0

	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		count++

		if count >= batchSize {
			r.execDel(ctx, pipe, pattern, count)
			count = 0
		}
	}
	if err := iter.Err(); err != nil {
		r.log.Warn().Err(err).Str("pattern", pattern).Msg("Cache scan failed")
	}

	if count > 0 {
		r.execDel(ctx, pipe, pattern, count)
	}
}

func (r *Redis) execDel(ctx context.Context, pipe redis.Pipeliner, pattern string, count int) {
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Warn().Err(err).Str("pattern", pattern).Int("keys", count).Msg("Cache delete failed")
	}
}

// Ping checks the connection
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client
func (r *Redis) Close() error {
	return r.client.Close()
}
