package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/vector"
)

const redisKeyPrefix = "docqa:emb:"

// RedisCache shares embeddings between server instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache connects to addr, which is either a redis:// URL or host:port,
// and pings it.
func NewRedisCache(ctx context.Context, addr string, ttl time.Duration, logger *zap.Logger) (*RedisCache, error) {
	var opts *redis.Options
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}, nil
}

// Get returns the cached embedding, treating any redis error as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]float64, bool) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("redis cache get failed", zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}
	vec, err := vector.Decode(data)
	if err != nil {
		c.logger.Debug("redis cache entry unreadable", zap.Error(err))
		return nil, false
	}
	return vec, true
}

// Set stores the embedding with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []float64) {
	if err := c.client.Set(ctx, redisKeyPrefix+key, vector.Encode(value), c.ttl).Err(); err != nil {
		c.logger.Debug("redis cache set failed", zap.Error(err))
	}
}

// Close closes the redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
