package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/port"
)

// Compile-time interface check.
var _ port.EvaluationCache = (*RedisEvaluationCache)(nil)

// Store is the subset of *goredis.Client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
}

// RedisEvaluationCache keeps serialized evaluation views under prefix+id
// for a fixed TTL. Evaluations never change once written, so entries are
// never invalidated.
type RedisEvaluationCache struct {
	store  Store
	prefix string
	ttl    time.Duration
}

// NewRedisEvaluationCache creates a cache. A non-positive ttl stores
// entries without expiry.
func NewRedisEvaluationCache(store Store, prefix string, ttl time.Duration) *RedisEvaluationCache {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisEvaluationCache{store: store, prefix: prefix, ttl: ttl}
}

// Get returns port.ErrCacheMiss for unknown IDs.
func (c *RedisEvaluationCache) Get(ctx context.Context, id string) ([]byte, error) {
	b, err := c.store.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, port.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", id, err)
	}
	return b, nil
}

func (c *RedisEvaluationCache) Set(ctx context.Context, id string, payload []byte) error {
	if err := c.store.Set(ctx, c.key(id), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", id, err)
	}
	return nil
}

func (c *RedisEvaluationCache) key(id string) string {
	return c.prefix + id
}
