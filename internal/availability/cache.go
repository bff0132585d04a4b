package availability

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gloriamundo/gloriamundo/internal/utils/cache"
	"github.com/redis/go-redis/v9"
)

// Cache stores the active model id list under a key with a time to live.
type Cache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Put(ctx context.Context, key string, ids []string, ttl time.Duration) error
}

type MemoryCache struct {
	c *cache.Expiring[string, []string]
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{c: cache.NewExpiring[string, []string](4)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]string, bool, error) {
	ids, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]string(nil), ids...), true, nil
}

func (m *MemoryCache) Put(_ context.Context, key string, ids []string, ttl time.Duration) error {
	m.c.Put(key, append([]string(nil), ids...), ttl)
	return nil
}

// RedisCache shares the active list between relay instances.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, false, err
	}
	return ids, true, nil
}

func (r *RedisCache) Put(ctx context.Context, key string, ids []string, ttl time.Duration) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, r.prefix+key, data, ttl).Err()
}
