// This implementation is based on and modified from https://github.com/fanjindong/go-cache
package cache

import (
	"fmt"
	"maps"
	"sync"

	"github.com/cespare/xxhash/v2"
)

func hashKey[K comparable](key K) uint64 {
	switch k := any(key).(type) {
	case string:
		return xxhash.Sum64String(k)
	default:
		return xxhash.Sum64String(fmt.Sprintf("%v", key))
	}
}

type Cache[K comparable, V any] interface {
	Set(k K, v V)
	Get(k K) (V, bool)
	GetAll() map[K]V
	Del(keys ...K) int
	Exists(keys ...K) bool
	Len() int
	Clear()
}

// New returns a sharded cache. shards is rounded up to a power of two.
func New[K comparable, V any](shards int) Cache[K, V] {
	if shards <= 0 {
		shards = 1024
	}
	n := 1
	for n < shards {
		n <<= 1
	}

	c := &cache[K, V]{
		shards:    make([]*shard[K, V], n),
		shardMask: uint64(n - 1),
	}
	for i := range c.shards {
		c.shards[i] = &shard[K, V]{m: map[K]V{}}
	}

	return c
}

type cache[K comparable, V any] struct {
	shards    []*shard[K, V]
	shardMask uint64
}

// shard is one lock domain of the cache.
type shard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func (c *cache[K, V]) Set(k K, v V) {
	s := c.shardFor(k)
	s.mu.Lock()
	s.m[k] = v
	s.mu.Unlock()
}

func (c *cache[K, V]) Get(k K) (V, bool) {
	s := c.shardFor(k)
	s.mu.RLock()
	v, ok := s.m[k]
	s.mu.RUnlock()
	return v, ok
}

func (c *cache[K, V]) GetAll() map[K]V {
	result := make(map[K]V)
	for _, s := range c.shards {
		s.mu.RLock()
		maps.Copy(result, s.m)
		s.mu.RUnlock()
	}
	return result
}

func (c *cache[K, V]) Del(ks ...K) int {
	var count int
	for _, k := range ks {
		s := c.shardFor(k)
		s.mu.Lock()
		if _, ok := s.m[k]; ok {
			delete(s.m, k)
			count++
		}
		s.mu.Unlock()
	}
	return count
}

func (c *cache[K, V]) Exists(ks ...K) bool {
	for _, k := range ks {
		if _, found := c.Get(k); !found {
			return false
		}
	}
	return true
}

func (c *cache[K, V]) Len() int {
	var count int
	for _, s := range c.shards {
		s.mu.RLock()
		count += len(s.m)
		s.mu.RUnlock()
	}
	return count
}

func (c *cache[K, V]) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		clear(s.m)
		s.mu.Unlock()
	}
}

func (c *cache[K, V]) shardFor(k K) *shard[K, V] {
	return c.shards[hashKey(k)&c.shardMask]
}
