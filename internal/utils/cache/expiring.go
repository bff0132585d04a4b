package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	expireAt time.Time
}

// Expiring is a sharded cache whose entries carry their own time to live.
// Expired entries are dropped lazily on read.
type Expiring[K comparable, V any] struct {
	inner Cache[K, entry[V]]
	now   func() time.Time

	mu sync.Mutex // serializes writers
}

func NewExpiring[K comparable, V any](shards int) *Expiring[K, V] {
	return &Expiring[K, V]{inner: New[K, entry[V]](shards), now: time.Now}
}

// Put stores v under k. A non-positive ttl never expires.
func (e *Expiring[K, V]) Put(k K, v V, ttl time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inner.Set(k, entry[V]{value: v, expireAt: e.expiry(ttl)})
}

// GetOrPut returns the live value under k, or stores and returns create().
// Either way the entry's time to live restarts at ttl.
func (e *Expiring[K, V]) GetOrPut(k K, ttl time.Duration, create func() V) V {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.Get(k)
	if !ok {
		v = create()
	}
	e.inner.Set(k, entry[V]{value: v, expireAt: e.expiry(ttl)})
	return v
}

func (e *Expiring[K, V]) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return e.now().Add(ttl)
}

func (e *Expiring[K, V]) Get(k K) (V, bool) {
	it, ok := e.inner.Get(k)
	if !ok {
		var zero V
		return zero, false
	}
	if !it.expireAt.IsZero() && !e.now().Before(it.expireAt) {
		e.inner.Del(k)
		var zero V
		return zero, false
	}
	return it.value, true
}

func (e *Expiring[K, V]) Del(keys ...K) int {
	return e.inner.Del(keys...)
}

func (e *Expiring[K, V]) Len() int {
	return e.inner.Len()
}
