package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheBasic(t *testing.T) {
	c := New[string, int](3)
	c.Set("a", 1)
	c.Set("b", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
	require.True(t, c.Exists("a", "b"))
	require.False(t, c.Exists("a", "z"))
	require.Equal(t, 2, c.Len())

	require.Equal(t, 1, c.Del("a", "missing"))
	require.Equal(t, map[string]int{"b": 2}, c.GetAll())

	c.Clear()
	require.Zero(t, c.Len())
}

func TestCacheIntKeys(t *testing.T) {
	c := New[uint, string](16)
	for i := uint(0); i < 100; i++ {
		c.Set(i, "x")
	}
	require.Equal(t, 100, c.Len())
}

func TestExpiring(t *testing.T) {
	now := time.Unix(1000, 0)
	e := NewExpiring[string, []string](4)
	e.now = func() time.Time { return now }

	e.Put("models", []string{"a/b"}, time.Minute)
	e.Put("forever", []string{"c/d"}, 0)

	v, ok := e.Get("models")
	require.True(t, ok)
	require.Equal(t, []string{"a/b"}, v)

	now = now.Add(time.Minute)
	_, ok = e.Get("models")
	require.False(t, ok)
	require.Equal(t, 1, e.Len())

	_, ok = e.Get("forever")
	require.True(t, ok)
}

func TestExpiringGetOrPut(t *testing.T) {
	now := time.Unix(1000, 0)
	e := NewExpiring[string, int](4)
	e.now = func() time.Time { return now }

	var created atomic.Int32
	create := func() int { return int(created.Add(1)) }

	got := make([]int, 32)
	var wg sync.WaitGroup
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = e.GetOrPut("k", time.Minute, create)
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), created.Load())
	for _, v := range got {
		require.Equal(t, 1, v)
	}

	// a hit restarts the ttl
	now = now.Add(50 * time.Second)
	require.Equal(t, 1, e.GetOrPut("k", time.Minute, create))
	now = now.Add(50 * time.Second)
	v, ok := e.Get("k")
	require.True(t, ok)
	require.Equal(t, 1, v)

	now = now.Add(time.Minute)
	require.Equal(t, 2, e.GetOrPut("k", time.Minute, create))
}
