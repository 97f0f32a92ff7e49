package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{now: time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.Now
	return c, clock
}

// TestLRUCacheEviction tests size-based eviction
func TestLRUCacheEviction(t *testing.T) {
	c, _ := newTestCache(3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Set("key4", "value4") // evicts key1

	if _, found := c.Get("key1"); found {
		t.Error("key1 should have been evicted")
	}
	for _, k := range []string{"key2", "key3", "key4"} {
		if _, found := c.Get(k); !found {
			t.Errorf("%s should still exist", k)
		}
	}
	if c.Size() != 3 {
		t.Errorf("Size() = %d, want 3", c.Size())
	}
}

func TestLRUCacheGetRefreshesRecency(t *testing.T) {
	c, _ := newTestCache(2, time.Hour)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3") // evicts b, the least recently used

	if _, found := c.Get("b"); found {
		t.Error("b should have been evicted")
	}
	if v, found := c.Get("a"); !found || v != "1" {
		t.Errorf("Get(a) = %q, %v", v, found)
	}
}

func TestLRUCacheSetOverwrites(t *testing.T) {
	c, _ := newTestCache(2, time.Hour)
	c.Set("a", "1")
	c.Set("a", "2")

	if v, _ := c.Get("a"); v != "2" {
		t.Errorf("Get(a) = %q, want 2", v)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

// TestLRUCacheTTLExpiration tests time-based expiration
func TestLRUCacheTTLExpiration(t *testing.T) {
	c, clock := newTestCache(100, 50*time.Millisecond)

	c.Set("key1", "value1")
	if _, found := c.Get("key1"); !found {
		t.Error("key1 should exist immediately")
	}

	clock.Advance(60 * time.Millisecond)
	if _, found := c.Get("key1"); found {
		t.Error("key1 should have expired")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry should be dropped on read, size %d", c.Size())
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c, clock := newTestCache(100, 50*time.Millisecond)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	clock.Advance(30 * time.Millisecond)
	c.Set("key3", "value3")
	clock.Advance(30 * time.Millisecond)

	if removed := c.CleanExpired(); removed != 2 {
		t.Errorf("Expected 2 items cleaned, got %d", removed)
	}
	if _, found := c.Get("key3"); !found {
		t.Error("key3 should survive cleanup")
	}
}

func TestLRUCacheStats(t *testing.T) {
	c, _ := newTestCache(10, time.Hour)
	c.Set("a", "1")
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	got := c.Stats()
	want := Stats{Size: 1, Hits: 2, Misses: 1}
	if got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestLRUCachePurge(t *testing.T) {
	c, _ := newTestCache(10, time.Hour)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")

	if n := c.Purge(); n != 2 {
		t.Errorf("Purge() = %d, want 2", n)
	}
	if _, found := c.Get("a"); found {
		t.Error("a should be gone after purge")
	}
	c.Set("c", "3")
	if got := c.Stats(); got.Size != 1 || got.Hits != 1 {
		t.Errorf("Stats() after purge = %+v", got)
	}
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	a, clockA := newTestCache(10, time.Minute)
	b, clockB := newTestCache(10, time.Minute)
	a.Set("x", "1")
	b.Set("y", "2")
	b.Set("z", "3")
	clockA.Advance(2 * time.Minute)
	clockB.Advance(2 * time.Minute)

	m := NewManager()
	m.Register(a)
	m.Register(b)
	if n := m.CleanNow(); n != 3 {
		t.Errorf("CleanNow() = %d, want 3", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

func TestLRUCacheConcurrentAccess(t *testing.T) {
	c := NewLRUCache[int](50, time.Hour)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*i)%80)
				c.Set(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	if c.Size() > 50 {
		t.Errorf("Size() = %d exceeds capacity", c.Size())
	}
}

// BenchmarkLRUCache benchmarks a 90% read workload.
func BenchmarkLRUCache(b *testing.B) {
	c := NewLRUCache[string](1000, time.Hour)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%10 == 0 {
			c.Set("bench-key", "report")
		} else {
			c.Get("bench-key")
		}
	}
}
