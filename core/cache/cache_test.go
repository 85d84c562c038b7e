package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/strophe/strophe/core/song"
)

func TestLRUBasicOperations(t *testing.T) {
	c := NewLRUCache[string, int](Config{MaxSize: 3})

	c.Put("a", 1)
	c.Put("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) hit")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}

	c.Remove("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get after Remove hit")
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRUCache[string, int](Config{MaxSize: 2})
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // a becomes most recently used
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry was evicted")
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("evictions = %d, want 1", got)
	}
}

func TestLRUTTLExpiry(t *testing.T) {
	c := NewLRUCache[string, int](Config{MaxSize: 10, TTL: time.Millisecond})
	c.Put("a", 1)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry still readable")
	}
}

func TestLRUOnEvict(t *testing.T) {
	var evicted []interface{}
	c := NewLRUCache[string, int](Config{
		MaxSize: 1,
		OnEvict: func(key, value interface{}) {
			evicted = append(evicted, key)
		},
	})
	c.Put("a", 1)
	c.Put("b", 2)
	if len(evicted) != 1 || evicted[0] != "a" {
		t.Errorf("evicted = %v", evicted)
	}
}

func TestLRUConcurrentAccess(t *testing.T) {
	c := NewLRUCache[int, int](Config{MaxSize: 100})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Put(j, n)
				c.Get(j)
			}
		}(i)
	}
	wg.Wait()
	if c.Len() == 0 {
		t.Error("cache empty after concurrent writes")
	}
}

func TestSongCache(t *testing.T) {
	c := NewDefaultSongCache()
	s := song.New("Cached", song.Metadata{}, nil, nil)
	result := &ParseResult{Song: s}

	hash := fmt.Sprintf("%x", [4]byte{1, 2, 3, 4})
	c.Put(hash, result)

	got, ok := c.Get(hash)
	if !ok {
		t.Fatal("cache miss after Put")
	}
	if got.Song != s {
		t.Error("cache hit returned a different song instance")
	}
	stats := c.Stats()
	if stats.Hits != 1 || stats.Size != 1 {
		t.Errorf("stats = %+v", stats)
	}
}
