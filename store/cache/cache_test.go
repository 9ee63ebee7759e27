package cache

import (
	"context"
	"testing"
	"time"
)

func newTestCache(maxItems int) *Cache {
	return New(Config{
		DefaultTTL:      time.Minute,
		CleanupInterval: 0, // no background sweep in tests
		MaxItems:        maxItems,
	})
}

func TestSetGet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(10)
	defer c.Close()

	c.Set(ctx, "a", 1)
	got, ok := c.Get(ctx, "a")
	if !ok || got != 1 {
		t.Errorf("Get(a) = %v, %v; want 1, true", got, ok)
	}

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("Get(missing) should not be found")
	}
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	c := New(Config{DefaultTTL: -time.Second})
	defer c.Close()

	c.Set(ctx, "a", 1)
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("expired entry should not be returned")
	}
}

func TestMaxItemsEviction(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(2)
	defer c.Close()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Set(ctx, "c", 3)

	count := 0
	for _, key := range []string{"a", "b", "c"} {
		if _, ok := c.Get(ctx, key); ok {
			count++
		}
	}
	if count != 2 {
		t.Errorf("cache holds %d items, want 2 after eviction", count)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(10)
	defer c.Close()

	c.Set(ctx, "a", 1)
	c.Delete(ctx, "a")
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("deleted entry should not be returned")
	}
}
