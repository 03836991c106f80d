package cache

import (
	"testing"
	"time"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", 42, time.Minute)

	v, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if v.(int) != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", "v", time.Nanosecond)
	time.Sleep(2 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be evicted on read, len=%d", c.Len())
	}
}

func TestTTLCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", "v", 0)

	if _, ok := c.Get("k"); !ok {
		t.Fatal("zero ttl should never expire")
	}
}

func TestTTLCacheDelete(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", "v", time.Minute)
	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after delete")
	}
}
