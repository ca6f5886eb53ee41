package cache

import (
	"testing"
	"time"
)

func TestCacheExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := New(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.SetTTL("b", 2, time.Hour)

	if v, ok := c.Get("a"); !ok || v.(int) != 1 {
		t.Fatalf("expected a=1, got %v %v", v, ok)
	}

	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should have expired")
	}
	if v, ok := c.Get("b"); !ok || v.(int) != 2 {
		t.Fatalf("b should still be live")
	}
	if c.Len() != 1 {
		t.Fatalf("expired entry should be evicted on read, len=%d", c.Len())
	}
}

func TestCacheNonPositiveTTLDeletes(t *testing.T) {
	c := New(0)
	c.Set("k", "v")
	c.SetTTL("k", "v", 0)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("zero ttl should remove the key")
	}
}

func TestCacheClear(t *testing.T) {
	c := New(time.Minute)
	c.Set("x", 1)
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("clear should empty the cache")
	}
}

func TestCacheWriteSweepsUnreadExpiredEntries(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := New(time.Hour)
	c.now = func() time.Time { return now }

	for _, k := range []string{"s1", "s2", "s3"} {
		c.SetTTL(k, k, 30*time.Second)
	}
	if c.Len() != 3 {
		t.Fatalf("len=%d", c.Len())
	}

	// a write inside the sweep interval leaves them alone
	now = now.Add(45 * time.Second)
	c.Set("early", 1)
	if c.Len() != 4 {
		t.Fatalf("sweep ran too early, len=%d", c.Len())
	}

	now = now.Add(sweepInterval)
	c.Set("live", 1)
	if c.Len() != 2 {
		t.Fatalf("expired entries should be swept on write, len=%d", c.Len())
	}
	if _, ok := c.Get("early"); !ok {
		t.Fatalf("unexpired entry was swept")
	}
}
