package cache

import (
	"sync"
	"time"
)

// sweepInterval bounds how often a write scans for expired entries.
const sweepInterval = time.Minute

// Cache is a small in-process map with per-entry expiry. Expired entries
// are dropped on read and by a sweep piggybacked on writes, so keys that
// are never read again do not accumulate.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	m       map[string]entry
	now     func() time.Time
	sweepAt time.Time
}
type entry struct {
	val any
	exp time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl: ttl,
		m:   make(map[string]entry),
		now: time.Now,
	}
}

func (c *Cache) Get(key string) (any, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !now.Before(e.exp) {
		c.mu.Lock()
		// re-check: the entry may have been replaced since the read
		if cur, ok := c.m[key]; ok && !now.Before(cur.exp) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return e.val, true
}

// Set stores val with the cache's default ttl.
func (c *Cache) Set(key string, val any) {
	c.SetTTL(key, val, c.ttl)
}

// SetTTL stores val for ttl; a non-positive ttl deletes the key.
func (c *Cache) SetTTL(key string, val any, ttl time.Duration) {
	if ttl <= 0 {
		c.Delete(key)
		return
	}
	now := c.now()
	c.mu.Lock()
	c.sweepLocked(now)
	c.m[key] = entry{val: val, exp: now.Add(ttl)}
	c.mu.Unlock()
}

func (c *Cache) sweepLocked(now time.Time) {
	if now.Before(c.sweepAt) {
		return
	}
	for k, e := range c.m {
		if !now.Before(e.exp) {
			delete(c.m, k)
		}
	}
	c.sweepAt = now.Add(sweepInterval)
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.m = make(map[string]entry)
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
