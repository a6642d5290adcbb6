package bus

import (
	"sync"
	"time"
)

// DedupeCache tracks recently seen message keys so duplicate inbound
// deliveries (poll restarts, double-taps) don't trigger duplicate completion
// runs. Entries expire after a TTL; the cache is capped to bound memory.
type DedupeCache struct {
	ttl time.Duration
	max int

	mu   sync.Mutex
	seen map[string]time.Time
}

// NewDedupeCache creates a cache holding at most max keys for ttl each.
func NewDedupeCache(ttl time.Duration, max int) *DedupeCache {
	return &DedupeCache{
		ttl:  ttl,
		max:  max,
		seen: make(map[string]time.Time),
	}
}

// IsDuplicate records the key and reports whether it was already seen within
// the TTL.
func (c *DedupeCache) IsDuplicate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	if at, ok := c.seen[key]; ok && now.Sub(at) < c.ttl {
		return true
	}

	// Prune expired entries when at capacity; hard-evict if still full.
	if len(c.seen) >= c.max {
		for k, at := range c.seen {
			if now.Sub(at) >= c.ttl {
				delete(c.seen, k)
			}
		}
		for len(c.seen) >= c.max {
			for k := range c.seen {
				delete(c.seen, k)
				break
			}
		}
	}

	c.seen[key] = now
	return false
}
