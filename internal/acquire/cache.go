package acquire

import (
	"sync"
	"time"
)

// payloadCache keeps recent fetches keyed by resolved URL. Entries
// expire lazily on read; there is no background janitor.
type payloadCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	payload  Payload
	deadline time.Time
}

func newPayloadCache(ttl time.Duration) *payloadCache {
	return &payloadCache{ttl: ttl, entries: map[string]cacheEntry{}}
}

func (c *payloadCache) Get(key string) (Payload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Payload{}, false
	}
	if time.Now().After(entry.deadline) {
		delete(c.entries, key)
		return Payload{}, false
	}
	return entry.payload, true
}

func (c *payloadCache) Put(key string, payload Payload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{payload: payload, deadline: time.Now().Add(c.ttl)}
}
