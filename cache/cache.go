// Package cache keeps parsed external DTD subsets so that documents
// sharing an external subset do not need to parse it again.
package cache

import (
	"sync"

	"github.com/lestrrat-go/dtd/schema"
)

// Key identifies an external subset
type Key struct {
	PublicID string
	SystemID string
}

// KeyFor returns the cache key for an external identifier. A public
// identifier names the resource regardless of where it was loaded from,
// so when present it is used alone. A system identifier must already be
// resolved against the document referencing it.
func KeyFor(publicID, systemID string) Key {
	if publicID != "" {
		return Key{PublicID: publicID}
	}
	return Key{SystemID: systemID}
}

// Cache holds cachable external subsets. It is safe for concurrent use
// by multiple parsers.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]*schema.Subset
}

func New() *Cache {
	return &Cache{
		entries: make(map[Key]*schema.Subset),
	}
}

// Get returns the subset stored under k if it can be reused together
// with the given internal subset (which may be nil)
func (c *Cache) Get(k Key, internal *schema.Subset) (*schema.Subset, bool) {
	c.mu.RLock()
	s, ok := c.entries[k]
	c.mu.RUnlock()
	if !ok || !s.IsReusableWith(internal) {
		return nil, false
	}
	return s, true
}

// Put stores s under k. Subsets that are not cachable are ignored, and
// false is returned.
func (c *Cache) Put(k Key, s *schema.Subset) bool {
	if s == nil || !s.Cachable() {
		return false
	}
	c.mu.Lock()
	c.entries[k] = s
	c.mu.Unlock()
	return true
}

func (c *Cache) Delete(k Key) {
	c.mu.Lock()
	delete(c.entries, k)
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Keys() []Key {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}
