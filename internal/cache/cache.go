// Package cache memoizes file reads, parses and export lookups for one
// compilation pass. Entries are bounded in number and evicted least recently
// used first.
package cache

import (
	"sync"

	"bennypowers.dev/csslift/internal/hash"
	"github.com/elliotchance/orderedmap/v3"
)

// DefaultCapacity bounds a cache created with a non-positive capacity
const DefaultCapacity = 500

type entry struct {
	namespace string
	key       string
	value     any
}

// Cache is a bounded LRU store keyed by (namespace, key).
// The recency order is the insertion order of the underlying ordered map:
// the front is the least recently used entry.
type Cache struct {
	mu       sync.Mutex
	entries  *orderedmap.OrderedMap[uint64, *entry]
	capacity int
	disabled bool
}

// New creates an enabled cache holding at most capacity entries
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		entries:  orderedmap.NewOrderedMap[uint64, *entry](),
		capacity: capacity,
	}
}

// Disabled creates a cache that never stores anything
func Disabled() *Cache {
	return &Cache{
		entries:  orderedmap.NewOrderedMap[uint64, *entry](),
		disabled: true,
	}
}

// Load returns the value stored under (namespace, key), computing and storing
// it on a miss. A hit promotes the entry to most recently used and never calls
// compute. Failed computations are not stored, so the next Load retries.
// A nil or disabled cache always computes.
func Load[V any](c *Cache, namespace, key string, compute func() (V, error)) (V, error) {
	if c == nil || c.disabled {
		return compute()
	}
	id := hash.Key(namespace, key)

	if v, ok := lookup[V](c, id); ok {
		return v, nil
	}

	// compute runs unlocked: it may load other entries recursively
	v, err := compute()
	if err != nil {
		return v, err
	}
	c.store(id, &entry{namespace: namespace, key: key, value: v})
	return v, nil
}

func lookup[V any](c *Cache, id uint64) (V, bool) {
	var zero V
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries.Get(id)
	if !ok {
		return zero, false
	}
	v, ok := e.value.(V)
	if !ok {
		return zero, false
	}
	c.entries.Delete(id)
	c.entries.Set(id, e)
	return v, true
}

func (c *Cache) store(id uint64, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries.Get(id); exists {
		c.entries.Delete(id)
	} else {
		for c.entries.Len() >= c.capacity {
			oldest := c.entries.Front()
			if oldest == nil {
				break
			}
			c.entries.Delete(oldest.Key)
		}
	}
	c.entries.Set(id, e)
}

// Len returns the number of stored entries
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Keys returns the stored keys from least to most recently used, each
// rendered as "namespace:key"
func (c *Cache) Keys() []string {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, c.entries.Len())
	for el := c.entries.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.namespace+":"+el.Value.key)
	}
	return keys
}

// Clear drops every entry, typically between watch passes
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = orderedmap.NewOrderedMap[uint64, *entry]()
}
