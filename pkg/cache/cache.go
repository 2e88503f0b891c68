package cache

import (
	"maps"
	"sync"
)

// Cache is a map guarded by a read/write lock
type Cache[K comparable, V any] struct {
	entries map[K]V
	mu      sync.RWMutex
}

func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]V),
	}
}

// FromMap creates a cache seeded with a copy of m
func FromMap[K comparable, V any](m map[K]V) *Cache[K, V] {
	c := New[K, V]()
	maps.Copy(c.entries, m)
	return c
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Update atomically replaces the value stored at key with the result of fn.
// fn receives the current value and whether it exists; returning false leaves
// the entry untouched. Update reports whether the entry was written.
func (c *Cache[K, V]) Update(key K, fn func(current V, exists bool) (V, bool)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.entries[key]
	next, write := fn(current, ok)
	if !write {
		return false
	}

	c.entries[key] = next
	return true
}

func (c *Cache[K, V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]K, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// Copy returns a point in time copy of the entries
func (c *Cache[K, V]) Copy() map[K]V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.entries)
}
