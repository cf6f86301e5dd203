package pkgcache

import (
	"container/list"
	"sync"
)

const defaultCapacity = 128

type entry[K comparable, V any] struct {
	key   K
	value V
}

// LRU is a fixed capacity least recently used cache. The zero value is not
// usable; create one with NewLRU.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[K]*list.Element
	onEvict  func(K, V)
}

// NewLRU creates a cache holding at most capacity entries. A non-positive
// capacity falls back to a default.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	return &LRU[K, V]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[K]*list.Element, capacity),
	}
}

// OnEvict registers a callback invoked (under the cache lock) for every
// entry dropped to make room.
func (c *LRU[K, V]) OnEvict(f func(K, V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = f
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*entry[K, V]).value, true
	}

	var zero V
	return zero, false
}

// Contains reports whether key is cached without touching its recency.
func (c *LRU[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// Add inserts or replaces the value for key, evicting the least recently used
// entry when the cache is full.
func (c *LRU[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry[K, V]).value = value
		c.ll.MoveToFront(el)
		return
	}

	c.items[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value})
	for c.ll.Len() > c.capacity {
		c.removeOldest()
	}
}

// AddIfAbsent stores value only when key is not cached yet and reports
// whether it did. Existing entries are refreshed as most recently used.
func (c *LRU[K, V]) AddIfAbsent(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return false
	}

	c.items[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value})
	for c.ll.Len() > c.capacity {
		c.removeOldest()
	}
	return true
}

func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *LRU[K, V]) removeOldest() {
	el := c.ll.Back()
	if el == nil {
		return
	}

	c.ll.Remove(el)
	e := el.Value.(*entry[K, V])
	delete(c.items, e.key)
	if c.onEvict != nil {
		c.onEvict(e.key, e.value)
	}
}
