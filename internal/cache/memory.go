package cache

import (
	"container/list"
	"sync"
	"time"
)

// MemoryCache is a size-bounded LRU over PCM buffers.
type MemoryCache struct {
	mu       sync.Mutex
	capacity int64
	size     int64
	items    map[string]*list.Element
	lru      *list.List // front is most recently used
	stats    Stats
	now      func() time.Time
}

type memoryEntry struct {
	key   string
	value []byte
	meta  Entry
}

// NewMemoryCache creates a memory cache holding up to capacity bytes.
func NewMemoryCache(capacity int64) *MemoryCache {
	return &MemoryCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		lru:      list.New(),
		stats:    Stats{Level: LevelMemory, Capacity: capacity},
		now:      time.Now,
	}
}

// Get returns the value for key and marks it recently used.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.lru.MoveToFront(el)
	e := el.Value.(*memoryEntry)
	e.meta.Hits++
	e.meta.LastAccess = c.now()
	c.stats.Hits++
	return e.value, true
}

// Put stores value under key, evicting least recently used entries to
// make room.
func (c *MemoryCache) Put(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := int64(len(value))
	if n > c.capacity {
		return ErrItemTooLarge
	}

	now := c.now()
	if el, ok := c.items[key]; ok {
		e := el.Value.(*memoryEntry)
		c.size += n - e.meta.Size
		e.value = value
		e.meta.Size = n
		e.meta.Stored = now
		c.lru.MoveToFront(el)
	} else {
		e := &memoryEntry{
			key:   key,
			value: value,
			meta:  Entry{Key: key, Size: n, Stored: now, LastAccess: now},
		}
		c.items[key] = c.lru.PushFront(e)
		c.size += n
	}

	for c.size > c.capacity {
		c.evict(c.lru.Back())
		c.stats.Evictions++
	}
	return nil
}

// Contains reports whether key is cached without touching its recency.
func (c *MemoryCache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// Delete removes key.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.evict(el)
	}
}

// Clear removes everything.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.lru.Init()
	c.size = 0
}

// Prune removes entries stored longer than maxAge ago.
func (c *MemoryCache) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-maxAge)
	pruned := 0
	for el := c.lru.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*memoryEntry).meta.Stored.Before(cutoff) {
			c.evict(el)
			pruned++
		}
		el = prev
	}
	c.stats.Expired += int64(pruned)
	return pruned
}

// Resize changes the capacity, evicting as needed.
func (c *MemoryCache) Resize(capacity int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capacity = capacity
	c.stats.Capacity = capacity
	for c.size > c.capacity && c.lru.Len() > 0 {
		c.evict(c.lru.Back())
		c.stats.Evictions++
	}
}

// Entries lists entries from least to most recently used.
func (c *MemoryCache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, 0, c.lru.Len())
	for el := c.lru.Back(); el != nil; el = el.Prev() {
		out = append(out, el.Value.(*memoryEntry).meta)
	}
	return out
}

// Size returns the bytes held.
func (c *MemoryCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns counters for the memory tier.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.size
	s.Items = len(c.items)
	return s
}

// evict must be called with c.mu held.
func (c *MemoryCache) evict(el *list.Element) {
	e := c.lru.Remove(el).(*memoryEntry)
	delete(c.items, e.key)
	c.size -= e.meta.Size
}
