package cache

import (
	"errors"
	"fmt"
)

// ErrInvalidCapacity is returned by New when Options.Capacity is not positive.
var ErrInvalidCapacity = errors.New("cache: capacity must be > 0")

// Stats is a snapshot of cumulative cache activity since New or Reset.
type Stats struct {
	Hits          uint64
	Misses        uint64
	Evictions     uint64 // capacity victims
	Invalidations uint64 // explicit Evict calls that removed an entry
}

// Cache is a fixed-capacity LRU keyed by path fragments.
// The zero value is not usable; construct with New.
type Cache struct {
	slots []entry          // arena; len(slots) only grows up to cap
	free  []int32          // recycled slot handles
	index map[string]int32 // key -> slot handle

	head int32 // LRU end (next victim)
	tail int32 // MRU end

	cap int
	len int

	stats Stats
	opt   Options
}

// New constructs a cache with the provided Options.
// Defaults:
//   - nil Metrics -> NoopMetrics
func New(opt Options) (*Cache, error) {
	if opt.Capacity <= 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidCapacity, opt.Capacity)
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	return &Cache{
		slots: make([]entry, 0, opt.Capacity),
		index: make(map[string]int32, opt.Capacity),
		head:  nilHandle,
		tail:  nilHandle,
		cap:   opt.Capacity,
		opt:   opt,
	}, nil
}

// Put inserts key as MRU if it is not resident. A resident key is left
// untouched: its recency is NOT refreshed. When the cache is full the
// current LRU entry is evicted first.
func (c *Cache) Put(key string) {
	if _, ok := c.index[key]; ok {
		return
	}
	if c.len >= c.cap {
		c.evictLRU()
	}
	h := c.alloc(key)
	c.pushBack(h)
	c.index[key] = h
	c.opt.Metrics.Size(c.len)
}

// Get looks key up and promotes it to MRU on a hit.
// A miss returns (Entry{}, false); it is not an error.
func (c *Cache) Get(key string) (Entry, bool) {
	h, ok := c.index[key]
	if !ok {
		c.stats.Misses++
		c.opt.Metrics.Miss()
		return Entry{}, false
	}
	if h != c.tail {
		c.unlink(h)
		c.pushBack(h)
	}
	c.stats.Hits++
	c.opt.Metrics.Hit()
	return Entry{Key: c.slots[h].key}, true
}

// Evict removes key regardless of its position in the recency order and
// reports whether it was resident. Evicting an absent key is a no-op.
func (c *Cache) Evict(key string) bool {
	h, ok := c.index[key]
	if !ok {
		return false
	}
	c.remove(h, EvictInvalidate)
	return true
}

// Contains reports whether key is resident without promoting it.
func (c *Cache) Contains(key string) bool {
	_, ok := c.index[key]
	return ok
}

// Len returns the number of resident entries.
func (c *Cache) Len() int { return c.len }

// Cap returns the configured capacity.
func (c *Cache) Cap() int { return c.cap }

// Stats returns a snapshot of the cumulative counters.
func (c *Cache) Stats() Stats { return c.stats }

// Keys returns resident keys ordered from LRU to MRU.
func (c *Cache) Keys() []string {
	out := make([]string, 0, c.len)
	for h := c.head; h != nilHandle; h = c.slots[h].next {
		out = append(out, c.slots[h].key)
	}
	return out
}

// Reset drops every entry and zeroes Stats. Capacity and Options are kept.
// OnEvict is not invoked for dropped entries.
func (c *Cache) Reset() {
	c.slots = c.slots[:0]
	c.free = c.free[:0]
	clear(c.index)
	c.head, c.tail = nilHandle, nilHandle
	c.len = 0
	c.stats = Stats{}
	c.opt.Metrics.Size(0)
}

// -------------------- internals --------------------

// alloc takes a slot from the free list, or extends the arena.
func (c *Cache) alloc(key string) int32 {
	var h int32
	if n := len(c.free); n > 0 {
		h = c.free[n-1]
		c.free = c.free[:n-1]
	} else {
		c.slots = append(c.slots, entry{})
		h = int32(len(c.slots) - 1)
	}
	c.slots[h] = entry{key: key, prev: nilHandle, next: nilHandle}
	return h
}

// release clears the slot and returns its handle to the free list.
func (c *Cache) release(h int32) {
	c.slots[h] = entry{prev: nilHandle, next: nilHandle}
	c.free = append(c.free, h)
}

// pushBack appends a detached slot at the MRU end in O(1).
func (c *Cache) pushBack(h int32) {
	e := &c.slots[h]
	e.prev = c.tail
	e.next = nilHandle
	if c.tail != nilHandle {
		c.slots[c.tail].next = h
	} else {
		c.head = h
	}
	c.tail = h
	c.len++
}

// unlink detaches h from the recency list in O(1) and leaves it with no links.
func (c *Cache) unlink(h int32) {
	e := &c.slots[h]
	switch {
	case c.head == h && c.tail == h:
		// sole element
		c.head, c.tail = nilHandle, nilHandle
	case c.head == h:
		c.head = e.next
		c.slots[c.head].prev = nilHandle
	case c.tail == h:
		c.tail = e.prev
		c.slots[c.tail].next = nilHandle
	default:
		c.slots[e.prev].next = e.next
		c.slots[e.next].prev = e.prev
	}
	e.prev, e.next = nilHandle, nilHandle
	c.len--
}

// remove unlinks, unindexes and frees h, then reports the eviction.
func (c *Cache) remove(h int32, reason EvictReason) {
	key := c.slots[h].key
	c.unlink(h)
	delete(c.index, key)
	c.release(h)

	switch reason {
	case EvictInvalidate:
		c.stats.Invalidations++
	default:
		c.stats.Evictions++
	}
	c.opt.Metrics.Evict(reason)
	c.opt.Metrics.Size(c.len)
	if cb := c.opt.OnEvict; cb != nil {
		cb(key, reason)
	}
}

// evictLRU removes the head entry. An empty list is silently ignored.
func (c *Cache) evictLRU() {
	if c.head == nilHandle {
		return
	}
	c.remove(c.head, EvictCapacity)
}
