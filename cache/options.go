package cache

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictCapacity — removed as the LRU victim to make room for a new key.
	EvictCapacity EvictReason = iota
	// EvictInvalidate — removed explicitly by Evict (write-invalidation).
	EvictInvalidate
)

// String returns a stable lowercase name, suitable for metric labels.
func (r EvictReason) String() string {
	switch r {
	case EvictInvalidate:
		return "invalidate"
	default:
		return "capacity"
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int)
}

// Options configures the cache. Zero values are safe except Capacity,
// which must be > 0. Defaults applied in New():
//   - nil Metrics => NoopMetrics
type Options struct {
	// Capacity is the maximum number of resident entries.
	Capacity int

	// OnEvict is called after an entry has been unlinked and unindexed.
	// Keep callbacks lightweight; they run inline with Put/Evict.
	OnEvict func(key string, reason EvictReason)

	Metrics Metrics
}
