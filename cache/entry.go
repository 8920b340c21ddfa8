package cache

// nilHandle marks the absence of a list neighbour (or an empty list end).
const nilHandle int32 = -1

// entry is an arena slot owned by the cache. The same slot is referenced
// by the key index and by the recency list; nothing else holds it.
type entry struct {
	key string

	// Recency links as arena handles: prev points toward LRU (head),
	// next toward MRU (tail). nilHandle when there is no neighbour.
	prev int32
	next int32
}

// detached reports whether the slot carries no list links.
func (e *entry) detached() bool { return e.prev == nilHandle && e.next == nilHandle }

// Entry is a read-only view of a resident cache entry returned by Get.
type Entry struct {
	Key string
}
