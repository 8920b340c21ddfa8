// Package cache provides a fixed-capacity LRU cache of path-lookup results
// keyed by path fragments ("parent/child").
//
// Design
//
//   - Storage: entries live in a dense arena ([]entry) and are addressed by
//     int32 handles. A map[string]int32 resolves keys to handles, and an
//     intrusive LRU↔MRU doubly linked list threads through the arena using
//     handles instead of pointers. Freed slots go on a free list and are
//     reused by the next insertion. All operations are O(1) expected.
//
//   - Put inserts new keys only. Re-putting a resident key is a no-op and
//     does NOT refresh its recency.
//
//   - Get promotes a hit to MRU (unless it already is MRU). A miss is a
//     normal outcome and is reported as (Entry{}, false).
//
//   - Evict removes a key regardless of its list position. It models a
//     write-invalidation and is reported to Metrics with EvictInvalidate,
//     while capacity victims are reported with EvictCapacity.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     By default NoopMetrics is used; plug the Prometheus adapter from
//     metrics/prom to export them.
//
// Basic usage
//
//	c, err := cache.New(cache.Options{Capacity: 10_000})
//	if err != nil {
//	    return err
//	}
//	c.Put("0/usr")
//	if _, ok := c.Get("0/usr"); ok {
//	    // hit
//	}
//	c.Evict("0/usr")
//
// Thread-safety
//
// A Cache is NOT safe for concurrent use. The simulator that drives it is
// single-threaded and deterministic; callers that share a Cache across
// goroutines must synchronize externally.
package cache
