// Package prom exports cache and simulator activity as Prometheus metrics.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/dircache/cache"
	"github.com/IvanBrykalov/dircache/sim"
)

// Adapter implements cache.Metrics and sim.Recorder and exports
// Prometheus counters/gauges. All Prometheus metric types are goroutine-safe,
// so a scrape may run concurrently with the simulation.
type Adapter struct {
	// cache level
	hits    prometheus.Counter
	misses  prometheus.Counter
	evicts  *prometheus.CounterVec
	sizeEnt prometheus.Gauge

	// simulator level
	lookups     prometheus.Counter
	lookupHits  prometheus.Counter
	invalidates prometheus.Counter
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		})
	}
	a := &Adapter{
		hits:   counter("cache_hits_total", "Cache hits"),
		misses: counter("cache_misses_total", "Cache misses"),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "cache_evictions_total",
				Help:        "Cache removals by reason (capacity, invalidate)",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		sizeEnt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "cache_size_entries",
			Help:        "Number of resident entries",
			ConstLabels: constLabels,
		}),
		lookups:     counter("lookups_total", "Path component lookups"),
		lookupHits:  counter("lookup_hits_total", "Path component lookups served by the cache"),
		invalidates: counter("writes_total", "Leaf write-invalidations"),
	}
	reg.MustRegister(a.hits, a.misses, a.evicts, a.sizeEnt, a.lookups, a.lookupHits, a.invalidates)
	return a
}

// Hit increments the cache hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the cache miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Evict increments the eviction counter with a reason label.
func (a *Adapter) Evict(r cache.EvictReason) {
	a.evicts.WithLabelValues(r.String()).Inc()
}

// Size updates the resident entries gauge.
func (a *Adapter) Size(entries int) { a.sizeEnt.Set(float64(entries)) }

// Lookup increments the simulator lookup counter.
func (a *Adapter) Lookup() { a.lookups.Inc() }

// LookupHit increments the simulator hit counter.
func (a *Adapter) LookupHit() { a.lookupHits.Inc() }

// Invalidate increments the simulator write counter.
func (a *Adapter) Invalidate() { a.invalidates.Inc() }

// Compile-time checks.
var (
	_ cache.Metrics = (*Adapter)(nil)
	_ sim.Recorder  = (*Adapter)(nil)
)
