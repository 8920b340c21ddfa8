// Package sim replays namespace operations against a path-fragment LRU
// cache and accounts lookups, hits and write-invalidations.
//
// Each path is walked component by component. Every intermediate directory
// is looked up (and inserted on a miss). The leaf is invalidated for
// mutating operations (rename, delete, setPermission) and looked up
// otherwise. A rename record additionally resolves its destination as a
// create.
//
// A Simulator is single-threaded and deterministic for a fixed trace and
// capacity.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/IvanBrykalov/dircache/cache"
	"github.com/IvanBrykalov/dircache/trace"
)

// DefaultRoot is the synthetic parent identifier of top-level components.
const DefaultRoot = "0"

// ErrEmptyPath is returned for paths with no components.
var ErrEmptyPath = errors.New("sim: path has no components")

// Counters are the running totals of one simulation run.
type Counters struct {
	Lookups uint64
	Hits    uint64
	Writes  uint64
}

// Misses returns Lookups - Hits.
func (c Counters) Misses() uint64 { return c.Lookups - c.Hits }

// HitRatio returns Hits/Lookups, or 0 before the first lookup.
func (c Counters) HitRatio() float64 {
	if c.Lookups == 0 {
		return 0
	}
	return float64(c.Hits) / float64(c.Lookups)
}

// Recorder observes simulator accounting as it happens.
type Recorder interface {
	Lookup()
	LookupHit()
	Invalidate()
}

// NoopRecorder discards all events.
type NoopRecorder struct{}

func (NoopRecorder) Lookup()     {}
func (NoopRecorder) LookupHit()  {}
func (NoopRecorder) Invalidate() {}

var _ Recorder = NoopRecorder{}

// Options configures a Simulator.
//   - empty Root   => DefaultRoot
//   - nil Recorder => NoopRecorder
type Options struct {
	Root     string
	Recorder Recorder
}

// Simulator drives a cache from trace records.
type Simulator struct {
	c    *cache.Cache
	cnt  Counters
	root string
	rec  Recorder
}

// New binds a simulator to c. The simulator takes exclusive use of c.
func New(c *cache.Cache, opt Options) *Simulator {
	if opt.Root == "" {
		opt.Root = DefaultRoot
	}
	if opt.Recorder == nil {
		opt.Recorder = NoopRecorder{}
	}
	return &Simulator{c: c, root: opt.Root, rec: opt.Recorder}
}

// Counters returns the totals accumulated so far.
func (s *Simulator) Counters() Counters { return s.cnt }

// Cache returns the underlying cache.
func (s *Simulator) Cache() *cache.Cache { return s.c }

// Reset zeroes the counters and empties the cache.
func (s *Simulator) Reset() {
	s.cnt = Counters{}
	s.c.Reset()
}

// Apply replays one record. A rename invalidates its source leaf and then
// resolves the destination as a create. Both paths are validated first, so
// a rejected record leaves the counters and the cache untouched.
func (s *Simulator) Apply(rec trace.Record) error {
	if rec.Op == trace.OpRename {
		if _, err := SplitPath(rec.Dst); err != nil {
			return fmt.Errorf("%s %q -> %q: %w", rec.Op, rec.Path, rec.Dst, err)
		}
	}
	if err := s.Exec(rec.Op, rec.Path); err != nil {
		return err
	}
	if rec.Op == trace.OpRename {
		return s.Exec(trace.OpCreate, rec.Dst)
	}
	return nil
}

// Exec walks path for a single operation.
func (s *Simulator) Exec(op trace.Op, path string) error {
	comps, err := SplitPath(path)
	if err != nil {
		return fmt.Errorf("%s %q: %w", op, path, err)
	}

	father := s.root
	last := len(comps) - 1
	for _, node := range comps[:last] {
		s.lookup(father + "/" + node)
		father = node
	}

	key := father + "/" + comps[last]
	if op.Mutating() {
		s.c.Evict(key)
		s.cnt.Writes++
		s.rec.Invalidate()
		return nil
	}
	s.lookup(key)
	return nil
}

// lookup counts one lookup, populating the cache on a miss.
func (s *Simulator) lookup(key string) {
	s.cnt.Lookups++
	s.rec.Lookup()
	if _, ok := s.c.Get(key); !ok {
		s.c.Put(key)
		return
	}
	s.cnt.Hits++
	s.rec.LookupHit()
}

// SplitPath drops a single leading '/' (the namespace root) and splits the
// rest on '/'. Empty interior components are kept as-is.
func SplitPath(path string) ([]string, error) {
	p := strings.TrimPrefix(path, "/")
	if p == "" {
		return nil, ErrEmptyPath
	}
	return strings.Split(p, "/"), nil
}

// RunOptions tunes Run.
type RunOptions struct {
	// ProgressEvery calls Progress after every N records (0 disables).
	ProgressEvery uint64
	Progress      func(records uint64, c Counters)
}

// Result summarizes a finished run.
type Result struct {
	Records  uint64
	Counters Counters
}

// Run starts a new run: it resets the counters and the cache, then applies
// records from src until io.EOF. Cancellation of ctx is checked between
// records; the partial Result is returned with ctx.Err().
func (s *Simulator) Run(ctx context.Context, src trace.Source, opt RunOptions) (Result, error) {
	s.Reset()
	var n uint64
	for {
		select {
		case <-ctx.Done():
			return Result{Records: n, Counters: s.cnt}, ctx.Err()
		default:
		}

		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return Result{Records: n, Counters: s.cnt}, nil
		}
		if err != nil {
			return Result{Records: n, Counters: s.cnt}, err
		}
		if err := s.Apply(rec); err != nil {
			return Result{Records: n, Counters: s.cnt}, fmt.Errorf("record %d: %w", n+1, err)
		}
		n++

		if opt.ProgressEvery > 0 && opt.Progress != nil && n%opt.ProgressEvery == 0 {
			opt.Progress(n, s.cnt)
		}
	}
}
