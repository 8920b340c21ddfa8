package sim

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/dircache/cache"
	"github.com/IvanBrykalov/dircache/trace"
)

func newSim(t *testing.T, capacity int, opt Options) *Simulator {
	t.Helper()
	c, err := cache.New(cache.Options{Capacity: capacity})
	require.NoError(t, err)
	return New(c, opt)
}

type countingRecorder struct{ lookups, hits, writes int }

func (r *countingRecorder) Lookup()     { r.lookups++ }
func (r *countingRecorder) LookupHit()  { r.hits++ }
func (r *countingRecorder) Invalidate() { r.writes++ }

func TestSplitPath(t *testing.T) {
	t.Parallel()

	got, err := SplitPath("/a/b/c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	got, err = SplitPath("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	for _, p := range []string{"", "/"} {
		_, err := SplitPath(p)
		assert.ErrorIs(t, err, ErrEmptyPath, "path %q", p)
	}
}

// create /a/b/c then delete /a/b/c on a large empty cache.
func TestExec_CreateThenDelete(t *testing.T) {
	t.Parallel()

	s := newSim(t, 1024, Options{})

	require.NoError(t, s.Exec(trace.OpCreate, "/a/b/c"))
	assert.Equal(t, Counters{Lookups: 3}, s.Counters())
	assert.Equal(t, []string{"0/a", "a/b", "b/c"}, s.Cache().Keys())

	require.NoError(t, s.Exec(trace.OpDelete, "/a/b/c"))
	assert.Equal(t, Counters{Lookups: 5, Hits: 2, Writes: 1}, s.Counters())
	assert.False(t, s.Cache().Contains("b/c"), "leaf must be invalidated")
	assert.True(t, s.Cache().Contains("a/b"))
}

// Mutating ops on the leaf count as a write only, even if the key is absent.
func TestExec_MutatingLeafIsNotALookup(t *testing.T) {
	t.Parallel()

	for _, op := range []trace.Op{trace.OpDelete, trace.OpSetPermission, trace.OpRename} {
		s := newSim(t, 16, Options{})
		require.NoError(t, s.Exec(op, "/x"))
		assert.Equal(t, Counters{Writes: 1}, s.Counters(), op.String())
		assert.Zero(t, s.Cache().Len())
	}
}

func TestExec_ReadAndOtherAreLookups(t *testing.T) {
	t.Parallel()

	s := newSim(t, 16, Options{})
	require.NoError(t, s.Exec(trace.OpRead, "/d/f"))
	require.NoError(t, s.Exec(trace.OpOther, "/d/f"))
	assert.Equal(t, Counters{Lookups: 4, Hits: 2}, s.Counters())
}

func TestExec_EmptyPath(t *testing.T) {
	t.Parallel()

	s := newSim(t, 4, Options{})
	err := s.Exec(trace.OpRead, "/")
	require.ErrorIs(t, err, ErrEmptyPath)
	assert.Equal(t, Counters{}, s.Counters())
}

// rename src dst == mutating(src) + create(dst).
func TestApply_Rename(t *testing.T) {
	t.Parallel()

	a := newSim(t, 64, Options{})
	b := newSim(t, 64, Options{})

	for _, s := range []*Simulator{a, b} {
		require.NoError(t, s.Exec(trace.OpCreate, "/p/q/src"))
	}

	require.NoError(t, a.Apply(trace.Record{Op: trace.OpRename, Path: "/p/q/src", Dst: "/p/r/dst"}))
	require.NoError(t, b.Exec(trace.OpRename, "/p/q/src"))
	require.NoError(t, b.Exec(trace.OpCreate, "/p/r/dst"))

	assert.Equal(t, b.Counters(), a.Counters())
	assert.Equal(t, b.Cache().Keys(), a.Cache().Keys())
	// create: 3 misses; rename src: 2 hits + write; dst: p hit, p/r miss, r/dst miss
	assert.Equal(t, Counters{Lookups: 3 + 2 + 3, Hits: 2 + 1, Writes: 1}, a.Counters())
}

func TestExec_CustomRootAndRecorder(t *testing.T) {
	t.Parallel()

	rec := &countingRecorder{}
	s := newSim(t, 8, Options{Root: "/", Recorder: rec})

	require.NoError(t, s.Exec(trace.OpCreate, "/a/b"))
	require.NoError(t, s.Exec(trace.OpDelete, "/a/b"))

	assert.Equal(t, []string{"//a"}, s.Cache().Keys())
	assert.Equal(t, countingRecorder{lookups: 3, hits: 1, writes: 1}, *rec)
}

// A small capacity forces LRU evictions between records.
func TestExec_CapacityPressure(t *testing.T) {
	t.Parallel()

	s := newSim(t, 2, Options{})
	require.NoError(t, s.Exec(trace.OpRead, "/a/b")) // 0/a, a/b
	require.NoError(t, s.Exec(trace.OpRead, "/c"))   // evicts 0/a
	require.NoError(t, s.Exec(trace.OpRead, "/a/b")) // 0/a miss (evicts a/b), a/b miss (evicts 0/c)
	assert.Equal(t, Counters{Lookups: 5}, s.Counters())
	assert.Equal(t, []string{"0/a", "a/b"}, s.Cache().Keys())
	assert.LessOrEqual(t, s.Cache().Len(), 2)
}

func TestRun_TraceText(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		"0 c1 create /a/b/c -",
		"1 c1 delete /a/b/c -",
		"2 c2 rename /a/b /a/z",
		"3 c2 open /a/z/c -",
	}, "\n")

	s := newSim(t, 1024, Options{})
	var ticks []uint64
	res, err := s.Run(context.Background(), trace.NewReader(strings.NewReader(in)), RunOptions{
		ProgressEvery: 2,
		Progress:      func(n uint64, _ Counters) { ticks = append(ticks, n) },
	})
	require.NoError(t, err)

	assert.EqualValues(t, 4, res.Records)
	assert.Equal(t, []uint64{2, 4}, ticks)
	// create 3/0/0, delete 2/2/1, rename src 1/1/1 + dst 2/1/0, open 3/2/0
	assert.Equal(t, Counters{Lookups: 11, Hits: 6, Writes: 2}, res.Counters)
	assert.Equal(t, res.Counters, s.Counters())
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newSim(t, 8, Options{})
	res, err := s.Run(ctx, trace.NewSliceSource(trace.Record{Op: trace.OpRead, Path: "/a"}), RunOptions{})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, res.Records)
}

func TestRun_PropagatesRecordErrors(t *testing.T) {
	t.Parallel()

	s := newSim(t, 8, Options{})
	src := trace.NewSliceSource(
		trace.Record{Op: trace.OpRead, Path: "/a"},
		trace.Record{Op: trace.OpRead, Path: ""},
	)
	res, err := s.Run(context.Background(), src, RunOptions{})
	require.ErrorIs(t, err, ErrEmptyPath)
	assert.Contains(t, err.Error(), "record 2")
	assert.EqualValues(t, 1, res.Records)
}

func TestSimulator_Reset(t *testing.T) {
	t.Parallel()

	s := newSim(t, 8, Options{})
	require.NoError(t, s.Exec(trace.OpRead, "/a/b"))
	s.Reset()
	assert.Equal(t, Counters{}, s.Counters())
	assert.Zero(t, s.Cache().Len())
}

func TestCounters_Ratio(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Counters{}.HitRatio())
	c := Counters{Lookups: 4, Hits: 1}
	assert.InDelta(t, 0.25, c.HitRatio(), 1e-9)
	assert.EqualValues(t, 3, c.Misses())
}

// A rename with no destination components is rejected before the source
// half runs.
func TestApply_RenameWithEmptyDstChangesNothing(t *testing.T) {
	t.Parallel()

	s := newSim(t, 8, Options{})
	require.NoError(t, s.Exec(trace.OpCreate, "/a/b"))
	before, keys := s.Counters(), s.Cache().Keys()

	for _, dst := range []string{"", "/"} {
		err := s.Apply(trace.Record{Op: trace.OpRename, Path: "/a/b", Dst: dst})
		require.ErrorIs(t, err, ErrEmptyPath, "dst %q", dst)
		assert.Equal(t, before, s.Counters())
		assert.Equal(t, keys, s.Cache().Keys())
	}

	res, err := newSim(t, 8, Options{}).Run(context.Background(),
		trace.NewSliceSource(trace.Record{Op: trace.OpRename, Path: "/a/b"}), RunOptions{})
	require.ErrorIs(t, err, ErrEmptyPath)
	assert.Equal(t, Result{}, res)
}

// Each Run starts from empty counters and a cold cache.
func TestRun_TwiceStartsFresh(t *testing.T) {
	t.Parallel()

	s := newSim(t, 8, Options{})
	rec := trace.Record{Op: trace.OpRead, Path: "/a/b"}

	first, err := s.Run(context.Background(), trace.NewSliceSource(rec), RunOptions{})
	require.NoError(t, err)
	second, err := s.Run(context.Background(), trace.NewSliceSource(rec), RunOptions{})
	require.NoError(t, err)

	want := Result{Records: 1, Counters: Counters{Lookups: 2}}
	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
	assert.Equal(t, second.Counters, s.Counters())
}
