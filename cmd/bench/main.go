// Command bench replays a synthetic Zipf-skewed namespace workload through
// the simulator at several cache capacities in parallel and reports the hit
// ratio of each. Optional pprof/Prometheus endpoints are available.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/dircache/cache"
	"github.com/IvanBrykalov/dircache/internal/logging"
	pmet "github.com/IvanBrykalov/dircache/metrics/prom"
	"github.com/IvanBrykalov/dircache/sim"
	"github.com/IvanBrykalov/dircache/trace"
)

func main() {
	// ---- Flags ----
	var (
		caps = pflag.IntSlice("caps", []int{1_000, 10_000, 100_000}, "cache capacities to compare (entries)")
		ops  = pflag.Int("ops", 2_000_000, "records per run")

		depth  = pflag.Int("depth", 4, "directory depth of the synthetic tree")
		fanout = pflag.Int("fanout", 8, "subdirectories per directory")
		files  = pflag.Int("files", 16, "files per leaf directory")

		writePct  = pflag.Int("writes", 10, "mutating percentage [0..100] (delete/setPermission/rename)")
		createPct = pflag.Int("creates", 10, "create percentage [0..100]")
		zipfS     = pflag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV     = pflag.Float64("zipf_v", 1.0, "Zipf v")
		seed      = pflag.Int64("seed", time.Now().UnixNano(), "random seed")

		pprofAddr   = pflag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = pflag.String("http", "", "serve Prometheus metrics at addr; empty = disabled")
	)
	pflag.Parse()

	log, err := logging.New(os.Stderr, logging.Config{Level: "info", Format: "console"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := validateFlags(*caps, *ops, *depth, *fanout, *files, *writePct, *createPct, *zipfS, *zipfV); err != nil {
		log.Fatal().Err(err).Msg("invalid flags")
	}

	// ---- pprof + metrics (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Info().Str("addr", *pprofAddr).Msg("pprof: serving")
			log.Error().Err(http.ListenAndServe(*pprofAddr, nil)).Msg("pprof server stopped")
		}()
	}
	if *metricsAddr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Info().Str("addr", *metricsAddr).Msg("metrics: serving")
			log.Error().Err(http.ListenAndServe(*metricsAddr, nil)).Msg("metrics server stopped")
		}()
	}

	paths := buildTree(*depth, *fanout, *files)
	log.Info().Int("paths", len(paths)).Int("ops", *ops).Int64("seed", *seed).Msg("workload ready")

	// ---- One simulator per capacity; each replays the same seeded stream ----
	results := make([]sim.Result, len(*caps))
	elapsed := make([]time.Duration, len(*caps))
	g, ctx := errgroup.WithContext(context.Background())
	for i, capacity := range *caps {
		i, capacity := i, capacity
		g.Go(func() error {
			copt := cache.Options{Capacity: capacity}
			sopt := sim.Options{}
			if *metricsAddr != "" {
				m := pmet.New(nil, "dircache", "bench", prometheus.Labels{"capacity": strconv.Itoa(capacity)})
				copt.Metrics, sopt.Recorder = m, m
			}
			c, err := cache.New(copt)
			if err != nil {
				return err
			}
			src := newWorkload(paths, *ops, *seed, *zipfS, *zipfV, *writePct, *createPct)

			start := time.Now()
			res, err := sim.New(c, sopt).Run(ctx, src, sim.RunOptions{})
			elapsed[i] = time.Since(start)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("bench failed")
	}

	// ---- Report ----
	fmt.Printf("depth=%d fanout=%d files=%d paths=%d ops=%d writes=%d%% creates=%d%% seed=%d\n",
		*depth, *fanout, *files, len(paths), *ops, *writePct, *createPct, *seed)
	for i, capacity := range *caps {
		r := results[i]
		fmt.Printf("cap=%-8d lookups=%d hits=%d writes=%d hit-rate=%.2f%% (%.0f rec/s)\n",
			capacity, r.Counters.Lookups, r.Counters.Hits, r.Counters.Writes,
			r.Counters.HitRatio()*100, float64(r.Records)/elapsed[i].Seconds())
	}
}

// validateFlags rejects shapes the workload generator cannot serve:
// rand.NewZipf needs s > 1 and v >= 1, and the tree needs at least one file.
func validateFlags(caps []int, ops, depth, fanout, files, writePct, createPct int, zipfS, zipfV float64) error {
	if len(caps) == 0 {
		return errors.New("--caps: at least one capacity required")
	}
	for _, c := range caps {
		if c <= 0 {
			return fmt.Errorf("--caps: capacity must be > 0, got %d", c)
		}
	}
	switch {
	case ops < 0:
		return fmt.Errorf("--ops must be >= 0, got %d", ops)
	case depth < 0:
		return fmt.Errorf("--depth must be >= 0, got %d", depth)
	case fanout < 1:
		return fmt.Errorf("--fanout must be >= 1, got %d", fanout)
	case files < 1:
		return fmt.Errorf("--files must be >= 1, got %d", files)
	case writePct < 0 || writePct > 100:
		return fmt.Errorf("--writes must be in [0..100], got %d", writePct)
	case createPct < 0 || createPct > 100:
		return fmt.Errorf("--creates must be in [0..100], got %d", createPct)
	case writePct+createPct > 100:
		return fmt.Errorf("--writes + --creates must be <= 100, got %d", writePct+createPct)
	case !(zipfS > 1):
		return fmt.Errorf("--zipf_s must be > 1, got %v", zipfS)
	case !(zipfV >= 1):
		return fmt.Errorf("--zipf_v must be >= 1, got %v", zipfV)
	}
	return nil
}

// buildTree returns every file path of a complete tree with the given shape.
func buildTree(depth, fanout, files int) []string {
	dirs := []string{""}
	for d := 0; d < depth; d++ {
		next := make([]string, 0, len(dirs)*fanout)
		for _, p := range dirs {
			for i := 0; i < fanout; i++ {
				next = append(next, p+"/d"+strconv.Itoa(d)+"_"+strconv.Itoa(i))
			}
		}
		dirs = next
	}
	out := make([]string, 0, len(dirs)*files)
	for _, p := range dirs {
		for i := 0; i < files; i++ {
			out = append(out, p+"/f"+strconv.Itoa(i))
		}
	}
	return out
}

// workload is a deterministic trace.Source over a fixed path set.
type workload struct {
	paths     []string
	left      int
	r         *rand.Rand
	zipf      *rand.Zipf
	writePct  int
	createPct int
}

func newWorkload(paths []string, n int, seed int64, s, v float64, writePct, createPct int) *workload {
	r := rand.New(rand.NewSource(seed))
	return &workload{
		paths:     paths,
		left:      n,
		r:         r,
		zipf:      rand.NewZipf(r, s, v, uint64(len(paths)-1)),
		writePct:  writePct,
		createPct: createPct,
	}
}

var mutatingOps = [...]trace.Op{trace.OpDelete, trace.OpSetPermission, trace.OpRename}

// Next implements trace.Source.
func (w *workload) Next() (trace.Record, error) {
	if w.left <= 0 {
		return trace.Record{}, io.EOF
	}
	w.left--

	p := w.paths[w.zipf.Uint64()]
	switch x := w.r.Intn(100); {
	case x < w.writePct:
		op := mutatingOps[w.r.Intn(len(mutatingOps))]
		rec := trace.Record{Op: op, Name: op.String(), Path: p}
		if op == trace.OpRename {
			rec.Dst = w.paths[w.zipf.Uint64()]
		}
		return rec, nil
	case x < w.writePct+w.createPct:
		return trace.Record{Op: trace.OpCreate, Name: "create", Path: p}, nil
	default:
		return trace.Record{Op: trace.OpRead, Name: "read", Path: p}, nil
	}
}
