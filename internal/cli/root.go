// Package cli provides the dircachesim command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/dircache/cache"
	"github.com/IvanBrykalov/dircache/internal/config"
	"github.com/IvanBrykalov/dircache/internal/logging"
	"github.com/IvanBrykalov/dircache/internal/report"
	pmet "github.com/IvanBrykalov/dircache/metrics/prom"
	"github.com/IvanBrykalov/dircache/sim"
	"github.com/IvanBrykalov/dircache/trace"
)

const shutdownTimeout = 5 * time.Second

// NewRootCmd creates the root command.
func NewRootCmd(version string) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "dircachesim [trace-file]",
		Short: "Replay a namespace trace through a path-lookup LRU cache",
		Long: `dircachesim replays a metadata operation trace against a fixed-capacity
LRU cache of path components and reports lookups, hits and
write-invalidations. Use '-' to read the trace from stdin.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Trace = args[0]
			}
			log, err := logging.New(cmd.ErrOrStderr(), logging.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
			})
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), log)
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "YAML config file")
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// run executes one simulation and writes the report to out.
func run(ctx context.Context, cfg *config.Config, stdin io.Reader, out io.Writer, log zerolog.Logger) error {
	if cfg.Trace == "" {
		return errors.New("no trace given: pass a file argument, --trace, or '-' for stdin")
	}
	in := stdin
	if cfg.Trace != "-" {
		f, err := os.Open(cfg.Trace)
		if err != nil {
			return fmt.Errorf("failed to open trace: %w", err)
		}
		defer f.Close()
		in = f
	}

	copt := cache.Options{Capacity: cfg.Capacity}
	sopt := sim.Options{Root: cfg.Root}
	var srv *http.Server
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		m := pmet.New(reg, cfg.Metrics.Namespace, "sim", nil)
		copt.Metrics = m
		sopt.Recorder = m

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	c, err := cache.New(copt)
	if err != nil {
		return err
	}
	s := sim.New(c, sopt)
	rd := trace.NewReader(in, trace.WithLenient(cfg.Lenient))

	log.Info().
		Int("capacity", cfg.Capacity).
		Str("trace", cfg.Trace).
		Str("root", cfg.Root).
		Msg("simulation started")

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)

	if srv != nil {
		g.Go(func() error {
			log.Info().Str("addr", srv.Addr).Msg("metrics: serving /metrics")
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	var res sim.Result
	start := time.Now()
	g.Go(func() error {
		defer stop()
		var err error
		res, err = s.Run(gctx, rd, sim.RunOptions{
			ProgressEvery: uint64(cfg.ProgressEvery),
			Progress: func(n uint64, cnt sim.Counters) {
				log.Info().
					Uint64("records", n).
					Uint64("lookups", cnt.Lookups).
					Float64("hit_ratio", cnt.HitRatio()).
					Msg("progress")
			},
		})
		return err
	})
	if err := g.Wait(); err != nil {
		if !errors.Is(err, context.Canceled) || ctx.Err() == nil {
			return err
		}
		// Interrupted: report what was consumed before stopping.
		log.Warn().
			Uint64("records", res.Records).
			Uint64("lookups", res.Counters.Lookups).
			Uint64("hits", res.Counters.Hits).
			Uint64("writes", res.Counters.Writes).
			Msg("simulation interrupted")
		if werr := report.Write(out, cfg.Output, report.New(cfg.Capacity, res, rd.Skipped())); werr != nil {
			return errors.Join(err, werr)
		}
		return err
	}

	log.Info().
		Uint64("records", res.Records).
		Uint64("skipped", rd.Skipped()).
		Int("resident", c.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("simulation finished")

	return report.Write(out, cfg.Output, report.New(cfg.Capacity, res, rd.Skipped()))
}
