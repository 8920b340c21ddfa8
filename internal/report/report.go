// Package report renders the final counters of a simulation run.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v2"

	"github.com/IvanBrykalov/dircache/sim"
)

// Report is the summary emitted once a trace has been consumed.
type Report struct {
	Capacity int     `json:"capacity" yaml:"capacity"`
	Records  uint64  `json:"records" yaml:"records"`
	Skipped  uint64  `json:"skipped" yaml:"skipped"`
	Lookups  uint64  `json:"lookups" yaml:"lookups"`
	Hits     uint64  `json:"hits" yaml:"hits"`
	Writes   uint64  `json:"writes" yaml:"writes"`
	HitRatio float64 `json:"hit_ratio" yaml:"hit_ratio"`
}

// New builds a Report from a finished run.
func New(capacity int, res sim.Result, skipped uint64) Report {
	return Report{
		Capacity: capacity,
		Records:  res.Records,
		Skipped:  skipped,
		Lookups:  res.Counters.Lookups,
		Hits:     res.Counters.Hits,
		Writes:   res.Counters.Writes,
		HitRatio: res.Counters.HitRatio(),
	}
}

// Write renders r in format: "text" prints "lookups hits writes" on one
// line, "json" and "yaml" print every field.
func Write(w io.Writer, format string, r Report) error {
	switch format {
	case "", "text":
		_, err := fmt.Fprintf(w, "%d %d %d\n", r.Lookups, r.Hits, r.Writes)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		out, err := yaml.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
