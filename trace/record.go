package trace

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned for trace lines that cannot form a Record.
var ErrMalformed = errors.New("trace: malformed record")

// Field positions in a trace line: timestamp, client, op, src[, dst].
const (
	fieldOp  = 2
	fieldSrc = 3
	fieldDst = 4
)

// Record is one parsed trace operation.
type Record struct {
	Op   Op
	Name string // command name as it appeared in the trace
	Path string
	Dst  string // rename destination; empty otherwise
}

// ParseLine parses a single whitespace-delimited trace line.
// The destination field is required only for rename.
func ParseLine(line string) (Record, error) {
	fs := strings.Fields(line)
	if len(fs) <= fieldSrc {
		return Record{}, fmt.Errorf("%w: want at least %d fields, got %d", ErrMalformed, fieldSrc+1, len(fs))
	}
	rec := Record{
		Op:   ParseOp(fs[fieldOp]),
		Name: fs[fieldOp],
		Path: fs[fieldSrc],
	}
	if rec.Op == OpRename {
		if len(fs) <= fieldDst {
			return Record{}, fmt.Errorf("%w: rename without destination", ErrMalformed)
		}
		rec.Dst = fs[fieldDst]
	}
	return rec, nil
}
