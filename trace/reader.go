package trace

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Source yields records one at a time and returns io.EOF when exhausted.
type Source interface {
	Next() (Record, error)
}

// maxLine bounds a single trace line; long HDFS paths fit comfortably.
const maxLine = 1 << 20

// Reader streams Records from a text trace.
// Blank lines and lines starting with '#' are skipped.
type Reader struct {
	sc      *bufio.Scanner
	line    uint64
	lenient bool
	skipped uint64
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLenient makes the reader skip malformed lines (counted in Skipped)
// instead of returning an error.
func WithLenient(on bool) ReaderOption {
	return func(r *Reader) { r.lenient = on }
}

// NewReader wraps r.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	rd := &Reader{sc: sc}
	for _, o := range opts {
		o(rd)
	}
	return rd
}

// Next returns the next record, or io.EOF once the input is consumed.
// Parse errors carry the 1-based line number and wrap ErrMalformed.
func (r *Reader) Next() (Record, error) {
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSpace(r.sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		rec, err := ParseLine(text)
		if err != nil {
			if r.lenient {
				r.skipped++
				continue
			}
			return Record{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return rec, nil
	}
	if err := r.sc.Err(); err != nil {
		return Record{}, fmt.Errorf("line %d: %w", r.line+1, err)
	}
	return Record{}, io.EOF
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() uint64 { return r.line }

// Skipped returns the number of malformed lines dropped in lenient mode.
func (r *Reader) Skipped() uint64 { return r.skipped }

// SliceSource replays an in-memory record slice.
type SliceSource struct {
	recs []Record
	pos  int
}

// NewSliceSource returns a Source over recs.
func NewSliceSource(recs ...Record) *SliceSource { return &SliceSource{recs: recs} }

// Next implements Source.
func (s *SliceSource) Next() (Record, error) {
	if s.pos >= len(s.recs) {
		return Record{}, io.EOF
	}
	rec := s.recs[s.pos]
	s.pos++
	return rec, nil
}

var (
	_ Source = (*Reader)(nil)
	_ Source = (*SliceSource)(nil)
)
