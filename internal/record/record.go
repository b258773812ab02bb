package record

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultFieldCount is the vector length the inference firmware expects.
const DefaultFieldCount = 140

const maxLineBytes = 1 << 20

var (
	ErrShortRecord    = errors.New("record: too few values")
	ErrMalformedField = errors.New("record: malformed field")
)

// Record is one input line that parsed into exactly N values.
type Record struct {
	Line   int
	Raw    string
	Values []float64
}

// LineError reports a line that cannot become a Record. It never stops the Reader.
type LineError struct {
	Line   int
	Field  int
	Fields int
	Value  string
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("record: line %d: %s", e.Line, e.Reason())
}

// Reason describes the problem without the line prefix.
func (e *LineError) Reason() string {
	if errors.Is(e.Err, ErrMalformedField) {
		return fmt.Sprintf("field %d: invalid value %q", e.Field+1, e.Value)
	}
	return fmt.Sprintf("%d values", e.Fields)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Reader yields Records from comma-delimited text, one per line.
// It is single-pass: once a line is consumed it is not seen again.
type Reader struct {
	sc   *bufio.Scanner
	n    int
	line int
}

func NewReader(r io.Reader, n int) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	sc.Split(scanLines)
	return &Reader{sc: sc, n: n}
}

// scanLines is bufio.ScanLines that also ends a line on a bare \r, so files
// saved with classic Mac line endings are read line by line.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		switch {
		case i+1 < len(data) && data[i+1] == '\n':
			return i + 2, data[:i], nil
		case i+1 < len(data) || atEOF:
			return i + 1, data[:i], nil
		}
		// a \r at the end of the buffer may be half of \r\n
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Next returns the next Record, a *LineError for a line that was skipped, or
// io.EOF once the input is exhausted. Any other error comes from the source.
func (r *Reader) Next() (Record, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return Record{}, fmt.Errorf("record: read line %d: %w", r.line+1, err)
		}
		return Record{}, io.EOF
	}
	r.line++
	return Parse(r.line, r.sc.Text(), r.n)
}

// Line is the 1-based number of the last line consumed.
func (r *Reader) Line() int {
	return r.line
}

// Parse converts one raw line into a Record with exactly n values.
// Extra fields are ignored; they stay in Raw.
func Parse(line int, raw string, n int) (Record, error) {
	raw = strings.TrimRight(raw, "\r\n")
	fields := strings.Split(raw, ",")
	if strings.TrimSpace(raw) == "" {
		fields = nil
	}
	if len(fields) < n {
		return Record{}, &LineError{Line: line, Fields: len(fields), Err: ErrShortRecord}
	}
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		field := strings.TrimSpace(fields[i])
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Record{}, &LineError{Line: line, Field: i, Fields: len(fields), Value: field, Err: ErrMalformedField}
		}
		values[i] = v
	}
	return Record{Line: line, Raw: raw, Values: values}, nil
}
