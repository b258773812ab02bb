package classify

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

var ErrNoDestination = errors.New("classify: destination not configured")

// Router appends raw records to the Normal or Anomaly destination.
// Destinations are write-only; nothing is ever read back.
type Router struct {
	mu      sync.Mutex
	normal  io.Writer
	anomaly io.Writer
	counts  map[Outcome]int
}

func NewRouter(normal, anomaly io.Writer) *Router {
	return &Router{
		normal:  normal,
		anomaly: anomaly,
		counts:  make(map[Outcome]int),
	}
}

// Route appends raw plus a newline to the destination for outcome.
// Undetermined records are counted and dropped.
func (r *Router) Route(raw string, outcome Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dst io.Writer
	switch outcome {
	case Normal:
		dst = r.normal
	case Anomaly:
		dst = r.anomaly
	default:
		r.counts[Undetermined]++
		return nil
	}
	if dst == nil {
		return fmt.Errorf("%w: %s", ErrNoDestination, outcome)
	}
	if _, err := io.WriteString(dst, raw+"\n"); err != nil {
		return fmt.Errorf("classify: write %s output: %w", outcome, err)
	}
	r.counts[outcome]++
	return nil
}

// Count reports how many records were routed to outcome.
func (r *Router) Count(outcome Outcome) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[outcome]
}

// Files are the two output destinations opened for one session.
type Files struct {
	Normal  *os.File
	Anomaly *os.File
}

// OpenFiles opens both destinations for appending. Existing content is
// truncated first unless keep is set.
func OpenFiles(normalPath, anomalyPath string, keep bool) (*Files, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if !keep {
		flags |= os.O_TRUNC
	}
	normal, err := os.OpenFile(normalPath, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("classify: open normal output: %w", err)
	}
	anomaly, err := os.OpenFile(anomalyPath, flags, 0o644)
	if err != nil {
		_ = normal.Close()
		return nil, fmt.Errorf("classify: open anomaly output: %w", err)
	}
	return &Files{Normal: normal, Anomaly: anomaly}, nil
}

func (f *Files) Router() *Router {
	return NewRouter(f.Normal, f.Anomaly)
}

func (f *Files) Close() error {
	return errors.Join(f.Normal.Close(), f.Anomaly.Close())
}
