package link

import (
	"fmt"
	"sync"
	"time"

	"github.com/danmuck/edgeinfer/internal/protocol/frame"
)

// Responder builds the device reply for one decoded frame. A nil or empty
// reply means the device stays silent for that frame.
type Responder func(values []float32) []byte

// Loopback is an in-memory Port that behaves like the inference device:
// every complete frame that is flushed gets decoded and answered by a Responder.
// Replies can be handed out in small chunks to exercise line reassembly.
type Loopback struct {
	mu        sync.Mutex
	n         int
	respond   Responder
	chunkSize int
	pending   []byte
	rx        []byte
	frames    [][]float32
	writes    int
	closed    bool
	writeErr  error
	flushErr  error
	readErr   error
	notify    chan struct{}
}

func NewLoopback(n int, respond Responder) *Loopback {
	return &Loopback{
		n:       n,
		respond: respond,
		notify:  make(chan struct{}, 1),
	}
}

// WithChunkSize limits how many bytes one ReadAvailable returns.
func (l *Loopback) WithChunkSize(size int) *Loopback {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chunkSize = size
	return l
}

// FailWrites makes every following Write fail with err.
func (l *Loopback) FailWrites(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeErr = err
}

// FailFlush makes every following Flush fail with err.
func (l *Loopback) FailFlush(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flushErr = err
}

// FailReads makes every following ReadAvailable fail with err.
func (l *Loopback) FailReads(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.readErr = err
}

// Inject queues unsolicited device output.
func (l *Loopback) Inject(p []byte) {
	l.mu.Lock()
	l.rx = append(l.rx, p...)
	l.mu.Unlock()
	l.wake()
}

func (l *Loopback) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, fmt.Errorf("%w: write: loopback closed", ErrTransport)
	}
	if l.writeErr != nil {
		return 0, AsTransport("write", l.writeErr)
	}
	l.writes++
	l.pending = append(l.pending, p...)
	return len(p), nil
}

func (l *Loopback) Flush() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return fmt.Errorf("%w: flush: loopback closed", ErrTransport)
	}
	if l.flushErr != nil {
		err := l.flushErr
		l.mu.Unlock()
		return AsTransport("flush", err)
	}
	size := frame.Len(l.n)
	replied := false
	for size > 0 && len(l.pending) >= size {
		values, err := frame.Decode(l.pending[:size])
		l.pending = l.pending[size:]
		if err != nil {
			continue
		}
		l.frames = append(l.frames, values)
		if l.respond != nil {
			if reply := l.respond(values); len(reply) > 0 {
				l.rx = append(l.rx, reply...)
				replied = true
			}
		}
	}
	l.mu.Unlock()
	if replied {
		l.wake()
	}
	return nil
}

func (l *Loopback) ReadAvailable(timeout time.Duration) ([]byte, error) {
	var timer <-chan time.Time
	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return nil, fmt.Errorf("%w: read: loopback closed", ErrTransport)
		}
		if l.readErr != nil {
			err := l.readErr
			l.mu.Unlock()
			return nil, AsTransport("read", err)
		}
		if len(l.rx) > 0 {
			n := len(l.rx)
			if l.chunkSize > 0 && n > l.chunkSize {
				n = l.chunkSize
			}
			out := append([]byte(nil), l.rx[:n]...)
			l.rx = l.rx[n:]
			l.mu.Unlock()
			return out, nil
		}
		l.mu.Unlock()

		if timeout <= 0 {
			return []byte{}, nil
		}
		if timer == nil {
			t := time.NewTimer(timeout)
			defer t.Stop()
			timer = t.C
		}
		select {
		case <-l.notify:
		case <-timer:
			return []byte{}, nil
		}
	}
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wake()
	return nil
}

// Frames returns every frame decoded so far.
func (l *Loopback) Frames() [][]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]float32, len(l.frames))
	copy(out, l.frames)
	return out
}

// Writes counts Write calls, i.e. paced value writes.
func (l *Loopback) Writes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writes
}

func (l *Loopback) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Loopback) wake() {
	select {
	case l.notify <- struct{}{}:
	default:
	}
}
