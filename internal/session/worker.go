package session

import (
	"context"
	"sync"

	"github.com/danmuck/edgeinfer/internal/record"
)

// Result is the single terminal notification of a Worker.
type Result struct {
	Summary Summary
	Err     error
}

// Worker runs one Session off the caller's goroutine so an interactive
// foreground stays responsive. Diagnostics are queued without bound and relayed
// to Progress in order, so a slow consumer never stalls the pipeline and never
// loses a message.
type Worker struct {
	session  *Session
	progress chan Diagnostic
	done     chan Result
	cancel   context.CancelFunc

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Diagnostic
	drained bool
}

// Start launches sess on a new goroutine. buffer sizes the progress channel.
// Callers must drain Progress; Done delivers only after it is closed.
func Start(ctx context.Context, sess *Session, records *record.Reader, buffer int) *Worker {
	if buffer < 1 {
		buffer = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	w := &Worker{
		session:  sess,
		progress: make(chan Diagnostic, buffer),
		done:     make(chan Result, 1),
		cancel:   cancel,
	}
	w.cond = sync.NewCond(&w.mu)
	sess.notify = append(sess.notify, w.publish)

	relayed := make(chan struct{})
	go func() {
		defer close(relayed)
		w.relay()
	}()

	go func() {
		defer cancel()
		sum, err := sess.Run(ctx, records)
		w.mu.Lock()
		w.drained = true
		w.mu.Unlock()
		w.cond.Broadcast()

		<-relayed
		w.done <- Result{Summary: sum, Err: err}
		close(w.done)
	}()
	return w
}

// Progress yields one Diagnostic per processed record plus lifecycle
// messages. It is closed before Done delivers.
func (w *Worker) Progress() <-chan Diagnostic {
	return w.progress
}

// Done delivers exactly one Result and is then closed.
func (w *Worker) Done() <-chan Result {
	return w.done
}

// Cancel asks the Session to stop at the next record boundary.
func (w *Worker) Cancel() {
	w.cancel()
}

func (w *Worker) Session() *Session {
	return w.session
}

// publish runs on the Session goroutine and never blocks on the consumer.
func (w *Worker) publish(d Diagnostic) {
	w.mu.Lock()
	w.queue = append(w.queue, d)
	w.mu.Unlock()
	w.cond.Signal()
}

func (w *Worker) relay() {
	defer close(w.progress)
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.drained {
			w.cond.Wait()
		}
		batch := w.queue
		w.queue = nil
		w.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, d := range batch {
			w.progress <- d
		}
	}
}
