package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/danmuck/edgeinfer/internal/classify"
	"github.com/danmuck/edgeinfer/internal/link"
	"github.com/danmuck/edgeinfer/internal/observability"
	"github.com/danmuck/edgeinfer/internal/protocol/frame"
	"github.com/danmuck/edgeinfer/internal/protocol/lines"
	"github.com/danmuck/edgeinfer/internal/protocol/similarity"
	"github.com/danmuck/edgeinfer/internal/record"
)

var (
	ErrAlreadyRun      = errors.New("session: already run")
	ErrResponseTimeout = errors.New("session: response timeout")
)

// Option customizes a Session before Run.
type Option func(*Session)

// WithPortName labels logs and metrics with the device name.
func WithPortName(name string) Option {
	return func(s *Session) {
		s.name = name
	}
}

// WithNotifier registers fn to receive every Diagnostic, in order, on the
// goroutine running the Session. fn must not block.
func WithNotifier(fn func(Diagnostic)) Option {
	return func(s *Session) {
		if fn != nil {
			s.notify = append(s.notify, fn)
		}
	}
}

// WithEchoTX adds a TX diagnostic after each frame is flushed.
func WithEchoTX() Option {
	return func(s *Session) {
		s.echoTX = true
	}
}

// Session streams records through one exclusively owned Port.
type Session struct {
	id     string
	name   string
	port   link.Port
	router *classify.Router
	cfg    Config
	echoTX bool
	notify []func(Diagnostic)
	log    zerolog.Logger

	lines   *lines.Reassembler
	backlog []string

	state   atomic.Int32
	started atomic.Bool

	mu  sync.Mutex
	sum Summary
}

func New(port link.Port, router *classify.Router, cfg Config, opts ...Option) *Session {
	s := &Session{
		id:     uuid.NewString(),
		name:   "device",
		port:   port,
		router: router,
		cfg:    cfg.WithDefaults(),
		lines:  lines.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = observability.Logger("session").With().Str("session_id", s.id).Str("port", s.name).Logger()
	s.sum.SessionID = s.id
	s.sum.Port = s.name
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Summary returns a copy of the counters so far.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sum
}

// Status is safe to call from any goroutine while Run is in progress.
func (s *Session) Status() Status {
	sum := s.Summary()
	if !sum.StartedAt.IsZero() && sum.Elapsed == 0 {
		sum.Elapsed = time.Since(sum.StartedAt)
	}
	return Status{
		SessionID: s.id,
		Port:      s.name,
		State:     s.State().String(),
		Summary:   sum,
	}
}

// Run processes records until the reader is exhausted, ctx is cancelled or a
// write/flush transport error occurs. Cancellation is observed only between
// records. The Port is closed before Run returns, in every case.
func (s *Session) Run(ctx context.Context, records *record.Reader) (Summary, error) {
	if !s.started.CompareAndSwap(false, true) {
		return s.Summary(), ErrAlreadyRun
	}
	start := time.Now()
	s.update(func(sum *Summary) { sum.StartedAt = start })
	s.log.Info().Int("field_count", s.cfg.FieldCount).Float64("threshold", s.cfg.Threshold).Msg("session.Run start")
	s.emit(Diagnostic{Tag: TagOK, Detail: fmt.Sprintf("Started session %s on %s.", s.id, s.name)})

	err := s.loop(ctx, records)
	s.close()
	s.update(func(sum *Summary) { sum.Elapsed = time.Since(start) })

	sum := s.Summary()
	result := "completed"
	switch {
	case err != nil:
		result = "failed"
	case sum.Cancelled:
		result = "cancelled"
	}
	observability.RecordSession(s.name, result)
	s.log.Info().
		Str("result", result).
		Int("normal", sum.Normal).
		Int("anomaly", sum.Anomaly).
		Int("undetermined", sum.Undetermined).
		Dur("elapsed", sum.Elapsed).
		Msg("session.Run complete")
	return sum, err
}

func (s *Session) loop(ctx context.Context, records *record.Reader) error {
	for {
		if ctx.Err() != nil {
			s.update(func(sum *Summary) { sum.Cancelled = true })
			s.emit(Diagnostic{Tag: TagInfo, Detail: "Stopped at record boundary."})
			return nil
		}
		s.setState(StateIdle)

		rec, err := records.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var lerr *record.LineError
			if errors.As(err, &lerr) {
				s.update(func(sum *Summary) { sum.Lines++ })
				s.reject(lerr)
				continue
			}
			s.log.Error().Err(err).Int("last_line", records.Line()).Msg("session.loop input failed")
			s.emit(Diagnostic{Tag: TagError, Detail: fmt.Sprintf("Input failed after line %d: %v", records.Line(), err)})
			return fmt.Errorf("session: %w", err)
		}
		s.update(func(sum *Summary) { sum.Lines++ })

		if err := s.process(rec); err != nil {
			s.emit(Diagnostic{Tag: TagError, Line: rec.Line, Detail: err.Error()})
			return fmt.Errorf("session: line %d: %w", rec.Line, err)
		}
		s.pause(ctx)
	}
}

// reject reports a line that never reaches the encoder.
func (s *Session) reject(lerr *record.LineError) {
	if errors.Is(lerr, record.ErrShortRecord) {
		s.update(func(sum *Summary) { sum.Skipped++ })
		observability.RecordOutcome(s.name, "skipped")
		s.emit(Diagnostic{Tag: TagWarn, Line: lerr.Line, Detail: detailShortRecord})
		return
	}
	s.update(func(sum *Summary) { sum.Malformed++ })
	observability.RecordOutcome(s.name, "malformed")
	s.emit(Diagnostic{Tag: TagError, Line: lerr.Line, Detail: lerr.Reason()})
}

// process runs one record through send, await and classify. Only a transport
// failure while sending is returned.
func (s *Session) process(rec record.Record) error {
	s.setState(StateSending)
	payload, err := frame.Encode(rec.Values, s.cfg.FieldCount)
	if err != nil {
		s.update(func(sum *Summary) { sum.Malformed++ })
		observability.RecordOutcome(s.name, "malformed")
		s.emit(Diagnostic{Tag: TagError, Line: rec.Line, Detail: err.Error()})
		return nil
	}
	s.discardBacklog(rec.Line)

	n, err := frame.WritePaced(s.port, payload, s.cfg.ValueDelay)
	s.update(func(sum *Summary) { sum.BytesSent += n })
	observability.RecordBytesSent(s.name, n)
	if err != nil {
		return fmt.Errorf("write frame: %w", link.AsTransport("write", err))
	}
	if err := s.port.Flush(); err != nil {
		return fmt.Errorf("flush frame: %w", link.AsTransport("flush", err))
	}
	s.update(func(sum *Summary) { sum.Sent++ })
	s.log.Debug().Int("line", rec.Line).Int("bytes", n).Msg("session.process frame sent")
	if s.echoTX {
		s.emit(Diagnostic{Tag: TagTX, Line: rec.Line, Detail: fmt.Sprintf("Sent %d floats.", len(rec.Values))})
	}

	s.setState(StateAwaitingResponse)
	flushedAt := time.Now()
	line, err := s.await()
	observability.RecordResponse(s.name, time.Since(flushedAt), responseResult(err))

	s.setState(StateClassifying)
	switch {
	case errors.Is(err, ErrResponseTimeout):
		s.undetermined(func(sum *Summary) { sum.Timeouts++ })
		s.emit(Diagnostic{
			Tag:    TagWarn,
			Line:   rec.Line,
			Detail: fmt.Sprintf("No response within %s. Undetermined.", s.cfg.ResponseTimeout),
		})
		return nil
	case err != nil:
		s.undetermined(func(sum *Summary) { sum.ReadErrors++ })
		s.emit(Diagnostic{Tag: TagError, Line: rec.Line, Detail: fmt.Sprintf("read response: %v", err)})
		return nil
	}

	score, ok := similarity.Extract(line)
	outcome := classify.Decide(score, ok, s.cfg.Threshold)
	if err := s.router.Route(rec.Raw, outcome); err != nil {
		s.update(func(sum *Summary) { sum.OutputErrors++ })
		observability.RecordOutcome(s.name, "output_error")
		s.emit(Diagnostic{Tag: TagError, Line: rec.Line, Detail: err.Error()})
		return nil
	}
	s.update(func(sum *Summary) {
		switch outcome {
		case classify.Normal:
			sum.Normal++
		case classify.Anomaly:
			sum.Anomaly++
		default:
			sum.Undetermined++
		}
	})
	observability.RecordOutcome(s.name, outcome.String())
	s.log.Debug().Int("line", rec.Line).Str("outcome", outcome.String()).Bool("scored", ok).Float64("similarity", score).Msg("session.process classified")
	s.emit(Diagnostic{Tag: TagRX, Line: rec.Line, Detail: line})
	return nil
}

// await feeds the reassembler until it yields a line or the per-record
// timeout elapses. Extra lines from the same read are kept as backlog.
func (s *Session) await() (string, error) {
	deadline := time.Now().Add(s.cfg.ResponseTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", ErrResponseTimeout
		}
		chunk, err := s.port.ReadAvailable(min(s.cfg.PollInterval, remaining))
		if err != nil {
			return "", err
		}
		if got := s.lines.Feed(chunk); len(got) > 0 {
			s.backlog = append(s.backlog, got[1:]...)
			return got[0], nil
		}
	}
}

// discardBacklog drops complete lines left over from the previous record so
// they are not mistaken for the next response. An unterminated fragment stays
// in the reassembler and will prefix the next reply, so it is logged.
func (s *Session) discardBacklog(line int) {
	for _, stale := range s.backlog {
		s.log.Debug().Int("line", line).Str("stale", stale).Msg("session.process discarding unsolicited line")
	}
	s.backlog = s.backlog[:0]
	if carried := s.lines.Pending(); carried != "" {
		s.log.Debug().Int("line", line).Str("carried", carried).Msg("session.process partial line carried into response")
	}
}

func responseResult(err error) string {
	switch {
	case err == nil:
		return observability.ResponseLine
	case errors.Is(err, ErrResponseTimeout):
		return observability.ResponseTimeout
	default:
		return observability.ResponseReadError
	}
}

func (s *Session) undetermined(extra func(*Summary)) {
	s.update(func(sum *Summary) {
		sum.Undetermined++
		extra(sum)
	})
	observability.RecordOutcome(s.name, classify.Undetermined.String())
}

func (s *Session) pause(ctx context.Context) {
	if s.cfg.RecordDelay <= 0 {
		return
	}
	t := time.NewTimer(s.cfg.RecordDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (s *Session) close() {
	s.setState(StateClosed)
	if rest := s.lines.Pending(); rest != "" {
		s.log.Debug().Str("fragment", rest).Msg("session.close dropping unterminated device output")
	}
	s.lines.Reset()
	s.backlog = nil
	if err := s.port.Close(); err != nil {
		s.log.Warn().Err(err).Msg("session.close port close failed")
	}
	s.emit(Diagnostic{Tag: TagInfo, Detail: detailPortClosed})
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

func (s *Session) update(fn func(*Summary)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.sum)
}

func (s *Session) emit(d Diagnostic) {
	s.log.Debug().Str("tag", string(d.Tag)).Int("line", d.Line).Msg(d.Detail)
	for _, fn := range s.notify {
		fn(d)
	}
}
