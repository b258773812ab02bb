package link

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

const readChunk = 4096

// Serial is a Port backed by a local serial device.
type Serial struct {
	name string
	port serial.Port

	mu          sync.Mutex
	buf         []byte
	readTimeout time.Duration
	closed      bool
}

// Open opens cfg.Name at cfg.Baud (8N1), waits out the settle delay and then
// drops whatever the device printed while it was resetting.
func Open(ctx context.Context, cfg Config) (*Serial, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: missing port name", ErrBadConfig)
	}
	if cfg.Baud <= 0 {
		return nil, fmt.Errorf("%w: %s: invalid baud rate %d", ErrBadConfig, name, cfg.Baud)
	}

	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, AsTransport("open "+name, err)
	}
	s := &Serial{name: name, port: p, buf: make([]byte, readChunk), readTimeout: -1}

	if cfg.SettleDelay > 0 {
		log.Debug().Str("port", name).Dur("settle", cfg.SettleDelay).Msg("link.Open waiting for device reset")
		timer := time.NewTimer(cfg.SettleDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = p.Close()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if err := p.ResetInputBuffer(); err != nil {
		_ = p.Close()
		return nil, AsTransport("reset input "+name, err)
	}
	log.Info().Str("port", name).Int("baud", cfg.Baud).Msg("link.Open ready")
	return s, nil
}

func (s *Serial) Write(p []byte) (int, error) {
	n, err := s.port.Write(p)
	if err != nil {
		return n, AsTransport("write", err)
	}
	return n, nil
}

func (s *Serial) Flush() error {
	return AsTransport("flush", s.port.Drain())
}

func (s *Serial) ReadAvailable(timeout time.Duration) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("%w: read: port closed", ErrTransport)
	}
	if timeout < 0 {
		timeout = 0
	}
	if timeout != s.readTimeout {
		if err := s.port.SetReadTimeout(timeout); err != nil {
			return nil, AsTransport("set read timeout", err)
		}
		s.readTimeout = timeout
	}
	n, err := s.port.Read(s.buf)
	if err != nil {
		return nil, AsTransport("read", err)
	}
	out := make([]byte, n)
	copy(out, s.buf[:n])
	return out, nil
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	log.Debug().Str("port", s.name).Msg("link.Serial close")
	return AsTransport("close", s.port.Close())
}
