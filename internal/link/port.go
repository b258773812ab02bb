package link

import (
	"errors"
	"fmt"
	"time"
)

// ErrTransport marks a failure of the link itself: open, write, flush, read or
// device removal. A Session treats write/flush transport errors as fatal.
var ErrTransport = errors.New("link: transport failure")

// ErrBadConfig is returned by Open before the device is touched.
var ErrBadConfig = errors.New("link: invalid port config")

// Port is the narrow byte channel a Session owns for its lifetime.
type Port interface {
	// Write may block while the channel applies backpressure.
	Write(p []byte) (int, error)
	// Flush blocks until everything written has left the host.
	Flush() error
	// ReadAvailable returns as soon as any bytes are present, or an empty
	// slice once timeout elapses. It never blocks indefinitely.
	ReadAvailable(timeout time.Duration) ([]byte, error)
	Close() error
}

// Config selects and opens a serial device.
type Config struct {
	Name         string
	Baud         int
	SettleDelay  time.Duration
	OpenAttempts int
	Backoff      Backoff
}

func DefaultConfig() Config {
	return Config{
		Baud:         115200,
		SettleDelay:  2 * time.Second,
		OpenAttempts: 1,
		Backoff:      DefaultBackoff(),
	}
}

// AsTransport wraps err in ErrTransport unless it already is one.
func AsTransport(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}
