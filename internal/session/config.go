package session

import (
	"time"

	"github.com/danmuck/edgeinfer/internal/classify"
	"github.com/danmuck/edgeinfer/internal/record"
)

// Config defines pacing, timeouts and classification for a Session.
type Config struct {
	FieldCount      int
	Threshold       float64
	ValueDelay      time.Duration
	RecordDelay     time.Duration
	ResponseTimeout time.Duration
	PollInterval    time.Duration
}

// DefaultConfig matches the inference firmware's expectations.
func DefaultConfig() Config {
	return Config{
		FieldCount:      record.DefaultFieldCount,
		Threshold:       classify.DefaultThreshold,
		ValueDelay:      time.Millisecond,
		RecordDelay:     50 * time.Millisecond,
		ResponseTimeout: 2 * time.Second,
		PollInterval:    50 * time.Millisecond,
	}
}

// WithDefaults fills zero fields from DefaultConfig. A zero threshold or delay
// is a valid setting, so only negative values of those are replaced.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.FieldCount <= 0 {
		c.FieldCount = d.FieldCount
	}
	if c.Threshold < 0 {
		c.Threshold = d.Threshold
	}
	if c.ValueDelay < 0 {
		c.ValueDelay = d.ValueDelay
	}
	if c.RecordDelay < 0 {
		c.RecordDelay = d.RecordDelay
	}
	if c.ResponseTimeout <= 0 {
		c.ResponseTimeout = d.ResponseTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.PollInterval > c.ResponseTimeout {
		c.PollInterval = c.ResponseTimeout
	}
	return c
}
