package link

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// Backoff spaces out open attempts while a USB device re-enumerates after
// reset.
type Backoff struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

func DefaultBackoff() Backoff {
	return Backoff{
		InitialDelay: 500 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       true,
	}
}

// Delay returns the wait before attempt N (1-based) is retried.
func (b Backoff) Delay(attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 {
		return b.InitialDelay
	}
	if b.InitialDelay <= 0 {
		return 0
	}
	if b.Multiplier < 1.0 {
		b.Multiplier = 1.0
	}
	delay := float64(b.InitialDelay) * math.Pow(b.Multiplier, float64(attempt-1))
	if b.MaxDelay > 0 && delay > float64(b.MaxDelay) {
		delay = float64(b.MaxDelay)
	}
	if b.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay = delay * f
	}
	return time.Duration(delay)
}

// Retry calls open until it succeeds, attempts are used up or ctx ends.
// Only transport failures are retried.
func Retry[T any](ctx context.Context, attempts int, b Backoff, open func(context.Context) (T, error)) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := open(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !errors.Is(err, ErrTransport) || attempt == attempts {
			break
		}

		delay := b.Delay(attempt, rng)
		log.Warn().Err(err).Int("attempt", attempt).Int("attempts", attempts).Dur("retry_in", delay).Msg("link.Retry open failed")
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, lastErr
}

// OpenWithRetry opens cfg.Name, retrying up to cfg.OpenAttempts times.
func OpenWithRetry(ctx context.Context, cfg Config) (*Serial, error) {
	return Retry(ctx, cfg.OpenAttempts, cfg.Backoff, func(ctx context.Context) (*Serial, error) {
		return Open(ctx, cfg)
	})
}
