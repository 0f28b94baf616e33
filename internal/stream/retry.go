package stream

import (
	"context"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// Backoff controls how Open retries a stream that is not there yet.
// Attempts <= 1 means a single try.
type Backoff struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

func DefaultBackoff() Backoff {
	return Backoff{
		Attempts:     1,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
	}
}

// NextDelay returns the wait before retry N (1-based):
// InitialDelay * Multiplier^(N-1), capped at MaxDelay, then jittered into
// [0.5, 1.5) of that when Jitter is set. A nil rng jitters to exactly 0.5.
func NextDelay(b Backoff, attempt int, rng *rand.Rand) time.Duration {
	if b.InitialDelay <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	growth := math.Max(b.Multiplier, 1)
	delay := float64(b.InitialDelay) * math.Pow(growth, float64(attempt-1))
	if b.MaxDelay > 0 {
		delay = math.Min(delay, float64(b.MaxDelay))
	}
	if b.Jitter {
		scale := 0.5
		if rng != nil {
			scale += rng.Float64()
		}
		delay *= scale
	}
	return time.Duration(delay)
}

// Retry calls open until it succeeds, ctx ends or b.Attempts is used up.
// The last open error is returned.
func Retry(ctx context.Context, b Backoff, open func(context.Context) (io.ReadWriteCloser, error)) (io.ReadWriteCloser, error) {
	attempts := b.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var rng *rand.Rand
	if b.Jitter {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		rw, err := open(ctx)
		if err == nil {
			return rw, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		delay := NextDelay(b, attempt, rng)
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("stream open failed")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}
