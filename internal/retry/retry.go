package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy describes a bounded retry strategy: a fixed delay between
// attempts plus an optional random jitter added to each wait. Every
// error is treated as transient; classification happens at the caller.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Jitter      time.Duration
}

// Do runs fn up to MaxAttempts times, sleeping Delay (+ jitter) between
// attempts. It returns nil as soon as fn succeeds, the last error once
// attempts are exhausted, or ctx.Err() if the context ends first.
func Do(ctx context.Context, p Policy, fn func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err

			if attempt == p.MaxAttempts {
				return fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, err)
			}

			delay := p.Delay
			if p.Jitter > 0 {
				delay += time.Duration(rand.Int63n(int64(p.Jitter)))
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
		return nil
	}

	return lastErr
}
