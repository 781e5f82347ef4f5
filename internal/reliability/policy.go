package reliability

import (
	"context"
	"math/rand"
	"time"
)

// Policy is a reusable backoff policy for calls into external collaborators.
// Only failures accepted by Retryable are retried; other failures surface
// immediately.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// JitterFrac adds up to this fraction of the computed delay as random
	// jitter. Must stay below 1 so delays remain monotonically non-decreasing.
	JitterFrac float64
	Retryable  func(error) bool
	OnRetry    func(attempt int, err error)
}

// DefaultPolicy returns the service-wide model-call policy.
func DefaultPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
		JitterFrac:  0.2,
		Retryable:   retryable,
	}
}

// Delay computes the capped, jittered backoff before retry number attempt
// (0-based: the delay after the first failure is Delay(0)).
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	if p.JitterFrac > 0 {
		d += time.Duration(rand.Float64() * p.JitterFrac * float64(d))
	}
	return d
}

// Run executes fn, retrying retryable failures with backoff until the
// attempt ceiling or context cancellation. The returned error is nil on
// success, the terminal error, or the last retryable error once attempts
// are exhausted.
func (p Policy) Run(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(p.Delay(attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
	}
	return lastErr
}
