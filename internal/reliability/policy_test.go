package reliability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

func TestDelayDoublesAndCaps(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: 500 * time.Millisecond}

	prev := time.Duration(0)
	for attempt := 0; attempt < 6; attempt++ {
		d := p.Delay(attempt)
		if d < prev {
			t.Fatalf("Delay(%d) = %v, decreased from %v", attempt, d, prev)
		}
		if d > p.MaxDelay {
			t.Fatalf("Delay(%d) = %v, exceeds cap %v", attempt, d, p.MaxDelay)
		}
		prev = d
	}
	if p.Delay(0) != 100*time.Millisecond {
		t.Fatalf("Delay(0) = %v, want base delay", p.Delay(0))
	}
}

func TestDelayJitterStaysMonotone(t *testing.T) {
	p := Policy{BaseDelay: 10 * time.Millisecond, MaxDelay: time.Minute, JitterFrac: 0.2}

	for i := 0; i < 50; i++ {
		a := p.Delay(0)
		b := p.Delay(1)
		c := p.Delay(2)
		if a > b || b > c {
			t.Fatalf("jittered delays not monotone: %v %v %v", a, b, c)
		}
		if a < 10*time.Millisecond || a > 12*time.Millisecond {
			t.Fatalf("Delay(0) = %v, want within 20%% above base", a)
		}
	}
}

func TestRunRetriesRateLimitThenSucceeds(t *testing.T) {
	p := Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		MaxDelay:    4 * time.Millisecond,
		Retryable:   IsRetryableModelError,
	}

	rateLimited := &openai.APIError{HTTPStatusCode: 429, Message: "too many requests"}
	calls := 0
	err := p.Run(context.Background(), func() error {
		calls++
		if calls <= 3 {
			return rateLimited
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if calls != 4 {
		t.Fatalf("calls = %d, want 4 (3 rate limits + success)", calls)
	}
}

func TestRunStopsImmediatelyOnTerminalError(t *testing.T) {
	p := DefaultPolicy(IsRetryableModelError)
	p.BaseDelay = time.Millisecond

	terminal := &openai.APIError{HTTPStatusCode: 401, Message: "invalid key"}
	calls := 0
	err := p.Run(context.Background(), func() error {
		calls++
		return terminal
	})
	if !errors.Is(err, terminal) {
		t.Fatalf("Run() error = %v, want terminal error", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 for terminal error", calls)
	}
}

func TestRunExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	p := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Retryable:   func(error) bool { return true },
	}

	calls := 0
	wantErr := fmt.Errorf("rate limit hit %d", 3)
	err := p.Run(context.Background(), func() error {
		calls++
		return fmt.Errorf("rate limit hit %d", calls)
	})
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if err == nil || err.Error() != wantErr.Error() {
		t.Fatalf("Run() error = %v, want last error %v", err, wantErr)
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	p := Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Hour,
		Retryable:   func(error) bool { return true },
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := p.Run(ctx, func() error { return errors.New("always failing") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func TestIsRetryableModelError(t *testing.T) {
	if !IsRetryableModelError(&openai.APIError{HTTPStatusCode: 429}) {
		t.Fatalf("429 APIError should be retryable")
	}
	if IsRetryableModelError(&openai.APIError{HTTPStatusCode: 500}) {
		t.Fatalf("500 APIError should be terminal")
	}
	if !IsRetryableModelError(&openai.RequestError{HTTPStatusCode: 429, Err: errors.New("x")}) {
		t.Fatalf("429 RequestError should be retryable")
	}
	if !IsRetryableModelError(errors.New("upstream RATE LIMIT exceeded")) {
		t.Fatalf("rate-limit message should be retryable")
	}
	if IsRetryableModelError(errors.New("bad request")) {
		t.Fatalf("generic error should be terminal")
	}
	if IsRetryableModelError(nil) {
		t.Fatalf("nil should not be retryable")
	}
}
