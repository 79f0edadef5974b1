package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

var fast = RetryConfig{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
}

func TestRetry_EventualSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "flaky", fast, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_AllFail(t *testing.T) {
	cause := errors.New("down")
	calls := 0
	err := Retry(context.Background(), "down", fast, func() error {
		calls++
		return cause
	})
	if !errors.Is(err, cause) {
		t.Fatalf("Retry error = %v, want wrapped cause", err)
	}
	if calls != fast.MaxAttempts {
		t.Errorf("calls = %d, want %d", calls, fast.MaxAttempts)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, "cancelled", fast, func() error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Retry error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestComputeDelay_Capped(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 2 * time.Second, Multiplier: 10, JitterFraction: 0.1}
	if d := computeDelay(5, cfg); d != 2*time.Second {
		t.Errorf("computeDelay = %v, want cap of 2s", d)
	}
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), 10*time.Millisecond, "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WithTimeout error = %v, want DeadlineExceeded", err)
	}

	if err := WithTimeout(context.Background(), 0, "unbounded", func(context.Context) error { return nil }); err != nil {
		t.Errorf("zero timeout error = %v", err)
	}
}

func TestGuard(t *testing.T) {
	calls := 0
	err := Guard(context.Background(), "mirror", 50*time.Millisecond, fast, func(ctx context.Context) error {
		calls++
		if _, ok := ctx.Deadline(); !ok {
			t.Error("attempt context has no deadline")
		}
		if calls == 1 {
			return errors.New("first attempt fails")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Guard error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetry_PermanentStops(t *testing.T) {
	cause := errors.New("bad table")
	calls := 0
	err := Retry(context.Background(), "permanent", fast, func() error {
		calls++
		return Permanent(cause)
	})
	if !errors.Is(err, cause) {
		t.Fatalf("Retry error = %v, want wrapped cause", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestGuard_AttemptsDoNotOverlap(t *testing.T) {
	var inFlight, maxInFlight, calls atomic.Int32
	err := Guard(context.Background(), "slow mirror", 5*time.Millisecond, fast, func(context.Context) error {
		calls.Add(1)
		n := inFlight.Add(1)
		if n > maxInFlight.Load() {
			maxInFlight.Store(n)
		}
		// ignores its context on purpose
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return errors.New("still slow")
	})
	if err == nil {
		t.Fatal("expected an error after all attempts failed")
	}
	if got := calls.Load(); got != int32(fast.MaxAttempts) {
		t.Errorf("calls = %d, want %d", got, fast.MaxAttempts)
	}
	if got := maxInFlight.Load(); got != 1 {
		t.Errorf("attempts in flight at once = %d, want 1", got)
	}
	if got := inFlight.Load(); got != 0 {
		t.Errorf("Guard returned with %d attempts still running", got)
	}
}
