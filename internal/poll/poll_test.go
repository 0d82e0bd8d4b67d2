package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestUntilImmediateSuccess(t *testing.T) {
	calls := 0
	elapsed, err := Until(context.Background(), Options{Interval: time.Second, Timeout: time.Second}, func(context.Context) bool {
		calls++
		return true
	})
	if err != nil {
		t.Fatalf("Until failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 evaluation, got %d", calls)
	}
	if elapsed > 100*time.Millisecond {
		t.Errorf("Expected near-zero elapsed, got %v", elapsed)
	}
}

func TestUntilBecomesTrue(t *testing.T) {
	ready := time.Now().Add(60 * time.Millisecond)
	elapsed, err := Until(context.Background(), Options{Interval: 5 * time.Millisecond, Timeout: time.Second}, func(context.Context) bool {
		return !time.Now().Before(ready)
	})
	if err != nil {
		t.Fatalf("Until failed: %v", err)
	}
	if elapsed < 60*time.Millisecond {
		t.Errorf("Returned before condition could hold: %v", elapsed)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("Returned far too late: %v", elapsed)
	}
}

func TestUntilTimeout(t *testing.T) {
	for _, interval := range []time.Duration{0, 7 * time.Millisecond} {
		timeout := 80 * time.Millisecond
		elapsed, err := Until(context.Background(), Options{Interval: interval, Timeout: timeout}, func(context.Context) bool {
			return false
		})
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("interval %v: expected ErrTimeout, got %v", interval, err)
		}
		if elapsed < timeout {
			t.Errorf("interval %v: timed out early after %v", interval, elapsed)
		}
		if elapsed > timeout+200*time.Millisecond {
			t.Errorf("interval %v: timed out late after %v", interval, elapsed)
		}
	}
}

func TestUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := Until(ctx, Options{Interval: 5 * time.Millisecond}, func(context.Context) bool {
		calls.Add(1)
		return false
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if calls.Load() == 0 {
		t.Error("Condition was never evaluated")
	}
}
