package backoff

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNextGrowsAndCaps(t *testing.T) {
	b := New(100*time.Millisecond, 500*time.Millisecond)

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		500 * time.Millisecond, // capped
		500 * time.Millisecond, // stays capped
	}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Errorf("Next() #%d = %v, want %v", i, got, w)
		}
	}
}

func TestReset(t *testing.T) {
	b := New(time.Millisecond, time.Second)
	b.Next()
	b.Next()
	b.Reset()
	if got := b.Next(); got != time.Millisecond {
		t.Errorf("Next() after Reset = %v, want %v", got, time.Millisecond)
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 5, New(time.Microsecond, time.Millisecond), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetryReturnsLastError(t *testing.T) {
	last := errors.New("still down")
	calls := 0
	err := Retry(context.Background(), 3, New(time.Microsecond, time.Millisecond), func() error {
		calls++
		if calls < 3 {
			return errors.New("earlier failure")
		}
		return last
	})
	if !errors.Is(err, last) {
		t.Errorf("Retry() = %v, want last error", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, 5, New(time.Minute, time.Minute), func() error {
		calls++
		return errors.New("always failing")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}
