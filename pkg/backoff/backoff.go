// Package backoff provides a small exponential-backoff primitive with a
// capped maximum delay. Callers reset it after a success so the next failure
// starts from the minimum delay again.
package backoff

import (
	"context"
	"time"
)

// Backoff produces successive delays growing by Factor from Min up to Max.
// The zero value is not usable; construct with New.
type Backoff struct {
	Min    time.Duration
	Max    time.Duration
	Factor float64

	attempt int
}

// New returns a Backoff with the given bounds. Factor defaults to 2 when
// a non-positive value is supplied.
func New(min, max time.Duration) *Backoff {
	return &Backoff{Min: min, Max: max, Factor: 2}
}

// Next returns the delay for the current attempt and advances the counter.
func (b *Backoff) Next() time.Duration {
	factor := b.Factor
	if factor <= 1 {
		factor = 2
	}
	d := b.Min
	for i := 0; i < b.attempt; i++ {
		d = time.Duration(float64(d) * factor)
		if d >= b.Max {
			d = b.Max
			break
		}
	}
	b.attempt++
	if d > b.Max {
		d = b.Max
	}
	return d
}

// Reset rewinds the backoff to its minimum delay.
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Retry runs fn up to attempts times, sleeping between failures according to
// the backoff schedule. It returns nil on the first success, the last error
// otherwise, and stops early if ctx is cancelled.
func Retry(ctx context.Context, attempts int, b *Backoff, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			b.Reset()
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(b.Next()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
