// Package poll implements the bounded busy-poll used both for waiting on
// late-rendered elements and for waiting on a wall-clock instant.
//
// Neither the portal nor the clock offers a reliable notification, so the
// caller picks the interval: zero re-evaluates immediately and burns a core
// for the sharpest response, tens of milliseconds keeps CPU idle at the cost
// of that much latency.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when the deadline passes before the condition holds.
var ErrTimeout = errors.New("poll: timed out")

// Options bound a poll.
type Options struct {
	// Interval is the pause between evaluations. Zero retries immediately.
	Interval time.Duration
	// Timeout is measured from the first evaluation. Zero means no deadline.
	Timeout time.Duration
}

// Until evaluates cond until it returns true, the timeout elapses or ctx is
// done. It returns the elapsed time alongside the outcome. The condition is
// always evaluated at least once, and a timeout is never reported before
// Timeout has elapsed.
func Until(ctx context.Context, opts Options, cond func(ctx context.Context) bool) (time.Duration, error) {
	start := time.Now()

	for {
		if cond(ctx) {
			return time.Since(start), nil
		}

		elapsed := time.Since(start)
		if opts.Timeout > 0 && elapsed >= opts.Timeout {
			return elapsed, ErrTimeout
		}
		if err := ctx.Err(); err != nil {
			return elapsed, err
		}

		if opts.Interval <= 0 {
			continue
		}

		wait := opts.Interval
		if opts.Timeout > 0 {
			if left := opts.Timeout - elapsed; left < wait {
				wait = left
			}
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return time.Since(start), ctx.Err()
		case <-timer.C:
		}
	}
}
