// Package locate finds elements on a page that renders asynchronously.
//
// The portal offers no reliable "element appeared" signal and suffixes ids
// dynamically, so a single query is unreliable even when the element is a
// few milliseconds away. A Locator re-queries until it succeeds or its
// timeout elapses. Query errors are treated like an empty result: the
// driver cannot tell "not rendered yet" from "page mid-navigation".
package locate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"coursesniper/internal/page"
	"coursesniper/internal/poll"
)

// DefaultTimeout matches the portal's usual worst-case render delay.
const DefaultTimeout = 10 * time.Second

// ErrNotFound matches every NotFoundError via errors.Is.
var ErrNotFound = errors.New("locate: not found")

// NotFoundError reports a selector that matched nothing within the timeout.
type NotFoundError struct {
	Selector string
	Elapsed  time.Duration
	// Last is the final query error, if the last attempt failed rather than
	// matching nothing.
	Last error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("locate: %q not found after %v", e.Selector, e.Elapsed.Round(time.Millisecond))
	if e.Last != nil && !errors.Is(e.Last, page.ErrNoElement) {
		msg += fmt.Sprintf(" (last error: %v)", e.Last)
	}
	return msg
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *NotFoundError) Unwrap() error {
	return e.Last
}

// Locator retries lookups against a Queryable.
type Locator struct {
	// Timeout bounds each Locate/LocateAll call. Zero uses DefaultTimeout.
	Timeout time.Duration
	// Interval is the pause between attempts. Zero retries immediately.
	Interval time.Duration
	Logger   *slog.Logger
}

// New returns a Locator with the given bounds.
func New(timeout, interval time.Duration, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{Timeout: timeout, Interval: interval, Logger: logger}
}

func (l *Locator) options() poll.Options {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return poll.Options{Interval: l.Interval, Timeout: timeout}
}

func (l *Locator) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// Locate returns the first element matching selector.
func (l *Locator) Locate(ctx context.Context, q page.Queryable, selector string) (page.Element, error) {
	var (
		found    page.Element
		last     error
		attempts int
	)
	elapsed, err := poll.Until(ctx, l.options(), func(ctx context.Context) bool {
		attempts++
		el, err := q.Element(ctx, selector)
		if err != nil {
			last = err
			return false
		}
		found = el
		return true
	})
	return found, l.finish(selector, elapsed, attempts, last, err)
}

// LocateAll returns every element matching selector, in document order.
// An empty match counts as not found yet.
func (l *Locator) LocateAll(ctx context.Context, q page.Queryable, selector string) ([]page.Element, error) {
	var (
		found    []page.Element
		last     error
		attempts int
	)
	elapsed, err := poll.Until(ctx, l.options(), func(ctx context.Context) bool {
		attempts++
		els, err := q.Elements(ctx, selector)
		if err != nil {
			last = err
			return false
		}
		if len(els) == 0 {
			last = page.ErrNoElement
			return false
		}
		found = els
		return true
	})
	return found, l.finish(selector, elapsed, attempts, last, err)
}

func (l *Locator) finish(selector string, elapsed time.Duration, attempts int, last, err error) error {
	switch {
	case err == nil:
		if attempts > 1 {
			l.logger().Debug("located after retries", "selector", selector, "attempts", attempts, "elapsed", elapsed)
		}
		return nil
	case errors.Is(err, poll.ErrTimeout):
		l.logger().Debug("locate timed out", "selector", selector, "attempts", attempts, "elapsed", elapsed, "last", last)
		return &NotFoundError{Selector: selector, Elapsed: elapsed, Last: last}
	default:
		return fmt.Errorf("locate %q: %w", selector, err)
	}
}
