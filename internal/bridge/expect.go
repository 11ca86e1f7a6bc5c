package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// TextSource reads the rendered text of an element.
type TextSource interface {
	InnerText(ctx context.Context, sel RoleSelector) (string, error)
}

type ExpectOptions struct {
	Timeout time.Duration
	// Exact requires equality after trimming instead of containment.
	Exact    bool
	Interval time.Duration
}

type ExpectError struct {
	Selector RoleSelector
	Want     string
	Got      string
	Err      error
}

func (e *ExpectError) Error() string {
	if e.Err != nil && e.Got == "" {
		return fmt.Sprintf("expect %s to contain %q: %v", e.Selector, e.Want, e.Err)
	}
	return fmt.Sprintf("expect %s to contain %q, got %q", e.Selector, e.Want, e.Got)
}

func (e *ExpectError) Unwrap() error { return e.Err }

// ExpectText polls the element text until it contains want, the timeout
// expires or ctx is cancelled. Read errors count as a miss and are retried.
func ExpectText(ctx context.Context, src TextSource, sel RoleSelector, want string, opts ExpectOptions) error {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Interval <= 0 {
		opts.Interval = 100 * time.Millisecond
	}
	tctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	var (
		got     string
		lastErr error
	)
	for {
		text, err := src.InnerText(tctx, sel)
		if err == nil {
			got, lastErr = text, nil
			if matchText(text, want, opts.Exact) {
				return nil
			}
		} else {
			lastErr = err
		}

		select {
		case <-tctx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &ExpectError{Selector: sel, Want: want, Got: got, Err: lastErr}
		case <-time.After(opts.Interval):
		}
	}
}

func matchText(text, want string, exact bool) bool {
	if exact {
		return strings.TrimSpace(text) == want
	}
	return strings.Contains(text, want)
}
