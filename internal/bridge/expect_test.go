package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeText struct {
	mu    sync.Mutex
	texts []string
	errs  []error
	fail  error
	calls int
}

func (f *fakeText) InnerText(ctx context.Context, sel RoleSelector) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if f.fail != nil {
		return "", f.fail
	}
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i >= len(f.texts) {
		i = len(f.texts) - 1
	}
	return f.texts[i], nil
}

func TestExpectTextEventuallyMatches(t *testing.T) {
	src := &fakeText{
		texts: []string{"", "Latest products", "Results for mouse 345"},
		errs:  []error{ErrNotFound},
	}
	err := ExpectText(context.Background(), src, ByRole("main"), "mouse 345", ExpectOptions{
		Timeout:  time.Second,
		Interval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("ExpectText: %v", err)
	}
	if src.calls != 3 {
		t.Errorf("calls = %d, want 3", src.calls)
	}
}

func TestExpectTextTimesOut(t *testing.T) {
	src := &fakeText{texts: []string{"Latest products"}}
	err := ExpectText(context.Background(), src, ByRole("main"), "mouse 345", ExpectOptions{
		Timeout:  50 * time.Millisecond,
		Interval: 5 * time.Millisecond,
	})
	var expErr *ExpectError
	if !errors.As(err, &expErr) {
		t.Fatalf("expected *ExpectError, got %v", err)
	}
	if expErr.Got != "Latest products" || expErr.Want != "mouse 345" {
		t.Errorf("unexpected error fields %+v", expErr)
	}
}

func TestExpectTextKeepsLastError(t *testing.T) {
	src := &fakeText{fail: ErrNotFound}
	err := ExpectText(context.Background(), src, ByRole("main"), "x", ExpectOptions{
		Timeout:  20 * time.Millisecond,
		Interval: 5 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected wrapped ErrNotFound, got %v", err)
	}
}

func TestExpectTextExact(t *testing.T) {
	src := &fakeText{texts: []string{"  mouse 345 \n"}}
	opts := ExpectOptions{Timeout: 20 * time.Millisecond, Interval: time.Millisecond, Exact: true}
	if err := ExpectText(context.Background(), src, ByRole("main"), "mouse 345", opts); err != nil {
		t.Errorf("exact match after trim: %v", err)
	}
	if err := ExpectText(context.Background(), src, ByRole("main"), "mouse", opts); err == nil {
		t.Error("exact should reject a substring")
	}
}

func TestExpectTextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeText{texts: []string{"nothing"}}
	err := ExpectText(ctx, src, ByRole("main"), "mouse", ExpectOptions{Timeout: time.Second})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
