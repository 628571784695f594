package resilience

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

var (
	errDown     = errors.New("provider down")
	errNotFound = errors.New("not found")
)

func newTestBreaker() *Breaker {
	return NewBreaker(BreakerConfig{
		Name:        "test",
		MaxFailures: 3,
		OpenTimeout: time.Hour,
		Ignore:      func(err error) bool { return errors.Is(err, errNotFound) },
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()
	b := newTestBreaker()
	ctx := context.Background()
	calls := 0
	failing := func(context.Context) error {
		calls++
		return errDown
	}

	for i := 0; i < 3; i++ {
		if err := b.Do(ctx, failing); !errors.Is(err, errDown) {
			t.Fatalf("attempt %d: err = %v, want errDown", i, err)
		}
	}
	if b.State() != "open" {
		t.Fatalf("state = %s, want open", b.State())
	}

	if err := b.Do(ctx, failing); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if calls != 3 {
		t.Errorf("operation ran %d times, want 3", calls)
	}
}

func TestBreakerIgnoresCallerErrors(t *testing.T) {
	t.Parallel()
	b := newTestBreaker()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		err := b.Do(ctx, func(context.Context) error { return errNotFound })
		if !errors.Is(err, errNotFound) {
			t.Fatalf("err = %v, want errNotFound", err)
		}
	}
	if b.State() != "closed" {
		t.Errorf("state = %s, want closed", b.State())
	}
}

func TestBreakerIgnoresCancelledCallers(t *testing.T) {
	t.Parallel()
	b := newTestBreaker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 5; i++ {
		_ = b.Do(ctx, func(ctx context.Context) error { return ctx.Err() })
	}
	if b.State() != "closed" {
		t.Errorf("state = %s, want closed", b.State())
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	t.Parallel()
	b := newTestBreaker()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_ = b.Do(ctx, func(context.Context) error { return errDown })
		_ = b.Do(ctx, func(context.Context) error { return nil })
	}
	if b.State() != "closed" {
		t.Errorf("state = %s, want closed", b.State())
	}
}
