// Package resilience guards calls to external providers with a circuit
// breaker, so a provider that is down fails fast instead of costing a full
// timeout for every chat in a broadcast.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned without running the operation while the breaker is open.
var ErrCircuitOpen = gobreaker.ErrOpenState

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	Name string
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before letting a trial request through.
	OpenTimeout time.Duration
	// Ignore marks errors that are the caller's fault (a city that does not
	// exist, say) and must not count against the provider.
	Ignore func(error) bool
}

// Breaker wraps gobreaker with context-aware execution.
type Breaker struct {
	cb     *gobreaker.CircuitBreaker
	ignore func(error) bool
}

// NewBreaker creates a Breaker. Zero fields get defaults of 5 failures and 30 seconds.
func NewBreaker(cfg BreakerConfig, logger *slog.Logger) *Breaker {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "circuit_breaker")

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings), ignore: cfg.Ignore}
}

// Do runs op through the breaker. A cancelled caller context is not counted
// as a provider failure.
func (b *Breaker) Do(ctx context.Context, op func(context.Context) error) error {
	var passthrough error
	_, err := b.cb.Execute(func() (interface{}, error) {
		err := op(ctx)
		if err == nil {
			return nil, nil
		}
		if errors.Is(ctx.Err(), context.Canceled) || (b.ignore != nil && b.ignore(err)) {
			passthrough = err
			return nil, nil
		}
		return nil, err
	})
	if passthrough != nil {
		return passthrough
	}
	return err
}

// State returns the breaker state as "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}
