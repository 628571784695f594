package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"
)

// DeliveryErrorKind classifies a failed delivery.
type DeliveryErrorKind int

const (
	// DeliveryTransient failures may succeed on a later attempt.
	DeliveryTransient DeliveryErrorKind = iota
	// DeliveryRateLimited means Telegram asked us to slow down.
	DeliveryRateLimited
	// DeliveryUnreachable means the bot can no longer write to the chat:
	// it was blocked, kicked or removed, or the chat moved to a new id.
	DeliveryUnreachable
)

func (k DeliveryErrorKind) String() string {
	switch k {
	case DeliveryRateLimited:
		return "rate_limited"
	case DeliveryUnreachable:
		return "unreachable"
	default:
		return "transient"
	}
}

// DeliveryError is returned by Sender.Send when a message was not delivered.
type DeliveryError struct {
	ChatID int64
	Kind   DeliveryErrorKind
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to chat %d failed (%s): %v", e.ChatID, e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsUnreachable reports whether err is a delivery failure of kind DeliveryUnreachable.
func IsUnreachable(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de) && de.Kind == DeliveryUnreachable
}

// Classify maps a go-telegram/bot API error to a delivery error kind.
func Classify(err error) DeliveryErrorKind {
	switch {
	case errors.Is(err, bot.ErrorForbidden), bot.IsMigrateError(err):
		return DeliveryUnreachable
	case bot.IsTooManyRequestsError(err), errors.Is(err, bot.ErrorTooManyRequests):
		return DeliveryRateLimited
	default:
		return DeliveryTransient
	}
}

const (
	sendAttempts   = 3
	sendRetryDelay = 500 * time.Millisecond
)

// retryable reports whether a failed send may succeed if repeated. Unreachable
// chats and malformed requests never will.
func retryable(err error) bool {
	switch Classify(err) {
	case DeliveryRateLimited:
		return true
	case DeliveryUnreachable:
		return false
	default:
		return !errors.Is(err, bot.ErrorBadRequest) && !errors.Is(err, context.Canceled)
	}
}

// retryDelay honours Telegram's retry_after on flood control and backs off
// exponentially otherwise.
func retryDelay(n uint, err error, cfg *retry.Config) time.Duration {
	var tooMany *bot.TooManyRequestsError
	if errors.As(err, &tooMany) && tooMany.RetryAfter > 0 {
		return time.Duration(tooMany.RetryAfter) * time.Second
	}
	return retry.BackOffDelay(n, err, cfg)
}

// Sender delivers text messages, limiting the outbound rate and bounding
// every request with a timeout. Rate limited and transient failures are
// retried a few times.
type Sender struct {
	bot        *bot.Bot
	limiter    *rate.Limiter
	timeout    time.Duration
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewSender creates a Sender allowing ratePerSec messages per second.
func NewSender(b *bot.Bot, ratePerSec int, timeout time.Duration, logger *slog.Logger) *Sender {
	if ratePerSec <= 0 {
		ratePerSec = 25
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		bot:        b,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		timeout:    timeout,
		retryDelay: sendRetryDelay,
		logger:     logger.With("component", "sender"),
	}
}

// Send delivers text to chatID. Failures are returned as *DeliveryError.
func (s *Sender) Send(ctx context.Context, chatID int64, text string) error {
	err := retry.Do(
		func() error { return s.sendOnce(ctx, chatID, text) },
		retry.Context(ctx),
		retry.Attempts(sendAttempts),
		retry.Delay(s.retryDelay),
		retry.DelayType(retryDelay),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.DebugContext(ctx, "Retrying message delivery", "chat_id", chatID, "attempt", n+1, "error", err)
		}),
	)
	if err == nil {
		return nil
	}

	kind := Classify(err)
	s.logger.DebugContext(ctx, "Message delivery failed", "chat_id", chatID, "kind", kind, "error", err)
	return &DeliveryError{ChatID: chatID, Kind: kind, Err: err}
}

func (s *Sender) sendOnce(ctx context.Context, chatID int64, text string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	return err
}
