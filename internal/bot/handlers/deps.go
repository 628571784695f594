package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/morningbot/internal/config"
	"github.com/edgard/morningbot/internal/database"
	"github.com/edgard/morningbot/internal/errlog"
	"github.com/edgard/morningbot/internal/traffic"
	"github.com/edgard/morningbot/internal/weather"
)

// Sender delivers a text message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// CityChecker validates that a city exists.
type CityChecker interface {
	Exists(ctx context.Context, city string) bool
}

// Reporter fetches the data behind the on-demand commands.
type Reporter interface {
	Weather(ctx context.Context, city string) (*weather.Current, error)
	Traffic(ctx context.Context, city string) traffic.Result
}

// BroadcastSummary is the outcome of one daily report run.
type BroadcastSummary struct {
	Total       int
	Sent        int
	Failed      int
	Skipped     int
	Deactivated int
}

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Cities    CityChecker
	Reports   Reporter
	Sender    Sender
	ErrorSink errlog.Sink
	// RunBroadcast runs the daily report immediately. Nil disables /broadcast_now.
	RunBroadcast func(ctx context.Context) (BroadcastSummary, error)
}
