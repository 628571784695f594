// Package tasks implements the scheduled jobs of the bot: the daily report
// broadcast and periodic database maintenance.
package tasks

import (
	"context"
	"log/slog"

	"github.com/edgard/morningbot/internal/config"
	"github.com/edgard/morningbot/internal/database"
	"github.com/edgard/morningbot/internal/errlog"
)

// ReportBuilder renders the daily report for a city. It never fails; missing
// data is rendered as a placeholder.
type ReportBuilder interface {
	Daily(ctx context.Context, city string) string
}

// Sender delivers a text message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger    *slog.Logger
	Store     database.Store
	Reports   ReportBuilder
	Sender    Sender
	ErrorSink errlog.Sink
	Config    *config.Config
}
