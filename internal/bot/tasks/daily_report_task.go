package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/morningbot/internal/database"
	"github.com/edgard/morningbot/internal/telegram"
)

// Summary counts the outcome of one broadcast run. Every target ends up in
// exactly one of Sent, Failed or Skipped; Deactivated is a subset of Failed.
type Summary struct {
	Total       int
	Sent        int
	Failed      int
	Skipped     int
	Deactivated int
}

func newDailyReportTask(deps TaskDeps) ScheduledTaskFunc {
	return func(ctx context.Context) error {
		_, err := RunDailyReport(ctx, deps)
		return err
	}
}

// RunDailyReport sends the daily report to every active chat with reports
// enabled. A failure for one chat never stops the others. Chats that Telegram
// reports as unreachable are deactivated. The only error returned is a failure
// to load the target list.
func RunDailyReport(ctx context.Context, deps TaskDeps) (Summary, error) {
	log := deps.Logger.With("task", "daily_report")
	log.InfoContext(ctx, "Starting daily report broadcast")
	startTime := time.Now()

	targets, err := deps.Store.ListBroadcastTargets(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load broadcast targets", "error", err)
		return Summary{}, fmt.Errorf("failed to load broadcast targets: %w", err)
	}

	var (
		mu      sync.Mutex
		summary = Summary{Total: len(targets)}
	)

	g := new(errgroup.Group)
	g.SetLimit(max(deps.Config.Report.Concurrency, 1))

	for i, chat := range targets {
		if ctx.Err() != nil {
			log.WarnContext(ctx, "Broadcast interrupted", "error", ctx.Err(), "remaining", len(targets)-i)
			mu.Lock()
			summary.Skipped += len(targets) - i
			mu.Unlock()
			break
		}
		g.Go(func() error {
			// Started after cancellation while waiting for a free slot.
			if ctx.Err() != nil {
				mu.Lock()
				summary.Skipped++
				mu.Unlock()
				return nil
			}
			sent, deactivated := deliver(ctx, deps, chat)
			mu.Lock()
			defer mu.Unlock()
			if sent {
				summary.Sent++
			} else {
				summary.Failed++
			}
			if deactivated {
				summary.Deactivated++
			}
			return nil
		})
	}
	_ = g.Wait()

	log.InfoContext(ctx, "Daily report broadcast finished",
		"total", summary.Total,
		"sent", summary.Sent,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"deactivated", summary.Deactivated,
		"duration", time.Since(startTime))
	return summary, nil
}

// deliver sends one report. It reports whether the message went out and
// whether the chat was deactivated as a result of the failure.
func deliver(ctx context.Context, deps TaskDeps, chat database.Chat) (sent, deactivated bool) {
	log := deps.Logger.With("task", "daily_report", "chat_id", chat.ChatID)

	text := deps.Reports.Daily(ctx, chat.City)
	err := deps.Sender.Send(ctx, chat.ChatID, text)
	if err == nil {
		return true, false
	}

	if !telegram.IsUnreachable(err) {
		log.WarnContext(ctx, "Failed to deliver daily report", "error", err)
		deps.ErrorSink.Record(fmt.Errorf("daily report to chat %d: %w", chat.ChatID, err))
		return false, false
	}

	log.InfoContext(ctx, "Chat is unreachable, deactivating", "error", err)
	if derr := deps.Store.DeactivateChat(ctx, chat.ChatID); derr != nil {
		log.ErrorContext(ctx, "Failed to deactivate unreachable chat", "error", derr)
		return false, false
	}
	return false, true
}
