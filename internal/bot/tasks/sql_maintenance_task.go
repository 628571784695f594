package tasks

import (
	"context"
	"fmt"
	"time"
)

// MaintenanceResult describes one maintenance run.
type MaintenanceResult struct {
	Duration         time.Duration
	BroadcastTargets int
}

func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	return func(ctx context.Context) error {
		_, err := RunSQLMaintenance(ctx, deps)
		return err
	}
}

// RunSQLMaintenance compacts the chat registry and refreshes planner
// statistics, then reports how many chats the next broadcast will reach.
func RunSQLMaintenance(ctx context.Context, deps TaskDeps) (MaintenanceResult, error) {
	log := deps.Logger.With("task", "sql_maintenance", "driver", deps.Config.Database.Driver)
	log.InfoContext(ctx, "Starting chat registry maintenance")
	startTime := time.Now()

	if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
		log.ErrorContext(ctx, "Chat registry maintenance failed", "error", err, "duration", time.Since(startTime))
		return MaintenanceResult{}, fmt.Errorf("sql maintenance failed: %w", err)
	}

	targets, err := deps.Store.ListBroadcastTargets(ctx)
	if err != nil {
		return MaintenanceResult{}, fmt.Errorf("failed to count broadcast targets after maintenance: %w", err)
	}

	result := MaintenanceResult{Duration: time.Since(startTime), BroadcastTargets: len(targets)}
	log.InfoContext(ctx, "Chat registry maintenance completed",
		"duration", result.Duration,
		"broadcast_targets", result.BroadcastTargets)
	return result, nil
}
