package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/edgard/morningbot/internal/bot/tasks"
	"github.com/edgard/morningbot/internal/config"
)

const defaultStopTimeout = 30 * time.Second

// Scheduler runs the registered tasks on their configured triggers in the
// configured timezone. A job that is still running when its next trigger
// fires is not started a second time.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	taskMap   map[string]tasks.ScheduledTaskFunc

	// stopTimeout is the effective wait for running jobs in Stop.
	stopTimeout time.Duration

	mu      sync.Mutex
	running bool
	jobCtx  context.Context
	cancel  context.CancelFunc
}

// NewScheduler creates a scheduler for taskMap. Nothing runs until Start.
func NewScheduler(logger *slog.Logger, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "scheduler")

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	stopTimeout := cfg.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = defaultStopTimeout
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(loc),
		gocron.WithLogger(log),
		gocron.WithStopTimeout(stopTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler:   s,
		logger:      log,
		cfg:         cfg,
		taskMap:     taskMap,
		stopTimeout: stopTimeout,
	}, nil
}

// Start registers every enabled task and starts the scheduler. Jobs run with
// a context that keeps the values of ctx but is only cancelled when Stop
// gives up waiting for them.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	s.jobCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	scheduledCount := 0
	for taskName, taskConfig := range s.cfg.Tasks {
		if !taskConfig.Enabled {
			s.logger.Info("Skipping disabled task", "task_name", taskName)
			continue
		}

		taskFunc, exists := s.taskMap[taskName]
		if !exists {
			s.logger.Warn("Scheduled task configured but not found in registry, skipping", "task_name", taskName)
			continue
		}

		definition, err := s.jobDefinition(taskName, taskConfig)
		if err != nil {
			return s.abortStart(err)
		}

		_, err = s.scheduler.NewJob(
			definition,
			gocron.NewTask(s.run, taskName, taskFunc),
			gocron.WithName(taskName),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return s.abortStart(fmt.Errorf("failed to schedule task %q: %w", taskName, err))
		}

		scheduledCount++
	}

	s.scheduler.Start()
	s.running = true

	for name, next := range s.nextRunsLocked() {
		s.logger.Info("Scheduled task", "task_name", name, "next_run", next)
	}
	s.logger.Info("Scheduler initialized and started", "tasks_scheduled", scheduledCount)
	return nil
}

// abortStart releases the gocron scheduler and any jobs already registered
// when Start fails. The Scheduler cannot be started again afterwards.
func (s *Scheduler) abortStart(err error) error {
	s.cancel()
	if shutdownErr := s.scheduler.Shutdown(); shutdownErr != nil {
		s.logger.Warn("Failed to release scheduler after start error", "error", shutdownErr)
	}
	return err
}

// jobDefinition builds the trigger for a task. The daily report runs at the
// configured report time unless it has an explicit cron schedule.
func (s *Scheduler) jobDefinition(name string, tc config.TaskConfig) (gocron.JobDefinition, error) {
	if tc.Schedule != "" {
		return gocron.CronJob(tc.Schedule, false), nil
	}
	if name != config.TaskDailyReport {
		return nil, fmt.Errorf("task %q is enabled but has no schedule", name)
	}

	hour, minute, err := s.cfg.ReportClock()
	if err != nil {
		return nil, err
	}
	return gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, minute, 0))), nil
}

// run wraps a task with logging. Task errors are logged and never stop the scheduler.
func (s *Scheduler) run(name string, taskFunc tasks.ScheduledTaskFunc) {
	s.logger.Info("Running scheduled task", "task_name", name)
	startTime := time.Now()

	if err := taskFunc(s.jobCtx); err != nil {
		s.logger.Error("Scheduled task failed", "task_name", name, "error", err)
	}
	s.logger.Info("Finished scheduled task", "task_name", name, "duration", time.Since(startTime))
}

// NextRuns returns the next trigger time of every scheduled job by name.
func (s *Scheduler) NextRuns() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunsLocked()
}

func (s *Scheduler) nextRunsLocked() map[string]time.Time {
	runs := make(map[string]time.Time)
	for _, job := range s.scheduler.Jobs() {
		next, err := job.NextRun()
		if err != nil {
			continue
		}
		runs[job.Name()] = next
	}
	return runs
}

// Stop prevents new runs and waits up to the configured stop timeout for
// running jobs to finish. Jobs still running after that see their context
// cancelled.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Info("Scheduler is not running.")
		return nil
	}

	s.logger.Info("Stopping scheduler...")
	err := s.scheduler.Shutdown()
	s.cancel()
	s.running = false

	if errors.Is(err, gocron.ErrStopJobsTimedOut) {
		s.logger.Warn("Timed out waiting for running jobs, cancelled them", "timeout", s.stopTimeout)
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to shut down scheduler: %w", err)
	}

	s.logger.Info("Scheduler stopped gracefully.")
	return nil
}
