// Package main contains the entrypoint for the morning report bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/morningbot/internal/bot"
	"github.com/edgard/morningbot/internal/bot/handlers"
	"github.com/edgard/morningbot/internal/bot/tasks"
	"github.com/edgard/morningbot/internal/config"
	"github.com/edgard/morningbot/internal/database"
	"github.com/edgard/morningbot/internal/errlog"
	"github.com/edgard/morningbot/internal/logger"
	"github.com/edgard/morningbot/internal/report"
	"github.com/edgard/morningbot/internal/telegram"
	"github.com/edgard/morningbot/internal/traffic"
	"github.com/edgard/morningbot/internal/weather"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components, waits for shutdown
// and returns the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "", "Path to configuration file (default ./config.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	sink, err := errlog.NewFileSink(cfg.ErrorLog.Dir, log)
	if err != nil {
		log.Error("Failed to open error log", "dir", cfg.ErrorLog.Dir, "error", err)
		return 1
	}
	defer sink.Close()

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		log.Error("Invalid scheduler timezone", "error", err)
		return 1
	}

	db, err := database.NewDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Error("Failed to connect to database", "driver", cfg.Database.Driver, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log, sink)

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	err = store.Ping(pingCtx)
	cancelPing()
	if err != nil {
		log.Error("Database is not reachable", "driver", cfg.Database.Driver, "error", err)
		return 1
	}

	weatherClient := weather.NewClient(weather.Config{
		APIKey:  cfg.Weather.APIKey,
		BaseURL: cfg.Weather.BaseURL,
		GeoURL:  cfg.Weather.GeoURL,
		Units:   cfg.Weather.Units,
		Lang:    cfg.Weather.Lang,
		Timeout: cfg.Weather.Timeout,
	}, log)
	estimator := traffic.NewEstimator(traffic.Config{
		BaseURL:  cfg.Traffic.BaseURL,
		Timeout:  cfg.Traffic.Timeout,
		Location: loc,
	}, log)
	reports := report.NewBuilder(weatherClient, estimator, max(cfg.Weather.Timeout, cfg.Traffic.Timeout), loc, log)

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(func(context.Context, *tgbot.Bot, *models.Update) {}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}
	sender := telegram.NewSender(tg, cfg.Telegram.SendRatePerSec, cfg.Telegram.RequestTimeout, log)

	tDeps := tasks.TaskDeps{
		Logger:    log,
		Store:     store,
		Reports:   reports,
		Sender:    sender,
		ErrorSink: sink,
		Config:    cfg,
	}
	hDeps := handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Store:     store,
		Cities:    weatherClient,
		Reports:   reports,
		Sender:    sender,
		ErrorSink: sink,
		RunBroadcast: func(ctx context.Context) (handlers.BroadcastSummary, error) {
			s, err := tasks.RunDailyReport(ctx, tDeps)
			return handlers.BroadcastSummary(s), err
		},
	}

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}
	if err := telegram.SetCommands(ctx, tg, cmdHandlers); err != nil {
		log.Warn("Failed to publish command menu", "error", err)
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, tg, sched)

	log.Info("Starting bot...", "timezone", cfg.Scheduler.Timezone, "report_time", cfg.Scheduler.ReportTime)
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}
