package config

import (
	"errors"
	"time"
)

// ErrValidation wraps every configuration validation failure.
var ErrValidation = errors.New("validation error")

// Task names known to the scheduler.
const (
	TaskDailyReport    = "daily_report"
	TaskSQLMaintenance = "sql_maintenance"
)

var defaults = map[string]any{
	"log.level":  "info",
	"log.format": "text",

	"telegram.token":             "",
	"telegram.admin_user_id":     0,
	"telegram.request_timeout":   10 * time.Second,
	"telegram.send_rate_per_sec": 25,

	"weather.api_key":  "",
	"weather.base_url": "https://api.openweathermap.org/data/2.5",
	"weather.geo_url":  "https://api.openweathermap.org/geo/1.0",
	"weather.units":    "metric",
	"weather.lang":     "en",
	"weather.timeout":  5 * time.Second,

	"traffic.base_url": "https://router.project-osrm.org",
	"traffic.timeout":  10 * time.Second,

	"database.driver": "sqlite",
	"database.dsn":    "app.db",

	"scheduler.timezone":     "Europe/Moscow",
	"scheduler.report_time":  "07:00",
	"scheduler.stop_timeout": 30 * time.Second,
	"scheduler.tasks": map[string]any{
		TaskDailyReport:    map[string]any{"enabled": true, "schedule": ""},
		TaskSQLMaintenance: map[string]any{"enabled": true, "schedule": "0 4 * * 0"},
	},

	"report.default_city": "Moscow",
	"report.concurrency":  4,

	"errlog.dir": "logs",

	"messages.welcome":           "✅ The bot is active!\nCity: %s.\nChange it with /set_city <name>.",
	"messages.already_active":    "✅ The bot is already active!\nUse /set_city to change the city.",
	"messages.save_failed":       "❌ Could not save your data. Please try again later.",
	"messages.activation_failed": "⚠️ Something went wrong during activation. The error has been reported.",
	"messages.city_usage":        "📌 Put the city after the command:\n/set_city Moscow\n/set_city Krasnodar",
	"messages.city_empty":        "❌ The city name cannot be empty.",
	"messages.city_lookup":       "🔍 Looking up «%s»...",
	"messages.city_not_found":    "❌ City «%s» was not found.\nTry:\n• checking the spelling\n• using the full name (e.g. Saint Petersburg)\n• writing it in Russian or English",
	"messages.city_updated":      "✅ Done! Reports will now be sent for: %s",
	"messages.city_check_failed": "⚠️ Could not check the city. Please try again later.",
	"messages.not_activated":     "❌ Activate the bot first with /start",
	"messages.stopped":           "🔕 The bot is deactivated and reports are off.\nSend /start to turn it back on.",
	"messages.stop_failed":       "⚠️ Could not deactivate the bot. It may already be inactive.",
	"messages.paused":            "⏸ Daily reports are paused. Use /resume to turn them back on.",
	"messages.resumed":           "▶️ Daily reports are on.",
	"messages.try_later":         "⚠️ Data is unavailable right now. Please try again later.",
	"messages.general_error":     "❌ An error occurred. Please try again later.",
	"messages.not_authorized":    "🚫 You are not allowed to use this command.",
	"messages.broadcast_done":    "📬 Broadcast finished: %d targets, %d sent, %d failed, %d skipped, %d deactivated.",
	"messages.help": "Commands:\n" +
		"/start - activate the bot\n" +
		"/set_city <name> - change the city\n" +
		"/weather - current weather\n" +
		"/traffic - current traffic\n" +
		"/pause - pause daily reports\n" +
		"/resume - resume daily reports\n" +
		"/stop - deactivate the bot",
}

// envAliases maps config keys to additional environment variable names.
var envAliases = map[string][]string{
	"telegram.token":  {"TELEGRAM_BOT_TOKEN"},
	"weather.api_key": {"OPENWEATHER_API_KEY"},
	"database.dsn":    {"DATABASE_URL"},
}
