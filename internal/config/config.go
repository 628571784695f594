// Package config provides configuration loading, validation, and management
// for the bot. It reads an optional YAML file, environment variables and a
// .env file, applies defaults and validates the result.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config defines the application configuration parameters for all components.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	Traffic   TrafficConfig   `mapstructure:"traffic"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Report    ReportConfig    `mapstructure:"report"`
	ErrorLog  ErrorLogConfig  `mapstructure:"errlog"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// TelegramConfig holds bot credentials and transport limits.
type TelegramConfig struct {
	Token          string        `mapstructure:"token"             validate:"required"`
	AdminUserID    int64         `mapstructure:"admin_user_id"     validate:"gte=0"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"   validate:"min=1s,max=1m"`
	SendRatePerSec int           `mapstructure:"send_rate_per_sec" validate:"min=1,max=30"`
}

// WeatherConfig configures the OpenWeatherMap client.
type WeatherConfig struct {
	APIKey  string        `mapstructure:"api_key"  validate:"required"`
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	GeoURL  string        `mapstructure:"geo_url"  validate:"required,url"`
	Units   string        `mapstructure:"units"    validate:"oneof=metric imperial standard"`
	Lang    string        `mapstructure:"lang"`
	Timeout time.Duration `mapstructure:"timeout"  validate:"min=1s,max=30s"`
}

// TrafficConfig configures the OSRM routing client.
type TrafficConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout"  validate:"min=1s,max=30s"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	DSN    string `mapstructure:"dsn"    validate:"required"`
}

// SchedulerConfig defines the scheduler timezone and the tasks it runs.
type SchedulerConfig struct {
	Timezone    string                `mapstructure:"timezone"     validate:"required,timezone"`
	ReportTime  string                `mapstructure:"report_time"  validate:"required,datetime=15:04"`
	StopTimeout time.Duration         `mapstructure:"stop_timeout" validate:"min=1s,max=10m"`
	Tasks       map[string]TaskConfig `mapstructure:"tasks"        validate:"dive"`
}

// TaskConfig enables a scheduled task. An empty Schedule on the daily report
// task means "run daily at ReportTime".
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// ReportConfig tunes report generation.
type ReportConfig struct {
	DefaultCity string `mapstructure:"default_city" validate:"required"`
	Concurrency int    `mapstructure:"concurrency"  validate:"min=1,max=64"`
}

// ErrorLogConfig sets where the error sink writes.
type ErrorLogConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// MessagesConfig contains every user-facing reply.
type MessagesConfig struct {
	Welcome          string `mapstructure:"welcome"           validate:"required"`
	AlreadyActive    string `mapstructure:"already_active"    validate:"required"`
	SaveFailed       string `mapstructure:"save_failed"       validate:"required"`
	ActivationFailed string `mapstructure:"activation_failed" validate:"required"`
	CityUsage        string `mapstructure:"city_usage"        validate:"required"`
	CityEmpty        string `mapstructure:"city_empty"        validate:"required"`
	CityLookup       string `mapstructure:"city_lookup"       validate:"required"`
	CityNotFound     string `mapstructure:"city_not_found"    validate:"required"`
	CityUpdated      string `mapstructure:"city_updated"      validate:"required"`
	CityCheckFailed  string `mapstructure:"city_check_failed" validate:"required"`
	NotActivated     string `mapstructure:"not_activated"     validate:"required"`
	Stopped          string `mapstructure:"stopped"           validate:"required"`
	StopFailed       string `mapstructure:"stop_failed"       validate:"required"`
	Paused           string `mapstructure:"paused"            validate:"required"`
	Resumed          string `mapstructure:"resumed"           validate:"required"`
	TryLater         string `mapstructure:"try_later"         validate:"required"`
	GeneralError     string `mapstructure:"general_error"     validate:"required"`
	NotAuthorized    string `mapstructure:"not_authorized"    validate:"required"`
	BroadcastDone    string `mapstructure:"broadcast_done"    validate:"required"`
	Help             string `mapstructure:"help"              validate:"required"`
}

// Location resolves the scheduler timezone.
func (c SchedulerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ReportClock returns the configured report hour and minute.
func (c SchedulerConfig) ReportClock() (hour, minute uint, err error) {
	t, err := time.Parse("15:04", c.ReportTime)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid report time %q: %w", c.ReportTime, err)
	}
	return uint(t.Hour()), uint(t.Minute()), nil
}

// Validate checks struct tags on the whole configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
