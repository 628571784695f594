package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromFileWithDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
weather:
  api_key: "owm-key"
scheduler:
  report_time: "06:30"
  timezone: "Europe/Samara"
report:
  concurrency: 8
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Weather.APIKey != "owm-key" {
		t.Errorf("api key = %q", cfg.Weather.APIKey)
	}
	if cfg.Report.DefaultCity != "Moscow" {
		t.Errorf("default city = %q, want Moscow", cfg.Report.DefaultCity)
	}
	if cfg.Report.Concurrency != 8 {
		t.Errorf("concurrency = %d, want 8", cfg.Report.Concurrency)
	}
	if cfg.Weather.Timeout != 5*time.Second {
		t.Errorf("weather timeout = %v", cfg.Weather.Timeout)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}

	hour, minute, err := cfg.Scheduler.ReportClock()
	if err != nil || hour != 6 || minute != 30 {
		t.Errorf("ReportClock = %d:%d, %v", hour, minute, err)
	}
	if task, ok := cfg.Scheduler.Tasks[TaskDailyReport]; !ok || !task.Enabled {
		t.Errorf("daily report task missing or disabled: %+v", cfg.Scheduler.Tasks)
	}
}

func TestLoadEnvironmentAliases(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("OPENWEATHER_API_KEY", "env-key")
	t.Setenv("DATABASE_URL", "file:env.db")
	t.Setenv("BOT_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "log:\n  format: json\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Telegram.Token != "env-token" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Weather.APIKey != "env-key" {
		t.Errorf("api key = %q", cfg.Weather.APIKey)
	}
	if cfg.Database.DSN != "file:env.db" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing telegram token",
			body: "weather:\n  api_key: k\n",
		},
		{
			name: "missing weather key",
			body: "telegram:\n  token: t\n",
		},
		{
			name: "bad report time",
			body: "telegram:\n  token: t\nweather:\n  api_key: k\nscheduler:\n  report_time: \"7am\"\n",
		},
		{
			name: "bad timezone",
			body: "telegram:\n  token: t\nweather:\n  api_key: k\nscheduler:\n  timezone: Mars/Olympus\n",
		},
		{
			name: "unknown driver",
			body: "telegram:\n  token: t\nweather:\n  api_key: k\ndatabase:\n  driver: mysql\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
