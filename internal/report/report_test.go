package report

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/edgard/morningbot/internal/traffic"
	"github.com/edgard/morningbot/internal/weather"
)

type stubWeather struct {
	current *weather.Current
	err     error
	block   bool
}

func (s stubWeather) Current(ctx context.Context, city string) (*weather.Current, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.current, s.err
}

type stubTraffic struct{}

func (stubTraffic) Get(context.Context, string) traffic.Result {
	return traffic.Result{Status: http.StatusOK, Level: 8, Description: traffic.Describe(8)}
}

func fixedBuilder(w WeatherSource, timeout time.Duration) *Builder {
	b := NewBuilder(w, stubTraffic{}, timeout, time.UTC, nil)
	b.now = func() time.Time { return time.Date(2026, 10, 15, 7, 0, 0, 0, time.UTC) }
	return b
}

func TestDailyReport(t *testing.T) {
	t.Parallel()

	b := fixedBuilder(stubWeather{current: &weather.Current{City: "Krasnodar", Temp: 17.6, FeelsLike: 16.2, Description: "light rain"}}, time.Second)
	got := b.Daily(context.Background(), "Krasnodar")

	want := "🌤 Morning report for Krasnodar\n" +
		"🕗 2026-10-15 07:00\n\n" +
		"🌡 Weather: 18°C (feels like 16°C), light rain\n" +
		"🚗 Traffic: 8/10 🔴 Heavy traffic"
	if got != want {
		t.Errorf("Daily() =\n%s\nwant\n%s", got, want)
	}
}

func TestDailyReportDegradesWeather(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		weather stubWeather
	}{
		{name: "provider error", weather: stubWeather{err: errors.New("boom")}},
		{name: "provider timeout", weather: stubWeather{block: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := fixedBuilder(tt.weather, 20*time.Millisecond).Daily(context.Background(), "Sochi")
			if !strings.Contains(got, "Weather: "+Unavailable) {
				t.Errorf("weather section not degraded:\n%s", got)
			}
			if !strings.Contains(got, "Traffic: 8/10") {
				t.Errorf("traffic section missing:\n%s", got)
			}
		})
	}
}
