// Package report composes the daily report and the on-demand weather and
// traffic replies from provider results.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/edgard/morningbot/internal/traffic"
	"github.com/edgard/morningbot/internal/weather"
)

// Unavailable replaces a section whose provider failed.
const Unavailable = "unavailable"

// WeatherSource provides current weather.
type WeatherSource interface {
	Current(ctx context.Context, city string) (*weather.Current, error)
}

// TrafficSource provides traffic estimates and never fails.
type TrafficSource interface {
	Get(ctx context.Context, city string) traffic.Result
}

// Builder builds report messages. Each provider call gets its own timeout so
// one slow provider cannot hold up the rest of a batch.
type Builder struct {
	weather  WeatherSource
	traffic  TrafficSource
	timeout  time.Duration
	location *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

// NewBuilder creates a Builder. Timestamps are rendered in loc.
func NewBuilder(w WeatherSource, t TrafficSource, timeout time.Duration, loc *time.Location, logger *slog.Logger) *Builder {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		weather:  w,
		traffic:  t,
		timeout:  timeout,
		location: loc,
		logger:   logger.With("component", "report"),
		now:      time.Now,
	}
}

// Daily returns the scheduled report for city. Provider failures degrade the
// affected section instead of failing the report.
func (b *Builder) Daily(ctx context.Context, city string) string {
	current, err := b.Weather(ctx, city)
	weatherLine := Unavailable
	if err != nil {
		b.logger.WarnContext(ctx, "Weather unavailable for report", "city", city, "error", err)
	} else {
		weatherLine = FormatWeather(current)
	}

	trafficLine := FormatTraffic(b.Traffic(ctx, city))

	var sb strings.Builder
	fmt.Fprintf(&sb, "🌤 Morning report for %s\n", city)
	fmt.Fprintf(&sb, "🕗 %s\n\n", b.now().In(b.location).Format("2006-01-02 15:04"))
	fmt.Fprintf(&sb, "🌡 Weather: %s\n", weatherLine)
	fmt.Fprintf(&sb, "🚗 Traffic: %s", trafficLine)
	return sb.String()
}

// Weather fetches current weather with the builder's timeout.
func (b *Builder) Weather(ctx context.Context, city string) (*weather.Current, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	return b.weather.Current(ctx, city)
}

// Traffic fetches a traffic estimate with the builder's timeout.
func (b *Builder) Traffic(ctx context.Context, city string) traffic.Result {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	return b.traffic.Get(ctx, city)
}

func (b *Builder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

// FormatWeather renders current conditions on one line.
func FormatWeather(c *weather.Current) string {
	return fmt.Sprintf("%d°C (feels like %d°C), %s",
		int(math.Round(c.Temp)), int(math.Round(c.FeelsLike)), c.Description)
}

// FormatTraffic renders a traffic estimate on one line.
func FormatTraffic(r traffic.Result) string {
	return fmt.Sprintf("%d/10 %s", r.Level, r.Description)
}
