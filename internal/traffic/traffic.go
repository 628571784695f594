// Package traffic estimates road congestion on a 1..10 scale. Known cities are
// measured with an OSRM route through the centre; everything else, and any
// routing failure, falls back to a time-of-day estimate. Get never fails.
package traffic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/edgard/morningbot/internal/resilience"
)

// Sources of an estimate.
const (
	SourceRoute     = "route"
	SourceTimeOfDay = "time_of_day"
)

const (
	// routeOffset is the longitude offset of each route end from the centre (~10 km).
	routeOffset = 0.1
	// freeFlowKmh is the speed considered congestion-free.
	freeFlowKmh = 60.0
)

// Result is a traffic estimate. Status is always http.StatusOK.
type Result struct {
	Status      int
	Level       int
	Description string
	Source      string
}

// Config configures an Estimator.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Location *time.Location
}

// Estimator produces traffic estimates.
type Estimator struct {
	baseURL string
	loc     *time.Location
	http    *http.Client
	breaker *resilience.Breaker
	logger  *slog.Logger
	now     func() time.Time
}

// NewEstimator creates an Estimator. The fallback uses the hour in cfg.Location.
func NewEstimator(cfg Config, logger *slog.Logger) *Estimator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		loc:     cfg.Location,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: resilience.NewBreaker(resilience.BreakerConfig{Name: "osrm"}, logger),
		logger:  logger.With("component", "traffic"),
		now:     time.Now,
	}
}

// Get returns the traffic estimate for city.
func (e *Estimator) Get(ctx context.Context, city string) Result {
	coords, ok := lookupCity(city)
	if !ok {
		return e.fallback()
	}

	var level int
	err := e.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		level, err = e.routeLevel(ctx, coords)
		return err
	})
	if err != nil {
		e.logger.WarnContext(ctx, "Route estimate failed, using time of day", "city", city, "error", err)
		return e.fallback()
	}

	return Result{
		Status:      http.StatusOK,
		Level:       level,
		Description: Describe(level),
		Source:      SourceRoute,
	}
}

func (e *Estimator) fallback() Result {
	level := LevelForHour(e.now().In(e.loc).Hour())
	return Result{
		Status:      http.StatusOK,
		Level:       level,
		Description: Describe(level),
		Source:      SourceTimeOfDay,
	}
}

func (e *Estimator) routeLevel(ctx context.Context, c coordinates) (int, error) {
	endpoint := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false&alternatives=false",
		e.baseURL, c.lon-routeOffset, c.lat, c.lon+routeOffset, c.lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("osrm status %d", resp.StatusCode)
	}

	var payload struct {
		Routes []struct {
			Duration float64 `json:"duration"`
			Distance float64 `json:"distance"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to decode osrm response: %w", err)
	}
	if len(payload.Routes) == 0 {
		return 0, fmt.Errorf("osrm returned no routes")
	}

	route := payload.Routes[0]
	return levelFromRoute(route.Duration, route.Distance), nil
}

// levelFromRoute converts an actual duration (s) over distance (m) into a
// level by comparing it with free-flow travel time.
func levelFromRoute(durationSec, distanceM float64) int {
	optimal := distanceM / 1000 / freeFlowKmh * 3600
	ratio := 1.0
	if optimal > 0 {
		ratio = durationSec / optimal
	}
	return clamp(int((ratio-1)*5+1), 1, 10)
}

// LevelForHour is the time-of-day estimate: morning peak 07-09 is 8, evening
// peak 17-20 is 9, daytime 10-16 is 6 and night is 2.
func LevelForHour(hour int) int {
	switch {
	case hour >= 7 && hour <= 9:
		return 8
	case hour >= 17 && hour <= 20:
		return 9
	case hour >= 10 && hour <= 16:
		return 6
	default:
		return 2
	}
}

// Describe returns a human description for level.
func Describe(level int) string {
	switch {
	case level <= 2:
		return "🟢 Free roads"
	case level <= 4:
		return "🟡 Light traffic"
	case level <= 6:
		return "🟠 Moderate traffic"
	case level <= 8:
		return "🔴 Heavy traffic"
	default:
		return "⚫ Gridlock"
	}
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
