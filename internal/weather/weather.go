// Package weather is a small OpenWeatherMap client: it checks that a city
// exists (geocoding API) and fetches current conditions.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/edgard/morningbot/internal/resilience"
)

// Current describes the weather in a city right now.
type Current struct {
	City        string
	Temp        float64
	FeelsLike   float64
	Description string
}

// APIError is returned when the provider answers with a non-200 status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("weather api status %d: %s", e.Status, e.Message)
}

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	GeoURL  string
	Units   string
	Lang    string
	Timeout time.Duration
}

// Client talks to OpenWeatherMap.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *resilience.Breaker
	logger  *slog.Logger
}

// NewClient creates a Client. Every request is bounded by cfg.Timeout.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		breaker: resilience.NewBreaker(resilience.BreakerConfig{
			Name:   "openweathermap",
			Ignore: isClientError,
		}, logger),
		logger: logger.With("component", "weather"),
	}
}

// Exists reports whether the geocoding API knows city. Names shorter than two
// characters are rejected without a request; any error counts as "no".
func (c *Client) Exists(ctx context.Context, city string) bool {
	city = strings.TrimSpace(city)
	if len([]rune(city)) < 2 {
		return false
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("limit", "1")
	q.Set("appid", c.cfg.APIKey)

	var places []struct {
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, c.cfg.GeoURL+"/direct", q, &places); err != nil {
		c.logger.WarnContext(ctx, "City lookup failed", "city", city, "error", err)
		return false
	}
	return len(places) > 0
}

// Current fetches current conditions for city.
func (c *Client) Current(ctx context.Context, city string) (*Current, error) {
	q := url.Values{}
	q.Set("q", strings.TrimSpace(city))
	q.Set("appid", c.cfg.APIKey)
	if c.cfg.Units != "" {
		q.Set("units", c.cfg.Units)
	}
	if c.cfg.Lang != "" {
		q.Set("lang", c.cfg.Lang)
	}

	var payload struct {
		Name string `json:"name"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}
	if err := c.getJSON(ctx, c.cfg.BaseURL+"/weather", q, &payload); err != nil {
		return nil, fmt.Errorf("failed to get weather for %q: %w", city, err)
	}
	if len(payload.Weather) == 0 {
		return nil, fmt.Errorf("malformed weather payload for %q: no conditions", city)
	}

	name := payload.Name
	if name == "" {
		name = city
	}
	return &Current{
		City:        name,
		Temp:        payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		Description: payload.Weather[0].Description,
	}, nil
}

// isClientError reports whether err is a 4xx answer other than 429. Those
// describe the request, not the health of the API.
func isClientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		apiErr.Status >= 400 && apiErr.Status < 500 &&
		apiErr.Status != http.StatusTooManyRequests
}

func (c *Client) getJSON(ctx context.Context, endpoint string, q url.Values, dst any) error {
	return c.breaker.Do(ctx, func(ctx context.Context) error {
		return c.fetchJSON(ctx, endpoint, q, dst)
	})
}

func (c *Client) fetchJSON(ctx context.Context, endpoint string, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		var apiErr struct {
			Message string `json:"message"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
