package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"github.com/couchcryptid/flood-watch-api/internal/observability"
)

const (
	currentVars = "temperature_2m,relative_humidity_2m,precipitation,wind_speed_10m,wind_direction_10m,cloud_cover,surface_pressure"
	hourlyVars  = "temperature_2m,relative_humidity_2m,precipitation_probability,precipitation,wind_speed_10m,wind_direction_10m,cloud_cover,surface_pressure"
)

// Client implements domain.WeatherProvider using the Open-Meteo forecast API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	latitude   float64
	longitude  float64
	attempts   uint
	retryDelay time.Duration
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo client for the island centroid. attempts
// is the total number of tries per Snapshot call.
func NewClient(baseURL string, timeout time.Duration, attempts int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:    baseURL,
		latitude:   domain.SriLankaCenterLat,
		longitude:  domain.SriLankaCenterLon,
		attempts:   uint(max(attempts, 1)),
		retryDelay: 500 * time.Millisecond,
		metrics:    metrics,
		logger:     logger,
	}
}

// Snapshot fetches current conditions and a 5-day hourly forecast. Transport
// errors and 5xx/429 responses are retried; other 4xx responses are not.
func (c *Client) Snapshot(ctx context.Context) (domain.WeatherSnapshot, error) {
	params := url.Values{
		"latitude":      {strconv.FormatFloat(c.latitude, 'f', 4, 64)},
		"longitude":     {strconv.FormatFloat(c.longitude, 'f', 4, 64)},
		"current":       {currentVars},
		"hourly":        {hourlyVars},
		"forecast_days": {"5"},
		"timezone":      {"auto"},
	}
	fullURL := c.baseURL + "?" + params.Encode()

	start := time.Now()
	snap, err := retry.DoWithData(
		func() (domain.WeatherSnapshot, error) {
			return c.doRequest(ctx, fullURL)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("weather request failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	c.metrics.WeatherAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.WeatherAPIErrors.Inc()
		return domain.WeatherSnapshot{}, err
	}
	return snap, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.WeatherSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.WeatherSnapshot{}, retry.Unrecoverable(fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		apiErr := fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return domain.WeatherSnapshot{}, retry.Unrecoverable(apiErr)
		}
		return domain.WeatherSnapshot{}, apiErr
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("decode response: %w", err)
	}
	if r.Current == nil {
		return domain.WeatherSnapshot{}, errors.New("open-meteo response has no current block")
	}

	return r.toSnapshot(), nil
}

// Open-Meteo API response types.

type response struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Current   *current `json:"current"`
	Hourly    hourly   `json:"hourly"`
}

type current struct {
	Time               string  `json:"time"`
	Temperature2m      float64 `json:"temperature_2m"`
	RelativeHumidity2m float64 `json:"relative_humidity_2m"`
	Precipitation      float64 `json:"precipitation"`
	WindSpeed10m       float64 `json:"wind_speed_10m"`
	WindDirection10m   float64 `json:"wind_direction_10m"`
	CloudCover         float64 `json:"cloud_cover"`
	SurfacePressure    float64 `json:"surface_pressure"`
}

// hourly holds parallel arrays indexed by Time. Nulls decode as zero.
type hourly struct {
	Time                     []string  `json:"time"`
	Temperature2m            []float64 `json:"temperature_2m"`
	RelativeHumidity2m       []float64 `json:"relative_humidity_2m"`
	PrecipitationProbability []float64 `json:"precipitation_probability"`
	Precipitation            []float64 `json:"precipitation"`
	WindSpeed10m             []float64 `json:"wind_speed_10m"`
	WindDirection10m         []float64 `json:"wind_direction_10m"`
	CloudCover               []float64 `json:"cloud_cover"`
	SurfacePressure          []float64 `json:"surface_pressure"`
}

func (r response) toSnapshot() domain.WeatherSnapshot {
	snap := domain.WeatherSnapshot{
		Current: domain.WeatherData{
			Latitude:      r.Latitude,
			Longitude:     r.Longitude,
			Temperature:   r.Current.Temperature2m,
			Humidity:      r.Current.RelativeHumidity2m,
			Precipitation: r.Current.Precipitation,
			WindSpeed:     r.Current.WindSpeed10m,
			WindDirection: r.Current.WindDirection10m,
			CloudCover:    r.Current.CloudCover,
			Pressure:      r.Current.SurfacePressure,
			Timestamp:     r.Current.Time,
		},
		Forecast: make([]domain.WeatherForecast, len(r.Hourly.Time)),
	}
	h := r.Hourly
	for i, t := range h.Time {
		snap.Forecast[i] = domain.WeatherForecast{
			Time:                     t,
			Temperature:              at(h.Temperature2m, i),
			Humidity:                 at(h.RelativeHumidity2m, i),
			Precipitation:            at(h.Precipitation, i),
			PrecipitationProbability: at(h.PrecipitationProbability, i),
			WindSpeed:                at(h.WindSpeed10m, i),
			WindDirection:            at(h.WindDirection10m, i),
			CloudCover:               at(h.CloudCover, i),
			Pressure:                 at(h.SurfacePressure, i),
		}
	}
	return snap
}

func at(xs []float64, i int) float64 {
	if i < len(xs) {
		return xs[i]
	}
	return 0
}
