package domain

import (
	"context"
	"fmt"
	"time"
)

// WeatherData is a single point-in-time weather reading.
type WeatherData struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Temperature   float64 `json:"temperature"`   // °C
	Humidity      float64 `json:"humidity"`      // %
	Precipitation float64 `json:"precipitation"` // mm
	WindSpeed     float64 `json:"windSpeed"`     // km/h
	WindDirection float64 `json:"windDirection"` // degrees
	CloudCover    float64 `json:"cloudCover"`    // %
	Pressure      float64 `json:"pressure"`      // hPa
	Timestamp     string  `json:"timestamp"`
	// Stale is set when the upstream failed and an older reading is served.
	Stale bool `json:"stale,omitempty"`
}

// WeatherForecast is one hourly forecast step.
type WeatherForecast struct {
	Time                     string  `json:"time"`
	Temperature              float64 `json:"temperature"`
	Humidity                 float64 `json:"humidity"`
	Precipitation            float64 `json:"precipitation"`
	PrecipitationProbability float64 `json:"precipitationProbability"`
	WindSpeed                float64 `json:"windSpeed"`
	WindDirection            float64 `json:"windDirection"`
	CloudCover               float64 `json:"cloudCover"`
	Pressure                 float64 `json:"pressure"`
}

// WeatherSnapshot is what one upstream fetch yields.
type WeatherSnapshot struct {
	Current  WeatherData
	Forecast []WeatherForecast
}

// WeatherProvider yields the current weather and hourly forecast.
type WeatherProvider interface {
	Snapshot(ctx context.Context) (WeatherSnapshot, error)
}

// ForecastMode selects how far ahead the map weather layer looks.
type ForecastMode string

const (
	ModeCurrent ForecastMode = "current"
	Mode24h     ForecastMode = "24h"
	Mode48h     ForecastMode = "48h"
	Mode72h     ForecastMode = "72h"
	Mode5Days   ForecastMode = "5days"
)

var forecastOffsets = map[ForecastMode]int{
	ModeCurrent: 0,
	Mode24h:     24,
	Mode48h:     48,
	Mode72h:     72,
	Mode5Days:   120,
}

// ParseForecastMode accepts the query value of ?mode=. Empty means current.
func ParseForecastMode(s string) (ForecastMode, error) {
	if s == "" {
		return ModeCurrent, nil
	}
	m := ForecastMode(s)
	if _, ok := forecastOffsets[m]; !ok {
		return "", fmt.Errorf("%w: unknown forecast mode %q", ErrValidation, s)
	}
	return m, nil
}

// HoursOffset is the index into the hourly forecast for m.
func (m ForecastMode) HoursOffset() int {
	return forecastOffsets[m]
}

// ForecastAt resolves the reading to show for mode. Current mode and an empty
// forecast both return the current reading; other modes pick the hourly step
// at the mode's offset, clamped to the last step.
func ForecastAt(s WeatherSnapshot, mode ForecastMode) WeatherData {
	if mode == ModeCurrent || len(s.Forecast) == 0 {
		return s.Current
	}
	idx := min(mode.HoursOffset(), len(s.Forecast)-1)
	f := s.Forecast[idx]
	return WeatherData{
		Latitude:      SriLankaCenterLat,
		Longitude:     SriLankaCenterLon,
		Temperature:   f.Temperature,
		Humidity:      f.Humidity,
		Precipitation: f.Precipitation,
		WindSpeed:     f.WindSpeed,
		WindDirection: f.WindDirection,
		CloudCover:    f.CloudCover,
		Pressure:      f.Pressure,
		Timestamp:     f.Time,
		Stale:         s.Current.Stale,
	}
}

// FallbackWeather is served when the upstream has never answered.
func FallbackWeather(now time.Time) WeatherSnapshot {
	return WeatherSnapshot{
		Current: WeatherData{
			Latitude:      SriLankaCenterLat,
			Longitude:     SriLankaCenterLon,
			Temperature:   28.5,
			Humidity:      78,
			Precipitation: 2.5,
			WindSpeed:     12.3,
			WindDirection: 225,
			CloudCover:    65,
			Pressure:      1008,
			Timestamp:     now.UTC().Format(time.RFC3339),
		},
		Forecast: []WeatherForecast{},
	}
}
