//go:build openmeteo

package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/flood-watch-api/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Open-Meteo API (no key required).
// Run with: go test -tags=openmeteo ./internal/adapter/openmeteo/ -v -count=1

func TestSmoke_Snapshot(t *testing.T) {
	c := NewClient("https://api.open-meteo.com/v1/forecast", 10*time.Second, 2,
		observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 7.87, snap.Current.Latitude, 0.1)
	assert.InDelta(t, 80.77, snap.Current.Longitude, 0.1)
	assert.NotEmpty(t, snap.Current.Timestamp)
	assert.Len(t, snap.Forecast, 120, "5 days of hourly steps")
	assert.Greater(t, snap.Current.Pressure, 900.0)
}
