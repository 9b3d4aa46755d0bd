package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"github.com/couchcryptid/flood-watch-api/internal/observability"
)

// DefaultHistoryHours is the history window when the caller gives none.
const DefaultHistoryHours = 24

// Reading sources, used as the recorded-readings metric label.
const (
	SourceAPI      = "api"
	SourceSnapshot = "snapshot"
)

// StationCatalog is the static station reference data.
type StationCatalog interface {
	Stations(district string) []domain.RiverStation
	Station(id string) (domain.RiverStation, error)
}

// ReadingStore persists water-level history.
type ReadingStore interface {
	RecordReadings(ctx context.Context, records ...domain.WaterLevelRecord) ([]domain.WaterLevelRecord, error)
	History(ctx context.Context, stationID string, since time.Time) ([]domain.WaterLevelRecord, error)
	LatestReadings(ctx context.Context) (map[string]domain.WaterLevelRecord, error)
}

// Monitor serves station state: catalog stations overlaid with the latest
// recorded reading, plus recording and history lookups.
type Monitor struct {
	catalog   StationCatalog
	store     ReadingStore
	publisher domain.ReadingPublisher
	metrics   *observability.Metrics
	logger    *slog.Logger
	maxHours  int
}

// NewMonitor creates a Monitor. A nil publisher disables publishing.
func NewMonitor(catalog StationCatalog, store ReadingStore, publisher domain.ReadingPublisher, metrics *observability.Metrics, logger *slog.Logger, maxHours int) *Monitor {
	if maxHours < 1 {
		maxHours = DefaultHistoryHours
	}
	return &Monitor{
		catalog:   catalog,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		maxHours:  maxHours,
	}
}

// Stations lists stations, optionally filtered by district.
func (m *Monitor) Stations(ctx context.Context, district string) ([]domain.RiverStation, error) {
	stations := m.catalog.Stations(district)
	latest, err := m.store.LatestReadings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest readings: %w", err)
	}
	for i := range stations {
		if r, ok := latest[stations[i].ID]; ok {
			stations[i] = stations[i].Apply(r)
		}
	}
	return stations, nil
}

// Station returns one station with its latest reading applied.
func (m *Monitor) Station(ctx context.Context, id string) (domain.RiverStation, error) {
	station, err := m.catalog.Station(id)
	if err != nil {
		return domain.RiverStation{}, err
	}
	latest, err := m.store.LatestReadings(ctx)
	if err != nil {
		return domain.RiverStation{}, fmt.Errorf("load latest readings: %w", err)
	}
	if r, ok := latest[id]; ok {
		station = station.Apply(r)
	}
	return station, nil
}

// Record stores a new level for a station. Status is always derived; an
// empty trend is derived from the station's previous level.
func (m *Monitor) Record(ctx context.Context, stationID string, level float64, trend domain.Trend) (domain.WaterLevelRecord, error) {
	if err := domain.ValidateLevel(level); err != nil {
		return domain.WaterLevelRecord{}, err
	}
	if trend != "" && !trend.Valid() {
		return domain.WaterLevelRecord{}, fmt.Errorf("%w: trend must be one of rising, falling, stable", domain.ErrValidation)
	}

	station, err := m.Station(ctx, stationID)
	if err != nil {
		return domain.WaterLevelRecord{}, err
	}

	saved, err := m.store.RecordReadings(ctx, domain.NewReading(station, level, trend, domain.Now()))
	if err != nil {
		return domain.WaterLevelRecord{}, err
	}
	m.metrics.ReadingsRecorded.WithLabelValues(SourceAPI).Inc()
	m.logger.Info("water level recorded",
		"station_id", stationID,
		"level", level,
		"status", saved[0].Status,
		"trend", saved[0].Trend,
	)

	m.publish(ctx, saved)
	return saved[0], nil
}

// History returns a station's readings for the last hours, newest first.
// Zero selects DefaultHistoryHours; the window is clamped to [1, max].
func (m *Monitor) History(ctx context.Context, stationID string, hours int) ([]domain.WaterLevelRecord, error) {
	if _, err := m.catalog.Station(stationID); err != nil {
		return nil, err
	}
	since := domain.Now().Add(-time.Duration(m.clampHours(hours)) * time.Hour)
	return m.store.History(ctx, stationID, since)
}

func (m *Monitor) clampHours(hours int) int {
	switch {
	case hours == 0:
		hours = DefaultHistoryHours
	case hours < 1:
		hours = 1
	}
	return min(hours, m.maxHours)
}

// Snapshot records every station's current state as one batch.
func (m *Monitor) Snapshot(ctx context.Context) ([]domain.WaterLevelRecord, error) {
	stations, err := m.Stations(ctx, "")
	if err != nil {
		return nil, err
	}

	now := domain.Now()
	records := make([]domain.WaterLevelRecord, len(stations))
	for i, s := range stations {
		records[i] = domain.WaterLevelRecord{
			StationID:  s.ID,
			Level:      s.CurrentLevel,
			Status:     domain.DeriveStatus(s.CurrentLevel, s),
			Trend:      s.Trend,
			RecordedAt: now,
		}
	}

	saved, err := m.store.RecordReadings(ctx, records...)
	if err != nil {
		return nil, err
	}
	m.metrics.ReadingsRecorded.WithLabelValues(SourceSnapshot).Add(float64(len(saved)))

	m.publish(ctx, saved)
	return saved, nil
}

// publish forwards readings downstream. Failures are logged only: the
// readings are already persisted.
func (m *Monitor) publish(ctx context.Context, records []domain.WaterLevelRecord) {
	if m.publisher == nil || len(records) == 0 {
		return
	}
	if err := m.publisher.Publish(ctx, records...); err != nil {
		m.metrics.ReadingPublishErrors.Inc()
		m.logger.Error("publish readings failed", "error", err, "count", len(records))
		return
	}
	m.metrics.ReadingsPublished.Add(float64(len(records)))
}
