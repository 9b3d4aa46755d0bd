package persistence

import (
	"context"
	"time"

	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"gorm.io/gorm"
)

// RecordReadings appends readings in one transaction and returns them with IDs.
func (s *Store) RecordReadings(ctx context.Context, records ...domain.WaterLevelRecord) ([]domain.WaterLevelRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}
	rows := make([]waterLevelModel, len(records))
	for i := range records {
		rows[i].fromDomain(records[i])
		rows[i].ID = 0
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, translate(err, "record water levels")
	}

	out := make([]domain.WaterLevelRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// RecordMissingReadings appends only the readings whose station and
// timestamp are not stored yet, and returns the ones it wrote.
func (s *Store) RecordMissingReadings(ctx context.Context, records ...domain.WaterLevelRecord) ([]domain.WaterLevelRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}
	lo, hi := records[0].RecordedAt.UTC(), records[0].RecordedAt.UTC()
	for _, r := range records[1:] {
		at := r.RecordedAt.UTC()
		if at.Before(lo) {
			lo = at
		}
		if at.After(hi) {
			hi = at
		}
	}

	var rows []waterLevelModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []waterLevelModel
		err := tx.Select("station_id", "recorded_at").
			Where("recorded_at >= ? AND recorded_at <= ?", lo, hi).
			Find(&existing).Error
		if err != nil {
			return err
		}
		stored := make(map[string]bool, len(existing))
		for _, e := range existing {
			stored[readingKey(e.StationID, e.RecordedAt)] = true
		}

		for _, r := range records {
			key := readingKey(r.StationID, r.RecordedAt)
			if stored[key] {
				continue
			}
			stored[key] = true
			var m waterLevelModel
			m.fromDomain(r)
			m.ID = 0
			rows = append(rows, m)
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, translate(err, "record missing water levels")
	}

	out := make([]domain.WaterLevelRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

func readingKey(stationID string, at time.Time) string {
	return stationID + "|" + at.UTC().Format(time.RFC3339Nano)
}

// History returns a station's readings recorded at or after since, newest first.
func (s *Store) History(ctx context.Context, stationID string, since time.Time) ([]domain.WaterLevelRecord, error) {
	var rows []waterLevelModel
	err := s.db.WithContext(ctx).
		Where("station_id = ? AND recorded_at >= ?", stationID, since.UTC()).
		Order("recorded_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "get water level history")
	}

	out := make([]domain.WaterLevelRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// LatestReadings returns the most recent reading per station, keyed by station ID.
func (s *Store) LatestReadings(ctx context.Context) (map[string]domain.WaterLevelRecord, error) {
	var rows []waterLevelModel
	err := s.db.WithContext(ctx).Raw(`
		SELECT h.* FROM water_level_history h
		JOIN (
			SELECT station_id, MAX(recorded_at) AS recorded_at
			FROM water_level_history
			GROUP BY station_id
		) latest ON h.station_id = latest.station_id AND h.recorded_at = latest.recorded_at`).
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "get latest water levels")
	}

	out := make(map[string]domain.WaterLevelRecord, len(rows))
	for i := range rows {
		r := rows[i].toDomain()
		// Equal timestamps: the later insert wins.
		if prev, ok := out[r.StationID]; ok && prev.ID > r.ID {
			continue
		}
		out[r.StationID] = r
	}
	return out, nil
}
