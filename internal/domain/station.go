package domain

import (
	"fmt"
	"math"
	"time"
)

// Trend is the direction a river level is moving.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// Valid reports whether t is a known trend.
func (t Trend) Valid() bool {
	switch t {
	case TrendRising, TrendFalling, TrendStable:
		return true
	}
	return false
}

// StationStatus classifies a level against its station thresholds.
type StationStatus string

const (
	StatusNormal   StationStatus = "normal"
	StatusWarning  StationStatus = "warning"
	StatusDanger   StationStatus = "danger"
	StatusCritical StationStatus = "critical"
)

// Valid reports whether s is a known status.
func (s StationStatus) Valid() bool {
	return s.rank() >= 0
}

// AtLeast reports whether s is as severe as other or worse.
func (s StationStatus) AtLeast(other StationStatus) bool {
	return s.rank() >= other.rank()
}

func (s StationStatus) rank() int {
	switch s {
	case StatusNormal:
		return 0
	case StatusWarning:
		return 1
	case StatusDanger:
		return 2
	case StatusCritical:
		return 3
	}
	return -1
}

const (
	// criticalMargin is the fraction above the danger level at which a
	// reading is critical.
	criticalMargin = 0.10
	// trendDeadBand is the level change (metres) below which a river is stable.
	trendDeadBand = 0.05
	// MaxLevel bounds accepted readings (metres).
	MaxLevel = 100.0
)

// RiverStation is a river gauging station with its latest observed state.
type RiverStation struct {
	ID           string        `json:"id" yaml:"id"`
	Name         string        `json:"name" yaml:"name"`
	District     string        `json:"district" yaml:"district"`
	Latitude     float64       `json:"latitude" yaml:"latitude"`
	Longitude    float64       `json:"longitude" yaml:"longitude"`
	CurrentLevel float64       `json:"currentLevel" yaml:"currentLevel"`
	NormalLevel  float64       `json:"normalLevel" yaml:"normalLevel"`
	WarningLevel float64       `json:"warningLevel" yaml:"warningLevel"`
	DangerLevel  float64       `json:"dangerLevel" yaml:"dangerLevel"`
	Trend        Trend         `json:"trend" yaml:"trend"`
	LastUpdated  time.Time     `json:"lastUpdated" yaml:"-"`
	Status       StationStatus `json:"status" yaml:"status"`
}

// WaterLevelRecord is one historical reading for a station.
type WaterLevelRecord struct {
	ID         int64         `json:"id"`
	StationID  string        `json:"stationId"`
	Level      float64       `json:"level"`
	Status     StationStatus `json:"status"`
	Trend      Trend         `json:"trend"`
	RecordedAt time.Time     `json:"recordedAt"`
}

// DeriveStatus classifies level against the station's warning and danger thresholds.
func DeriveStatus(level float64, s RiverStation) StationStatus {
	switch {
	case s.DangerLevel > 0 && level >= s.DangerLevel*(1+criticalMargin):
		return StatusCritical
	case level >= s.DangerLevel:
		return StatusDanger
	case level >= s.WarningLevel:
		return StatusWarning
	default:
		return StatusNormal
	}
}

// DeriveTrend compares two consecutive levels.
func DeriveTrend(previous, current float64) Trend {
	delta := current - previous
	switch {
	case delta > trendDeadBand:
		return TrendRising
	case delta < -trendDeadBand:
		return TrendFalling
	default:
		return TrendStable
	}
}

// ValidateLevel rejects readings that cannot be a river level.
func ValidateLevel(level float64) error {
	if math.IsNaN(level) || math.IsInf(level, 0) {
		return fmt.Errorf("%w: level must be a finite number", ErrValidation)
	}
	if level < 0 || level > MaxLevel {
		return fmt.Errorf("%w: level must be between 0 and %.0f metres", ErrValidation, MaxLevel)
	}
	return nil
}

// NewReading builds a history record for station at time at. An empty trend
// is derived from the station's current level.
func NewReading(station RiverStation, level float64, trend Trend, at time.Time) WaterLevelRecord {
	if trend == "" {
		trend = DeriveTrend(station.CurrentLevel, level)
	}
	return WaterLevelRecord{
		StationID:  station.ID,
		Level:      level,
		Status:     DeriveStatus(level, station),
		Trend:      trend,
		RecordedAt: at.UTC(),
	}
}

// Apply returns the station updated with a recorded reading.
func (s RiverStation) Apply(r WaterLevelRecord) RiverStation {
	s.CurrentLevel = r.Level
	s.Status = r.Status
	s.Trend = r.Trend
	s.LastUpdated = r.RecordedAt
	return s
}
