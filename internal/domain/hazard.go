package domain

import "time"

// RiskLevel grades a flood-risk zone.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLegendEntry describes a risk level for map legends.
type RiskLegendEntry struct {
	Level       RiskLevel `json:"level"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
}

// RiskLegend is ordered from least to most severe.
var RiskLegend = []RiskLegendEntry{
	{Level: RiskLow, Label: "Low", Description: "Minimal flood risk. Normal conditions."},
	{Level: RiskMedium, Label: "Medium", Description: "Moderate risk. Monitor water levels."},
	{Level: RiskHigh, Label: "High", Description: "High risk. Take precautions."},
	{Level: RiskCritical, Label: "Critical", Description: "Immediate danger. Evacuate if advised."},
}

// Valid reports whether l is a known risk level.
func (l RiskLevel) Valid() bool {
	for _, e := range RiskLegend {
		if e.Level == l {
			return true
		}
	}
	return false
}

// FloodRiskZone is an assessed area drawn as a polygon of [lat, lon] points.
type FloodRiskZone struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	District           string       `json:"district"`
	RiskLevel          RiskLevel    `json:"riskLevel"`
	Coordinates        [][2]float64 `json:"coordinates"`
	AffectedPopulation int          `json:"affectedPopulation,omitempty"`
	LastAssessed       time.Time    `json:"lastAssessed"`
}

// AlertType is the hazard an alert is about.
type AlertType string

const (
	AlertFlood     AlertType = "flood"
	AlertStorm     AlertType = "storm"
	AlertRainfall  AlertType = "rainfall"
	AlertCyclone   AlertType = "cyclone"
	AlertLandslide AlertType = "landslide"
)

// Valid reports whether t is a known alert type.
func (t AlertType) Valid() bool {
	switch t {
	case AlertFlood, AlertStorm, AlertRainfall, AlertCyclone, AlertLandslide:
		return true
	}
	return false
}

// AlertSeverity follows the advisory < watch < warning < emergency ladder.
type AlertSeverity string

const (
	SeverityAdvisory  AlertSeverity = "advisory"
	SeverityWatch     AlertSeverity = "watch"
	SeverityWarning   AlertSeverity = "warning"
	SeverityEmergency AlertSeverity = "emergency"
)

// Valid reports whether s is a known severity.
func (s AlertSeverity) Valid() bool {
	switch s {
	case SeverityAdvisory, SeverityWatch, SeverityWarning, SeverityEmergency:
		return true
	}
	return false
}

// HazardAlert is an official warning covering one or more districts.
type HazardAlert struct {
	ID            string        `json:"id"`
	Type          AlertType     `json:"type"`
	Severity      AlertSeverity `json:"severity"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	AffectedAreas []string      `json:"affectedAreas"`
	IssuedAt      time.Time     `json:"issuedAt"`
	ExpiresAt     time.Time     `json:"expiresAt"`
	Source        string        `json:"source"`
}

// Active reports whether the alert has not yet expired at now.
func (a HazardAlert) Active(now time.Time) bool {
	return a.ExpiresAt.After(now)
}

// NewsCategory groups news items.
type NewsCategory string

const (
	NewsWeather  NewsCategory = "weather"
	NewsFlood    NewsCategory = "flood"
	NewsDisaster NewsCategory = "disaster"
	NewsGeneral  NewsCategory = "general"
)

// Valid reports whether c is a known category.
func (c NewsCategory) Valid() bool {
	switch c {
	case NewsWeather, NewsFlood, NewsDisaster, NewsGeneral:
		return true
	}
	return false
}

// NewsItem is a headline linking to an external article.
type NewsItem struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Summary     string       `json:"summary"`
	Source      string       `json:"source"`
	URL         string       `json:"url"`
	PublishedAt time.Time    `json:"publishedAt"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	Category    NewsCategory `json:"category"`
}
