package persistence

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/flood-watch-api/internal/domain"
)

// userModel is the GORM model for accounts.
type userModel struct {
	ID        string  `gorm:"primaryKey;type:varchar(36)"`
	Username  string  `gorm:"not null;uniqueIndex;type:varchar(64)"`
	Password  string  `gorm:"not null"`
	Email     *string `gorm:"type:varchar(255)"`
	CreatedAt time.Time
}

func (userModel) TableName() string {
	return "users"
}

func (m *userModel) toDomain() domain.User {
	u := domain.User{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.Password,
		CreatedAt:    m.CreatedAt,
	}
	if m.Email != nil {
		u.Email = *m.Email
	}
	return u
}

func (m *userModel) fromDomain(u domain.User) {
	m.ID = u.ID
	m.Username = u.Username
	m.Password = u.PasswordHash
	m.CreatedAt = u.CreatedAt
	m.Email = nil
	if u.Email != "" {
		email := u.Email
		m.Email = &email
	}
}

// preferencesModel holds one row per user. Booleans carry no column default
// so that false is written as given.
type preferencesModel struct {
	ID                 int64      `gorm:"primaryKey;autoIncrement"`
	UserID             string     `gorm:"not null;uniqueIndex;type:varchar(36)"`
	User               *userModel `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	AlertsEnabled      bool       `gorm:"not null"`
	EmailAlerts        bool       `gorm:"not null"`
	WarningThreshold   string     `gorm:"not null;type:varchar(16)"`
	PreferredDistricts stringList `gorm:"type:text"`
	Theme              string     `gorm:"not null;type:varchar(16)"`
}

func (preferencesModel) TableName() string {
	return "user_preferences"
}

func (m *preferencesModel) toDomain() domain.UserPreferences {
	districts := []string(m.PreferredDistricts)
	if districts == nil {
		districts = []string{}
	}
	return domain.UserPreferences{
		ID:                 m.ID,
		UserID:             m.UserID,
		AlertsEnabled:      m.AlertsEnabled,
		EmailAlerts:        m.EmailAlerts,
		WarningThreshold:   domain.StationStatus(m.WarningThreshold),
		PreferredDistricts: districts,
		Theme:              domain.Theme(m.Theme),
	}
}

func (m *preferencesModel) fromDomain(p domain.UserPreferences) {
	m.ID = p.ID
	m.UserID = p.UserID
	m.AlertsEnabled = p.AlertsEnabled
	m.EmailAlerts = p.EmailAlerts
	m.WarningThreshold = string(p.WarningThreshold)
	m.PreferredDistricts = stringList(p.PreferredDistricts)
	m.Theme = string(p.Theme)
}

// favoriteModel pins a station for a user; a station is pinned at most once per user.
type favoriteModel struct {
	ID        int64      `gorm:"primaryKey;autoIncrement"`
	UserID    string     `gorm:"not null;uniqueIndex:idx_favorite_user_station;type:varchar(36)"`
	User      *userModel `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	StationID string     `gorm:"not null;uniqueIndex:idx_favorite_user_station;type:varchar(64)"`
	Name      string     `gorm:"not null"`
	Latitude  float64    `gorm:"not null"`
	Longitude float64    `gorm:"not null"`
	CreatedAt time.Time
}

func (favoriteModel) TableName() string {
	return "favorite_locations"
}

func (m *favoriteModel) toDomain() domain.FavoriteLocation {
	return domain.FavoriteLocation{
		ID:        m.ID,
		UserID:    m.UserID,
		StationID: m.StationID,
		Name:      m.Name,
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
		CreatedAt: m.CreatedAt,
	}
}

// waterLevelModel is one row of water_level_history.
type waterLevelModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	StationID  string    `gorm:"not null;index:idx_water_level_station_time,priority:1;type:varchar(64)"`
	Level      float64   `gorm:"not null"`
	Status     string    `gorm:"not null;type:varchar(16)"`
	Trend      string    `gorm:"not null;type:varchar(16)"`
	RecordedAt time.Time `gorm:"not null;index:idx_water_level_station_time,priority:2"`
}

func (waterLevelModel) TableName() string {
	return "water_level_history"
}

func (m *waterLevelModel) toDomain() domain.WaterLevelRecord {
	return domain.WaterLevelRecord{
		ID:         m.ID,
		StationID:  m.StationID,
		Level:      m.Level,
		Status:     domain.StationStatus(m.Status),
		Trend:      domain.Trend(m.Trend),
		RecordedAt: m.RecordedAt.UTC(),
	}
}

func (m *waterLevelModel) fromDomain(r domain.WaterLevelRecord) {
	m.ID = r.ID
	m.StationID = r.StationID
	m.Level = r.Level
	m.Status = string(r.Status)
	m.Trend = string(r.Trend)
	m.RecordedAt = r.RecordedAt.UTC()
}

// stringList stores a []string as a JSON array in a text column so the same
// schema works on Postgres and SQLite.
type stringList []string

func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *stringList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = stringList{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("scan stringList: unsupported type %T", src)
	}
	if len(data) == 0 {
		*l = stringList{}
		return nil
	}
	return json.Unmarshal(data, (*[]string)(l))
}
