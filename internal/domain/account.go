package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Credential limits. bcrypt ignores input past 72 bytes, so longer passwords
// are rejected instead of silently truncated.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 64
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

// User is a registered account. The password hash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ValidateUsername checks the trimmed username length.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(username))
	if n < MinUsernameLength || n > MaxUsernameLength {
		return fmt.Errorf("%w: username must be between %d and %d characters",
			ErrValidation, MinUsernameLength, MaxUsernameLength)
	}
	if strings.ContainsAny(username, " \t\r\n") {
		return fmt.Errorf("%w: username must not contain whitespace", ErrValidation)
	}
	return nil
}

// ValidatePassword checks the password length in characters and bytes.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, MaxPasswordBytes)
	}
	return nil
}

// Theme is the dashboard colour scheme.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

// ValidThreshold reports whether s can be used as an alert threshold. Normal
// is excluded: it would alert on every reading.
func ValidThreshold(s StationStatus) bool {
	return s.Valid() && s != StatusNormal
}

// UserPreferences are per-user dashboard and alerting settings.
type UserPreferences struct {
	ID                 int64         `json:"id"`
	UserID             string        `json:"userId"`
	AlertsEnabled      bool          `json:"alertsEnabled"`
	EmailAlerts        bool          `json:"emailAlerts"`
	WarningThreshold   StationStatus `json:"warningThreshold"`
	PreferredDistricts []string      `json:"preferredDistricts"`
	Theme              Theme         `json:"theme"`
}

// DefaultPreferences returns the settings a new account starts with.
func DefaultPreferences(userID string) UserPreferences {
	return UserPreferences{
		UserID:             userID,
		AlertsEnabled:      true,
		EmailAlerts:        false,
		WarningThreshold:   StatusWarning,
		PreferredDistricts: []string{},
		Theme:              ThemeSystem,
	}
}

// PreferencesPatch is a partial update; nil fields are left unchanged.
type PreferencesPatch struct {
	AlertsEnabled      *bool          `json:"alertsEnabled"`
	EmailAlerts        *bool          `json:"emailAlerts"`
	WarningThreshold   *StationStatus `json:"warningThreshold"`
	PreferredDistricts *[]string      `json:"preferredDistricts"`
	Theme              *Theme         `json:"theme"`
}

// Validate checks every provided field.
func (p PreferencesPatch) Validate() error {
	if p.WarningThreshold != nil && !ValidThreshold(*p.WarningThreshold) {
		return fmt.Errorf("%w: warningThreshold must be one of warning, danger, critical", ErrValidation)
	}
	if p.Theme != nil && !p.Theme.Valid() {
		return fmt.Errorf("%w: theme must be one of light, dark, system", ErrValidation)
	}
	if p.PreferredDistricts != nil {
		for _, d := range *p.PreferredDistricts {
			if !IsDistrict(d) {
				return fmt.Errorf("%w: unknown district %q", ErrValidation, d)
			}
		}
	}
	return nil
}

// Apply returns prefs with the patch applied. Duplicate districts are dropped
// keeping first occurrence order.
func (p PreferencesPatch) Apply(prefs UserPreferences) UserPreferences {
	if p.AlertsEnabled != nil {
		prefs.AlertsEnabled = *p.AlertsEnabled
	}
	if p.EmailAlerts != nil {
		prefs.EmailAlerts = *p.EmailAlerts
	}
	if p.WarningThreshold != nil {
		prefs.WarningThreshold = *p.WarningThreshold
	}
	if p.PreferredDistricts != nil {
		seen := make(map[string]bool, len(*p.PreferredDistricts))
		districts := make([]string, 0, len(*p.PreferredDistricts))
		for _, d := range *p.PreferredDistricts {
			if !seen[d] {
				seen[d] = true
				districts = append(districts, d)
			}
		}
		prefs.PreferredDistricts = districts
	}
	if p.Theme != nil {
		prefs.Theme = *p.Theme
	}
	return prefs
}

// FavoriteLocation is a station pinned by a user.
type FavoriteLocation struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	StationID string    `json:"stationId"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"createdAt"`
}
