// Package domain models flood monitoring data for Sri Lanka.
//
// # Reference Data
//
// River gauging stations, flood-risk zones, hazard alerts and news items form
// a static catalog (see package catalog). Station levels are metres above the
// gauge datum. Each station carries three thresholds:
//
//	normalLevel   typical dry-season level, informational only
//	warningLevel  minor flooding expected in low-lying areas
//	dangerLevel   major flooding, evacuation advised
//
// # Status Classification
//
// A recorded level is classified against its station thresholds by
// [DeriveStatus]:
//
//	level <  warning                  normal
//	level >= warning                  warning
//	level >= danger                   danger
//	level >= danger * 1.10            critical
//
// Trend compares a new level with the previous one using a 5 cm dead band
// ([DeriveTrend]) so gauge noise reads as "stable".
//
// # Weather
//
// Weather comes from Open-Meteo for the island centroid ([SriLankaCenter]).
// Forecast modes map to hour offsets into the hourly series:
//
//	current 0 | 24h 24 | 48h 48 | 72h 72 | 5days 120
//
// An offset past the end of the series is clamped to the last entry. See
// [ForecastAt].
//
// # Districts
//
// The 25 administrative districts in [Districts] are the only accepted values
// for district filters and preferred-district preferences.
package domain
