package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// DefaultSessionSecret is used when SESSION_SECRET is unset. Fine for local
// development, never for production.
const DefaultSessionSecret = "flood-monitor-secret-key"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	Environment     string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional rotating log file.
	LogFile           string
	LogFileMaxSizeMB  int
	LogFileMaxBackups int
	LogFileMaxAgeDays int

	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string

	SessionSecret         string
	SessionMaxAge         time.Duration
	SessionCookieSecure   bool
	SessionCookieSameSite string
	SessionCookieDomain   string

	CORSAllowedOrigins []string

	WeatherBaseURL       string
	WeatherTimeout       time.Duration
	WeatherCacheTTL      time.Duration
	WeatherRetryAttempts int

	// Kafka publication of recorded water levels (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaReadingsTopic string

	SnapshotEnabled     bool
	SnapshotSchedule    string
	WeatherWarmSchedule string
	HistoryMaxHours     int
}

// Production reports whether the service runs with APP_ENV=production.
func (c *Config) Production() bool {
	return c.Environment == "production"
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sessionMaxAge, err := parsePositiveDuration("SESSION_MAX_AGE", "24h")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parsePositiveDuration("WEATHER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	weatherTTL, err := parsePositiveDuration("WEATHER_CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}

	retryAttempts, err := parseIntInRange("WEATHER_RETRY_ATTEMPTS", 2, 1, 5)
	if err != nil {
		return nil, err
	}
	historyMaxHours, err := parseIntInRange("HISTORY_MAX_HOURS", 720, 1, 24*365)
	if err != nil {
		return nil, err
	}

	environment := sharedcfg.EnvOrDefault("APP_ENV", "development")

	databaseURL := os.Getenv("DATABASE_URL")
	defaultDriver := "sqlite"
	if databaseURL != "" {
		defaultDriver = "postgres"
	}

	cookieSecure := environment == "production"
	if v := os.Getenv("SESSION_COOKIE_SECURE"); v != "" {
		cookieSecure, err = strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("invalid SESSION_COOKIE_SECURE")
		}
	}

	kafkaBrokers := splitList(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(kafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":5000"),
		Environment:     environment,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		LogFile:           os.Getenv("LOG_FILE"),
		LogFileMaxSizeMB:  parsePositiveInt("LOG_FILE_MAX_SIZE_MB", 100),
		LogFileMaxBackups: parsePositiveInt("LOG_FILE_MAX_BACKUPS", 5),
		LogFileMaxAgeDays: parsePositiveInt("LOG_FILE_MAX_AGE_DAYS", 28),

		DatabaseDriver: sharedcfg.EnvOrDefault("DATABASE_DRIVER", defaultDriver),
		DatabaseURL:    databaseURL,
		SQLitePath:     sharedcfg.EnvOrDefault("SQLITE_PATH", "data/floodwatch.db"),

		SessionSecret:         sharedcfg.EnvOrDefault("SESSION_SECRET", DefaultSessionSecret),
		SessionMaxAge:         sessionMaxAge,
		SessionCookieSecure:   cookieSecure,
		SessionCookieSameSite: sharedcfg.EnvOrDefault("SESSION_COOKIE_SAMESITE", "lax"),
		SessionCookieDomain:   os.Getenv("SESSION_COOKIE_DOMAIN"),

		CORSAllowedOrigins: splitList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5000,http://localhost:5173")),

		WeatherBaseURL:       sharedcfg.EnvOrDefault("WEATHER_BASE_URL", "https://api.open-meteo.com/v1/forecast"),
		WeatherTimeout:       weatherTimeout,
		WeatherCacheTTL:      weatherTTL,
		WeatherRetryAttempts: retryAttempts,

		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       kafkaBrokers,
		KafkaReadingsTopic: sharedcfg.EnvOrDefault("KAFKA_READINGS_TOPIC", "water-level-readings"),

		SnapshotEnabled:     sharedcfg.EnvOrDefault("SNAPSHOT_ENABLED", "true") == "true",
		SnapshotSchedule:    sharedcfg.EnvOrDefault("SNAPSHOT_SCHEDULE", "@hourly"),
		WeatherWarmSchedule: envOrDefaultAllowEmpty("WEATHER_WARM_SCHEDULE", "@every 10m"),
		HistoryMaxHours:     historyMaxHours,
	}

	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseDriver == "postgres" && cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_DRIVER is postgres but DATABASE_URL is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaReadingsTopic == "" {
		return nil, errors.New("KAFKA_READINGS_TOPIC is required")
	}
	if cfg.SnapshotEnabled && cfg.SnapshotSchedule == "" {
		return nil, errors.New("SNAPSHOT_SCHEDULE is required when SNAPSHOT_ENABLED is true")
	}
	if cfg.Production() && cfg.SessionSecret == DefaultSessionSecret {
		return nil, errors.New("SESSION_SECRET must be set in production")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseIntInRange(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer between %d and %d", key, lo, hi)
	}
	return n, nil
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// envOrDefaultAllowEmpty distinguishes an explicitly empty variable (disable)
// from an unset one (default).
func envOrDefaultAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
