// Package persistence stores accounts, preferences, favourites and
// water-level history with gorm on Postgres or SQLite.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

// Settings selects and locates the database.
type Settings struct {
	Driver     string
	DSN        string // postgres
	SQLitePath string // sqlite file or MemoryPath
}

// Store is the gorm-backed repository for every persisted aggregate.
type Store struct {
	db *gorm.DB
}

// Open connects with the configured driver and migrates the schema.
func Open(settings Settings) (*Store, error) {
	cfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        domain.Now,
		TranslateError: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch settings.Driver {
	case DriverPostgres:
		db, err = gorm.Open(postgres.Open(settings.DSN), cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
		}
	case DriverSQLite:
		db, err = connectSQLite(settings.SQLitePath, cfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", settings.Driver)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func connectSQLite(path string, cfg *gorm.Config) (*gorm.DB, error) {
	if path == "" {
		path = MemoryPath
	}

	dsn := "file::memory:?_foreign_keys=on"
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		dsn = "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to SQLite: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps an in-memory
	// database alive and shared.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sqlite connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(
		&userModel{},
		&preferencesModel{},
		&favoriteModel{},
		&waterLevelModel{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get database instance: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database connection: %w", err)
	}
	return nil
}

// translate maps gorm errors onto domain sentinels.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, domain.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
