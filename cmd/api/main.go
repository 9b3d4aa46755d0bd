package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/flood-watch-api/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/flood-watch-api/internal/adapter/kafka"
	"github.com/couchcryptid/flood-watch-api/internal/adapter/openmeteo"
	"github.com/couchcryptid/flood-watch-api/internal/adapter/persistence"
	"github.com/couchcryptid/flood-watch-api/internal/auth"
	"github.com/couchcryptid/flood-watch-api/internal/catalog"
	"github.com/couchcryptid/flood-watch-api/internal/config"
	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"github.com/couchcryptid/flood-watch-api/internal/observability"
	"github.com/couchcryptid/flood-watch-api/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	if cfg.SessionSecret == config.DefaultSessionSecret {
		logger.Warn("SESSION_SECRET not set; using the development default")
	}

	cat, err := catalog.Load()
	if err != nil {
		logger.Error("failed to load station catalog", "error", err)
		os.Exit(1)
	}

	store, err := persistence.Open(persistence.Settings{
		Driver:     cfg.DatabaseDriver,
		DSN:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	logger.Info("database ready", "driver", cfg.DatabaseDriver)

	sessions, err := auth.NewSessionManager(auth.SessionSettings{
		Secret:   cfg.SessionSecret,
		MaxAge:   cfg.SessionMaxAge,
		Secure:   cfg.SessionCookieSecure,
		SameSite: cfg.SessionCookieSameSite,
		Domain:   cfg.SessionCookieDomain,
	}, logger)
	if err != nil {
		logger.Error("failed to configure sessions", "error", err)
		os.Exit(1)
	}

	weatherClient := openmeteo.NewClient(cfg.WeatherBaseURL, cfg.WeatherTimeout, cfg.WeatherRetryAttempts, metrics, logger)
	weather := openmeteo.NewCachedProvider(weatherClient, cfg.WeatherCacheTTL, clockwork.NewRealClock(), metrics, logger)

	// Reading publication is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var (
		publisher domain.ReadingPublisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaReadingsTopic, logger)
		publisher = writer
		metrics.KafkaPublishEnabled.Set(1)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReadingsTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	monitor := pipeline.NewMonitor(cat, store, publisher, metrics, logger, cfg.HistoryMaxHours)
	p := pipeline.New(monitor, logger, metrics)

	ready := readiness{store}
	scheduler := pipeline.NewScheduler(logger)
	if cfg.SnapshotEnabled {
		ready = append(ready, p)
		if err := scheduler.ScheduleSnapshots(cfg.SnapshotSchedule, p); err != nil {
			logger.Error("invalid snapshot schedule", "error", err)
			os.Exit(1)
		}
	}
	if cfg.WeatherWarmSchedule != "" {
		if err := scheduler.ScheduleWarm(cfg.WeatherWarmSchedule, weather); err != nil {
			logger.Error("invalid weather warm schedule", "error", err)
			os.Exit(1)
		}
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Stations:    monitor,
		Reference:   cat,
		Weather:     weather,
		Accounts:    auth.NewService(store, metrics, logger),
		Sessions:    sessions,
		UserData:    store,
		Ready:       ready,
		Metrics:     metrics,
		CORSOrigins: cfg.CORSAllowedOrigins,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Initial snapshot so readiness does not wait for the first tick.
	if cfg.SnapshotEnabled {
		go func() {
			_ = p.RunOnce(ctx)
		}()
	}
	scheduler.Start()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	scheduler.Stop(shutdownCtx)
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// readiness passes only when every check passes.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
