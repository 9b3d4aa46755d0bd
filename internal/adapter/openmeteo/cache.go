package openmeteo

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"github.com/couchcryptid/flood-watch-api/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedProvider wraps a WeatherProvider with a single-entry TTL cache.
//
// Within the TTL the cached snapshot is served without an upstream call. After
// it, the next caller refreshes; concurrent callers wait on the same lock
// rather than issuing their own requests. When a refresh fails the last good
// snapshot is served marked stale, or the fallback reading if there is none.
// Failures are never cached.
type CachedProvider struct {
	inner   domain.WeatherProvider
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger

	mu        sync.Mutex
	snapshot  domain.WeatherSnapshot
	fetchedAt time.Time
	hasData   bool
}

// NewCachedProvider creates a cache decorator around a weather provider.
func NewCachedProvider(inner domain.WeatherProvider, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *CachedProvider {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedProvider{
		inner:   inner,
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// Snapshot implements domain.WeatherProvider. It never returns an error.
func (c *CachedProvider) Snapshot(ctx context.Context) (domain.WeatherSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.hasData && now.Sub(c.fetchedAt) < c.ttl {
		c.metrics.WeatherCache.WithLabelValues("hit").Inc()
		return c.snapshot, nil
	}
	c.metrics.WeatherCache.WithLabelValues("miss").Inc()

	fresh, err := c.inner.Snapshot(ctx)
	if err == nil {
		c.store(fresh, now)
		return fresh, nil
	}

	if c.hasData {
		c.logger.Warn("weather refresh failed, serving stale data",
			"error", err, "age", now.Sub(c.fetchedAt).String())
		c.metrics.WeatherCache.WithLabelValues("stale").Inc()
		stale := c.snapshot
		stale.Current.Stale = true
		return stale, nil
	}

	c.logger.Error("weather refresh failed, serving fallback data", "error", err)
	c.metrics.WeatherCache.WithLabelValues("fallback").Inc()
	return domain.FallbackWeather(now), nil
}

// Warm refreshes the cache regardless of age. The cached snapshot is kept
// when the refresh fails.
func (c *CachedProvider) Warm(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	fresh, err := c.inner.Snapshot(ctx)
	if err != nil {
		return err
	}
	c.store(fresh, now)
	return nil
}

func (c *CachedProvider) store(s domain.WeatherSnapshot, at time.Time) {
	c.snapshot = s
	c.fetchedAt = at
	c.hasData = true
}
