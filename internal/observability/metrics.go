package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flood_watch"

// Metrics holds the Prometheus counters, histograms, and gauges for the API.
type Metrics struct {
	// HTTP surface.
	HTTPRequests        *prometheus.CounterVec   // labels: method, route, status
	HTTPRequestDuration *prometheus.HistogramVec // labels: method, route, status

	// Weather proxy.
	WeatherCache       *prometheus.CounterVec // labels: result={hit,miss,stale,fallback}
	WeatherAPIDuration prometheus.Histogram
	WeatherAPIErrors   prometheus.Counter

	// Water-level readings.
	ReadingsRecorded     *prometheus.CounterVec // labels: source={api,snapshot}
	ReadingsPublished    prometheus.Counter
	ReadingPublishErrors prometheus.Counter
	SnapshotRuns         *prometheus.CounterVec // labels: outcome={success,error}
	SnapshotDuration     prometheus.Histogram
	KafkaPublishEnabled  prometheus.Gauge

	UsersRegistered prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.WeatherCache,
		m.WeatherAPIDuration,
		m.WeatherAPIErrors,
		m.ReadingsRecorded,
		m.ReadingsPublished,
		m.ReadingPublishErrors,
		m.SnapshotRuns,
		m.SnapshotDuration,
		m.KafkaPublishEnabled,
		m.UsersRegistered,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by method, route template, and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route", "status"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_cache_total",
			Help:      "Weather cache lookups by result.",
		}, []string{"result"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_api_duration_seconds",
			Help:      "Open-Meteo request duration in seconds, retries included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		WeatherAPIErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_api_errors_total",
			Help:      "Open-Meteo refreshes that failed after all retries.",
		}),
		ReadingsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "water_level_readings_recorded_total",
			Help:      "Water-level readings written to history by source.",
		}, []string{"source"}),
		ReadingsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "water_level_readings_published_total",
			Help:      "Water-level readings published to Kafka.",
		}),
		ReadingPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "water_level_publish_errors_total",
			Help:      "Failed Kafka publish attempts.",
		}),
		SnapshotRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_runs_total",
			Help:      "Station snapshot runs by outcome.",
		}, []string{"outcome"}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_duration_seconds",
			Help:      "Duration of a complete station snapshot run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		KafkaPublishEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "kafka_publish_enabled",
			Help:      "1 when readings are published to Kafka, 0 otherwise.",
		}),
		UsersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_registered_total",
			Help:      "Accounts created since start.",
		}),
	}
}
