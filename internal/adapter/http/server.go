// Package http serves the dashboard REST API, health probes and metrics.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/flood-watch-api/internal/auth"
	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"github.com/couchcryptid/flood-watch-api/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StationService serves live station state and history.
type StationService interface {
	Stations(ctx context.Context, district string) ([]domain.RiverStation, error)
	Station(ctx context.Context, id string) (domain.RiverStation, error)
	Record(ctx context.Context, stationID string, level float64, trend domain.Trend) (domain.WaterLevelRecord, error)
	History(ctx context.Context, stationID string, hours int) ([]domain.WaterLevelRecord, error)
}

// ReferenceData is the static risk, alert and news content.
type ReferenceData interface {
	RiskZones(district string) []domain.FloodRiskZone
	Alerts(activeOnly bool) []domain.HazardAlert
	News(category domain.NewsCategory) []domain.NewsItem
}

// AccountService registers and authenticates users.
type AccountService interface {
	Register(ctx context.Context, reg auth.Registration) (domain.User, error)
	Authenticate(ctx context.Context, username, password string) (domain.User, error)
	User(ctx context.Context, id string) (domain.User, error)
}

// SessionStore binds users to cookie sessions.
type SessionStore interface {
	Login(w http.ResponseWriter, r *http.Request, userID string) error
	Logout(w http.ResponseWriter, r *http.Request) error
	UserID(r *http.Request) (string, bool)
}

// UserDataStore holds per-user preferences and favourites.
type UserDataStore interface {
	Preferences(ctx context.Context, userID string) (domain.UserPreferences, error)
	UpdatePreferences(ctx context.Context, userID string, patch domain.PreferencesPatch) (domain.UserPreferences, error)
	Favorites(ctx context.Context, userID string) ([]domain.FavoriteLocation, error)
	AddFavorite(ctx context.Context, fav domain.FavoriteLocation) (domain.FavoriteLocation, error)
	RemoveFavorite(ctx context.Context, id int64, userID string) error
}

// Deps are the services behind the API routes.
type Deps struct {
	Stations    StationService
	Reference   ReferenceData
	Weather     domain.WeatherProvider
	Accounts    AccountService
	Sessions    SessionStore
	UserData    UserDataStore
	Ready       sharedobs.ReadinessChecker
	Metrics     *observability.Metrics
	CORSOrigins []string
}

// Server exposes the API plus /healthz, /readyz, and /metrics.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server backed by the gin router.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      NewRouter(deps, logger),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Deps, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	registerValidators(logger)

	r := gin.New()
	r.Use(recoverer(logger))
	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	r.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(deps.Ready)))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &handler{deps: deps, logger: logger}
	api := r.Group("/api", requestLogger(deps.Metrics, logger), recoverer(logger))

	api.GET("/stations", h.listStations)
	api.GET("/stations/:id", h.getStation)
	api.GET("/stations/:id/history", h.stationHistory)
	api.GET("/risk-zones", h.listRiskZones)
	api.GET("/risk-levels", h.riskLevels)
	api.GET("/alerts", h.listAlerts)
	api.GET("/news", h.listNews)
	api.GET("/districts", h.searchDistricts)
	api.GET("/weather", h.currentWeather)
	api.GET("/weather/forecast", h.weatherForecast)

	api.POST("/auth/register", h.register)
	api.POST("/auth/login", h.login)
	api.POST("/auth/logout", h.logout)

	authed := api.Group("", requireAuth(deps.Accounts, deps.Sessions, logger))
	authed.GET("/auth/me", h.me)
	authed.POST("/stations/:id/record", h.recordLevel)
	authed.GET("/preferences", h.getPreferences)
	authed.PUT("/preferences", h.updatePreferences)
	authed.GET("/favorites", h.listFavorites)
	authed.POST("/favorites", h.addFavorite)
	authed.DELETE("/favorites/:id", h.removeFavorite)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody("Not found"))
	})

	return r
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type handler struct {
	deps   Deps
	logger *slog.Logger
}
