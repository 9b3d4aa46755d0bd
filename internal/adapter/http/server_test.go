package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/flood-watch-api/internal/adapter/persistence"
	"github.com/couchcryptid/flood-watch-api/internal/auth"
	"github.com/couchcryptid/flood-watch-api/internal/catalog"
	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"github.com/couchcryptid/flood-watch-api/internal/observability"
	"github.com/couchcryptid/flood-watch-api/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 5, 20, 6, 0, 0, 0, time.UTC)

// --- mock weather provider ---

type mockWeather struct {
	mock.Mock
}

func (m *mockWeather) Snapshot(ctx context.Context) (domain.WeatherSnapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.WeatherSnapshot), args.Error(1)
}

func sampleSnapshot() domain.WeatherSnapshot {
	s := domain.WeatherSnapshot{
		Current: domain.WeatherData{
			Latitude:    domain.SriLankaCenterLat,
			Longitude:   domain.SriLankaCenterLon,
			Temperature: 29.1,
			Timestamp:   "2025-05-20T06:00",
		},
	}
	for i := 0; i < 121; i++ {
		s.Forecast = append(s.Forecast, domain.WeatherForecast{
			Time:        epoch.Add(time.Duration(i) * time.Hour).Format("2006-01-02T15:04"),
			Temperature: float64(i),
		})
	}
	return s
}

// --- test harness ---

type testAPI struct {
	t       *testing.T
	router  http.Handler
	weather *mockWeather
	metrics *observability.Metrics
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(epoch))
	t.Cleanup(func() { domain.SetClock(nil) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	store, err := persistence.Open(persistence.Settings{Driver: persistence.DriverSQLite, SQLitePath: persistence.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cat, err := catalog.Load()
	require.NoError(t, err)

	sessions, err := auth.NewSessionManager(auth.SessionSettings{Secret: "test-secret", MaxAge: 24 * time.Hour}, logger)
	require.NoError(t, err)

	weather := &mockWeather{}
	deps := Deps{
		Stations:    pipeline.NewMonitor(cat, store, nil, metrics, logger, 720),
		Reference:   cat,
		Weather:     weather,
		Accounts:    auth.NewService(store, metrics, logger),
		Sessions:    sessions,
		UserData:    store,
		Ready:       store,
		Metrics:     metrics,
		CORSOrigins: []string{"http://localhost:5173"},
	}
	return &testAPI{t: t, router: NewServer(":0", deps, logger), weather: weather, metrics: metrics}
}

func (a *testAPI) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// signUp registers a user and returns the session cookie.
func (a *testAPI) signUp(username string) *http.Cookie {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/register", map[string]string{"username": username, "password": "secret1"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	a.t.Fatal("register did not set a session cookie")
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	assert.Equal(t, status, rec.Code)
	assert.JSONEq(t, `{"error":"`+msg+`"}`, rec.Body.String())
}

// --- ops ---

func TestOpsEndpoints(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/readyz", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/metrics", nil).Code)
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t)
	assertError(t, api.do(http.MethodGet, "/api/nope", nil), http.StatusNotFound, "Not found")
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/stations", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

// --- stations ---

func TestListStations(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/stations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.RiverStation](t, rec), 10)

	rec = api.do(http.MethodGet, "/api/stations?district=Colombo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stations := decode[[]domain.RiverStation](t, rec)
	require.Len(t, stations, 2)
	assert.Equal(t, "Colombo", stations[0].District)
}

func TestGetStation(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/stations/kelani-hanwella", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	station := decode[domain.RiverStation](t, rec)
	assert.Equal(t, "Kelani Ganga - Hanwella", station.Name)
	assert.Equal(t, epoch, station.LastUpdated)

	assertError(t, api.do(http.MethodGet, "/api/stations/atlantis", nil), http.StatusNotFound, "Station not found")
}

func TestStationHistory(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/stations/kelani-hanwella/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	assertError(t, api.do(http.MethodGet, "/api/stations/kelani-hanwella/history?hours=abc", nil),
		http.StatusBadRequest, "hours must be an integer")
	assertError(t, api.do(http.MethodGet, "/api/stations/atlantis/history", nil),
		http.StatusNotFound, "Station not found")
}

func TestRecordLevel(t *testing.T) {
	api := newTestAPI(t)
	body := map[string]any{"level": 6.5}

	assertError(t, api.do(http.MethodPost, "/api/stations/kelani-hanwella/record", body),
		http.StatusUnauthorized, "Not authenticated")

	session := api.signUp("nimal")
	rec := api.do(http.MethodPost, "/api/stations/kelani-hanwella/record", body, session)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	record := decode[domain.WaterLevelRecord](t, rec)
	assert.Equal(t, domain.StatusCritical, record.Status)
	assert.Equal(t, domain.TrendRising, record.Trend)

	station := decode[domain.RiverStation](t, api.do(http.MethodGet, "/api/stations/kelani-hanwella", nil))
	assert.InDelta(t, 6.5, station.CurrentLevel, 1e-9)
	assert.Equal(t, domain.StatusCritical, station.Status)

	history := decode[[]domain.WaterLevelRecord](t, api.do(http.MethodGet, "/api/stations/kelani-hanwella/history?hours=1", nil))
	assert.Len(t, history, 1)
}

func TestRecordLevel_Invalid(t *testing.T) {
	api := newTestAPI(t)
	session := api.signUp("nimal")

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		msg    string
	}{
		{"missing level", "/api/stations/kelani-hanwella/record", map[string]any{}, http.StatusBadRequest, "level is required"},
		{"level too high", "/api/stations/kelani-hanwella/record", map[string]any{"level": 150}, http.StatusBadRequest, "level must be between 0 and 100"},
		{"bad trend", "/api/stations/kelani-hanwella/record", map[string]any{"level": 3, "trend": "up"}, http.StatusBadRequest, "trend must be one of rising, falling, stable"},
		{"unknown station", "/api/stations/atlantis/record", map[string]any{"level": 3}, http.StatusNotFound, "Station not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertError(t, api.do(http.MethodPost, tt.path, tt.body, session), tt.status, tt.msg)
		})
	}
}

// --- reference data ---

func TestReferenceEndpoints(t *testing.T) {
	api := newTestAPI(t)

	zones := decode[[]domain.FloodRiskZone](t, api.do(http.MethodGet, "/api/risk-zones", nil))
	assert.Len(t, zones, 6)

	legend := decode[[]domain.RiskLegendEntry](t, api.do(http.MethodGet, "/api/risk-levels", nil))
	assert.Len(t, legend, 4)

	alerts := decode[[]domain.HazardAlert](t, api.do(http.MethodGet, "/api/alerts?active=true", nil))
	assert.Len(t, alerts, 4)

	news := decode[[]domain.NewsItem](t, api.do(http.MethodGet, "/api/news", nil))
	assert.Len(t, news, 5)

	districts := decode[[]string](t, api.do(http.MethodGet, "/api/districts?q=col", nil))
	assert.Equal(t, []string{"Colombo"}, districts)

	none := api.do(http.MethodGet, "/api/districts", nil)
	assert.JSONEq(t, `[]`, none.Body.String())
}

// --- weather ---

func TestWeather(t *testing.T) {
	api := newTestAPI(t)
	api.weather.On("Snapshot", mock.Anything).Return(sampleSnapshot(), nil)

	current := decode[domain.WeatherData](t, api.do(http.MethodGet, "/api/weather", nil))
	assert.InDelta(t, 29.1, current.Temperature, 1e-9)

	day := decode[domain.WeatherData](t, api.do(http.MethodGet, "/api/weather?mode=24h", nil))
	assert.InDelta(t, 24, day.Temperature, 1e-9)

	fiveDays := decode[domain.WeatherData](t, api.do(http.MethodGet, "/api/weather?mode=5days", nil))
	assert.InDelta(t, 120, fiveDays.Temperature, 1e-9)

	forecast := decode[[]domain.WeatherForecast](t, api.do(http.MethodGet, "/api/weather/forecast", nil))
	assert.Len(t, forecast, 121)

	api.weather.AssertNumberOfCalls(t, "Snapshot", 4)
}

func TestWeather_UnknownMode(t *testing.T) {
	api := newTestAPI(t)

	assertError(t, api.do(http.MethodGet, "/api/weather?mode=weekly", nil),
		http.StatusBadRequest, `unknown forecast mode \"weekly\"`)
	api.weather.AssertNotCalled(t, "Snapshot", mock.Anything)
}

func TestWeather_ProviderFailure(t *testing.T) {
	api := newTestAPI(t)
	api.weather.On("Snapshot", mock.Anything).Return(domain.WeatherSnapshot{}, errors.New("boom"))

	assertError(t, api.do(http.MethodGet, "/api/weather", nil), http.StatusInternalServerError, "Failed to fetch weather data")
	assertError(t, api.do(http.MethodGet, "/api/weather/forecast", nil), http.StatusInternalServerError, "Failed to fetch forecast data")
}

// --- auth ---

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	assertError(t, api.do(http.MethodGet, "/api/auth/me", nil), http.StatusUnauthorized, "Not authenticated")

	session := api.signUp("nimal")
	me := decode[map[string]any](t, api.do(http.MethodGet, "/api/auth/me", nil, session))
	assert.Equal(t, "nimal", me["username"])
	assert.NotContains(t, me, "passwordHash")

	rec := api.do(http.MethodPost, "/api/auth/logout", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Logged out"}`, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "nimal", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Result().Cookies())
}

func TestRegister_Errors(t *testing.T) {
	api := newTestAPI(t)
	api.signUp("nimal")

	assertError(t, api.do(http.MethodPost, "/api/auth/register", map[string]string{"username": "nimal", "password": "secret1"}),
		http.StatusConflict, "Username already taken")
	assertError(t, api.do(http.MethodPost, "/api/auth/register", map[string]string{"username": "ab", "password": "secret1"}),
		http.StatusBadRequest, "username must be at least 3")
	assertError(t, api.do(http.MethodPost, "/api/auth/register", map[string]string{"username": "kamal", "password": "123"}),
		http.StatusBadRequest, "password must be at least 6")
	assertError(t, api.do(http.MethodPost, "/api/auth/register", map[string]string{"username": "kamal", "password": "secret1", "email": "not-an-email"}),
		http.StatusBadRequest, "email must be a valid email address")
}

func TestLogin_Errors(t *testing.T) {
	api := newTestAPI(t)
	api.signUp("nimal")

	assertError(t, api.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "nimal", "password": "wrong-pass"}),
		http.StatusUnauthorized, "Invalid username or password")
	assertError(t, api.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "ghost", "password": "secret1"}),
		http.StatusUnauthorized, "Invalid username or password")
	assertError(t, api.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "nimal"}),
		http.StatusBadRequest, "password is required")
}

// --- preferences ---

func TestPreferences(t *testing.T) {
	api := newTestAPI(t)
	session := api.signUp("nimal")

	assertError(t, api.do(http.MethodGet, "/api/preferences", nil), http.StatusUnauthorized, "Not authenticated")

	prefs := decode[domain.UserPreferences](t, api.do(http.MethodGet, "/api/preferences", nil, session))
	assert.True(t, prefs.AlertsEnabled)
	assert.Equal(t, domain.ThemeSystem, prefs.Theme)
	assert.Equal(t, []string{}, prefs.PreferredDistricts)

	rec := api.do(http.MethodPut, "/api/preferences", map[string]any{
		"theme":              "dark",
		"preferredDistricts": []string{"Kandy", "Galle"},
	}, session)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[domain.UserPreferences](t, rec)
	assert.Equal(t, domain.ThemeDark, updated.Theme)
	assert.Equal(t, []string{"Kandy", "Galle"}, updated.PreferredDistricts)
	assert.True(t, updated.AlertsEnabled, "absent fields are unchanged")
}

func TestPreferences_Invalid(t *testing.T) {
	api := newTestAPI(t)
	session := api.signUp("nimal")

	assertError(t, api.do(http.MethodPut, "/api/preferences", map[string]any{"theme": "neon"}, session),
		http.StatusBadRequest, "theme must be one of light, dark, system")
	assertError(t, api.do(http.MethodPut, "/api/preferences", map[string]any{"warningThreshold": "normal"}, session),
		http.StatusBadRequest, "warningThreshold must be one of warning, danger, critical")
	assertError(t, api.do(http.MethodPut, "/api/preferences", map[string]any{"preferredDistricts": []string{"Atlantis"}}, session),
		http.StatusBadRequest, "preferredDistricts contains an unknown district")
}

// --- favorites ---

func TestFavorites(t *testing.T) {
	api := newTestAPI(t)
	session := api.signUp("nimal")

	rec := api.do(http.MethodPost, "/api/favorites", map[string]string{"stationId": "kalu-ratnapura"}, session)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	fav := decode[domain.FavoriteLocation](t, rec)
	assert.Equal(t, "Kalu Ganga - Ratnapura", fav.Name)
	assert.InDelta(t, 6.6804, fav.Latitude, 1e-9)

	assertError(t, api.do(http.MethodPost, "/api/favorites", map[string]string{"stationId": "kalu-ratnapura"}, session),
		http.StatusConflict, "Station is already a favorite")
	assertError(t, api.do(http.MethodPost, "/api/favorites", map[string]string{"stationId": "atlantis"}, session),
		http.StatusNotFound, "Station not found")
	assertError(t, api.do(http.MethodPost, "/api/favorites", map[string]string{}, session),
		http.StatusBadRequest, "stationId is required")

	favs := decode[[]domain.FavoriteLocation](t, api.do(http.MethodGet, "/api/favorites", nil, session))
	require.Len(t, favs, 1)

	path := "/api/favorites/" + jsonNumber(fav.ID)
	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, nil, session).Code)
	assertError(t, api.do(http.MethodDelete, path, nil, session), http.StatusNotFound, "Favorite not found")
	assertError(t, api.do(http.MethodDelete, "/api/favorites/abc", nil, session), http.StatusBadRequest, "id must be an integer")
}

func TestFavorites_IsolatedPerUser(t *testing.T) {
	api := newTestAPI(t)
	owner := api.signUp("owner")
	other := api.signUp("other")

	fav := decode[domain.FavoriteLocation](t,
		api.do(http.MethodPost, "/api/favorites", map[string]string{"stationId": "kalu-ratnapura", "name": "Home"}, owner))
	assert.Equal(t, "Home", fav.Name)

	assert.JSONEq(t, `[]`, api.do(http.MethodGet, "/api/favorites", nil, other).Body.String())
	assertError(t, api.do(http.MethodDelete, "/api/favorites/"+jsonNumber(fav.ID), nil, other),
		http.StatusNotFound, "Favorite not found")
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestPanickingHandlerIsLoggedAndCounted(t *testing.T) {
	api := newTestAPI(t)
	api.weather.On("Snapshot", mock.Anything).Run(func(mock.Arguments) {
		panic("decoder bug")
	})

	rec := api.do(http.MethodGet, "/api/weather", nil)
	assertError(t, rec, http.StatusInternalServerError, "Internal server error")

	assert.InDelta(t, 1, testutil.ToFloat64(api.metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/api/weather", "500")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(api.metrics.HTTPRequestDuration))
}
