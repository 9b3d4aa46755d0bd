package http

import (
	"net/http"

	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"github.com/gin-gonic/gin"
)

func (h *handler) listRiskZones(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Reference.RiskZones(c.Query("district")))
}

func (h *handler) riskLevels(c *gin.Context) {
	c.JSON(http.StatusOK, domain.RiskLegend)
}

func (h *handler) listAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Reference.Alerts(c.Query("active") == "true"))
}

func (h *handler) listNews(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Reference.News(domain.NewsCategory(c.Query("category"))))
}

func (h *handler) searchDistricts(c *gin.Context) {
	c.JSON(http.StatusOK, domain.SearchDistricts(c.Query("q")))
}

func (h *handler) currentWeather(c *gin.Context) {
	mode, err := domain.ParseForecastMode(c.Query("mode"))
	if err != nil {
		h.writeError(c, err, "Failed to fetch weather data", nil)
		return
	}
	snapshot, err := h.deps.Weather.Snapshot(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "Failed to fetch weather data", nil)
		return
	}
	c.JSON(http.StatusOK, domain.ForecastAt(snapshot, mode))
}

func (h *handler) weatherForecast(c *gin.Context) {
	snapshot, err := h.deps.Weather.Snapshot(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "Failed to fetch forecast data", nil)
		return
	}
	forecast := snapshot.Forecast
	if forecast == nil {
		forecast = []domain.WeatherForecast{}
	}
	c.JSON(http.StatusOK, forecast)
}
