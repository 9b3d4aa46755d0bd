package http

import (
	"net/http"
	"strconv"

	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"github.com/gin-gonic/gin"
)

var stationNotFound = messages{domain.ErrNotFound: "Station not found"}

func (h *handler) listStations(c *gin.Context) {
	stations, err := h.deps.Stations.Stations(c.Request.Context(), c.Query("district"))
	if err != nil {
		h.writeError(c, err, "Failed to fetch river stations", nil)
		return
	}
	c.JSON(http.StatusOK, stations)
}

func (h *handler) getStation(c *gin.Context) {
	station, err := h.deps.Stations.Station(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "Failed to fetch station", stationNotFound)
		return
	}
	c.JSON(http.StatusOK, station)
}

func (h *handler) stationHistory(c *gin.Context) {
	hours := 0
	if raw := c.Query("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody("hours must be an integer"))
			return
		}
		hours = n
	}

	history, err := h.deps.Stations.History(c.Request.Context(), c.Param("id"), hours)
	if err != nil {
		h.writeError(c, err, "Failed to fetch water level history", stationNotFound)
		return
	}
	if history == nil {
		history = []domain.WaterLevelRecord{}
	}
	c.JSON(http.StatusOK, history)
}

type recordRequest struct {
	Level *float64 `json:"level" binding:"required,gte=0,lte=100"`
	Trend string   `json:"trend" binding:"omitempty,trend"`
}

func (h *handler) recordLevel(c *gin.Context) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(bindingMessage(err)))
		return
	}

	record, err := h.deps.Stations.Record(c.Request.Context(), c.Param("id"), *req.Level, domain.Trend(req.Trend))
	if err != nil {
		h.writeError(c, err, "Failed to record water level", stationNotFound)
		return
	}
	c.JSON(http.StatusCreated, record)
}
