package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/flood-watch-api/internal/auth"
	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64,nowhitespace"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Email    string `json:"email" binding:"omitempty,email"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(bindingMessage(err)))
		return
	}

	user, err := h.deps.Accounts.Register(c.Request.Context(), auth.Registration{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		h.writeError(c, err, "Failed to register", messages{domain.ErrConflict: "Username already taken"})
		return
	}

	if err := h.deps.Sessions.Login(c.Writer, c.Request, user.ID); err != nil {
		h.writeError(c, err, "Failed to start session", nil)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(bindingMessage(err)))
		return
	}

	user, err := h.deps.Accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err, "Failed to log in", messages{domain.ErrUnauthorized: "Invalid username or password"})
		return
	}

	if err := h.deps.Sessions.Login(c.Writer, c.Request, user.ID); err != nil {
		h.writeError(c, err, "Failed to start session", nil)
		return
	}
	h.logger.Info("user logged in", "user_id", user.ID)
	c.JSON(http.StatusOK, user)
}

func (h *handler) logout(c *gin.Context) {
	if err := h.deps.Sessions.Logout(c.Writer, c.Request); err != nil {
		h.writeError(c, err, "Failed to log out", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// preferencesRequest mirrors domain.PreferencesPatch; absent fields stay unchanged.
type preferencesRequest struct {
	AlertsEnabled      *bool     `json:"alertsEnabled"`
	EmailAlerts        *bool     `json:"emailAlerts"`
	WarningThreshold   *string   `json:"warningThreshold" binding:"omitempty,threshold"`
	PreferredDistricts *[]string `json:"preferredDistricts" binding:"omitempty,dive,district"`
	Theme              *string   `json:"theme" binding:"omitempty,theme"`
}

func (r preferencesRequest) patch() domain.PreferencesPatch {
	p := domain.PreferencesPatch{
		AlertsEnabled:      r.AlertsEnabled,
		EmailAlerts:        r.EmailAlerts,
		PreferredDistricts: r.PreferredDistricts,
	}
	if r.WarningThreshold != nil {
		s := domain.StationStatus(*r.WarningThreshold)
		p.WarningThreshold = &s
	}
	if r.Theme != nil {
		t := domain.Theme(*r.Theme)
		p.Theme = &t
	}
	return p
}

func (h *handler) getPreferences(c *gin.Context) {
	prefs, err := h.deps.UserData.Preferences(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.writeError(c, err, "Failed to fetch preferences", nil)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *handler) updatePreferences(c *gin.Context) {
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(bindingMessage(err)))
		return
	}
	patch := req.patch()
	if err := patch.Validate(); err != nil {
		h.writeError(c, err, "Failed to update preferences", nil)
		return
	}

	prefs, err := h.deps.UserData.UpdatePreferences(c.Request.Context(), currentUser(c).ID, patch)
	if err != nil {
		h.writeError(c, err, "Failed to update preferences", nil)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

type favoriteRequest struct {
	StationID string `json:"stationId" binding:"required"`
	Name      string `json:"name" binding:"max=128"`
}

func (h *handler) listFavorites(c *gin.Context) {
	favs, err := h.deps.UserData.Favorites(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.writeError(c, err, "Failed to fetch favorites", nil)
		return
	}
	c.JSON(http.StatusOK, favs)
}

func (h *handler) addFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(bindingMessage(err)))
		return
	}

	station, err := h.deps.Stations.Station(c.Request.Context(), req.StationID)
	if err != nil {
		h.writeError(c, err, "Failed to add favorite", stationNotFound)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = station.Name
	}
	fav, err := h.deps.UserData.AddFavorite(c.Request.Context(), domain.FavoriteLocation{
		UserID:    currentUser(c).ID,
		StationID: station.ID,
		Name:      name,
		Latitude:  station.Latitude,
		Longitude: station.Longitude,
	})
	if err != nil {
		h.writeError(c, err, "Failed to add favorite", messages{domain.ErrConflict: "Station is already a favorite"})
		return
	}
	c.JSON(http.StatusCreated, fav)
}

func (h *handler) removeFavorite(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("id must be an integer"))
		return
	}

	if err := h.deps.UserData.RemoveFavorite(c.Request.Context(), id, currentUser(c).ID); err != nil {
		h.writeError(c, err, "Failed to remove favorite", messages{domain.ErrNotFound: "Favorite not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
