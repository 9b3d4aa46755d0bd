package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"github.com/couchcryptid/flood-watch-api/internal/observability"
	"github.com/gin-gonic/gin"
)

const userKey = "user"

// requestLogger logs one line per API call and records request metrics. It
// must run outside recoverer so panicking requests are still counted.
func requestLogger(metrics *observability.Metrics, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		code := strconv.Itoa(status)
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, code).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route, code).Observe(elapsed.Seconds())

		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", route,
			"status", status,
			"duration", elapsed,
		)
	}
}

// recoverer turns handler panics into a 500 JSON response.
func recoverer(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Error("panic serving request", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody("Internal server error"))
	})
}

// requireAuth loads the session user or aborts with 401.
func requireAuth(accounts AccountService, sessions SessionStore, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sessions.UserID(c.Request)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("Not authenticated"))
			return
		}
		user, err := accounts.User(c.Request.Context(), id)
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthorized) {
				logger.Error("load session user failed", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody("Internal server error"))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("Not authenticated"))
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) domain.User {
	return c.MustGet(userKey).(domain.User)
}
