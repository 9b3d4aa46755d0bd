package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// messages overrides the client message per domain sentinel.
type messages map[error]string

var sentinelStatus = []struct {
	err     error
	status  int
	message string
}{
	{domain.ErrNotFound, http.StatusNotFound, "Not found"},
	{domain.ErrConflict, http.StatusConflict, "Conflict"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "Not authenticated"},
}

// writeError maps domain errors onto status codes. Validation errors carry
// their own message; unexpected errors are logged and answered with
// fallback.
func (h *handler) writeError(c *gin.Context, err error, fallback string, msgs messages) {
	if errors.Is(err, domain.ErrValidation) {
		c.JSON(http.StatusBadRequest, errorBody(validationMessage(err)))
		return
	}
	for _, s := range sentinelStatus {
		if !errors.Is(err, s.err) {
			continue
		}
		msg, ok := msgs[s.err]
		if !ok {
			msg = s.message
		}
		c.JSON(s.status, errorBody(msg))
		return
	}
	h.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, errorBody(fallback))
}

// validationMessage strips the sentinel prefix so the client sees only the
// field problem.
func validationMessage(err error) string {
	msg := err.Error()
	prefix := domain.ErrValidation.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}
