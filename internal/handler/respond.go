package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clubgreens/live-scoring-service/internal/errs"
)

// writeError maps domain sentinel errors to HTTP status codes. Everything
// unrecognized (including persistence failures) is a 500 with a generic body.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
	case errors.Is(err, errs.ErrNotFound), errors.Is(err, errs.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrAlreadyActive):
		c.JSON(http.StatusConflict, gin.H{"error": "a live session is already active"})
	case errors.Is(err, errs.ErrNoActiveSession), errors.Is(err, errs.ErrSessionNotPaused):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrTicketInvalid):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid ticket"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
