package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/jobyard/internal/jobboard"
	"github.com/zulandar/jobyard/internal/pipeline"
	"github.com/zulandar/jobyard/internal/profile"
	"github.com/zulandar/jobyard/internal/search"
	"github.com/zulandar/jobyard/internal/stage"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, stage.ErrNotFound),
		errors.Is(err, pipeline.ErrNotFound),
		errors.Is(err, pipeline.ErrApplicationNotFound),
		errors.Is(err, profile.ErrNotFound),
		errors.Is(err, search.ErrNotFound),
		errors.Is(err, jobboard.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, stage.ErrDuplicateOrder),
		errors.Is(err, jobboard.ErrAlreadyApplied):
		return http.StatusConflict
	case errors.Is(err, stage.ErrNotConfigured),
		errors.Is(err, pipeline.ErrCrossJobStage),
		errors.Is(err, jobboard.ErrJobClosed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, search.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, stage.ErrInvalid),
		errors.Is(err, pipeline.ErrInvalid),
		errors.Is(err, profile.ErrInvalid),
		errors.Is(err, search.ErrInvalid),
		errors.Is(err, jobboard.ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes a JSON error body. Internal errors are not echoed
// to the client.
func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	c.Error(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
