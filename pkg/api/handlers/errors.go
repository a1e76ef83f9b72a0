package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"profile-extract-go/pkg/batch"
	"profile-extract-go/pkg/ingest"
	"profile-extract-go/pkg/services"
)

// statusFor maps service and coordinator errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, batch.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, batch.ErrAlreadyRunning),
		errors.Is(err, batch.ErrFinished),
		errors.Is(err, batch.ErrFrozen),
		errors.Is(err, batch.ErrNotFinished),
		errors.Is(err, services.ErrBatchRunning):
		return http.StatusConflict
	case errors.Is(err, batch.ErrCapacityExceeded), errors.Is(err, ingest.ErrTooManyURLs):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ingest.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ingest.ErrNotText):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, services.ErrInvalidMode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
