package http

import (
	"errors"
	"net/http"

	"linkhub/domain/model"
	"linkhub/infrastructure/logger"
	"linkhub/infrastructure/worker"

	"github.com/gin-gonic/gin"
)

const (
	ErrorUnmarshal = "Error while unmarshal"
)

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrContentLocked),
		errors.Is(err, model.ErrInvalidState),
		errors.Is(err, model.ErrUnsupportedPlatform),
		errors.Is(err, model.ErrNoAdapter):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrPostNotFound),
		errors.Is(err, model.ErrAccountNotFound),
		errors.Is(err, worker.ErrUnknownJob):
		return http.StatusNotFound
	case errors.Is(err, model.ErrStaleStatus),
		errors.Is(err, worker.ErrJobBusy):
		return http.StatusConflict
	case errors.Is(err, model.ErrRefreshFailed):
		return http.StatusBadGateway
	case errors.Is(err, worker.ErrStopped):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// abortWithError writes {"error": message}. Unexpected errors are logged and
// reported without detail.
func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error": err,
			"path":  c.FullPath(),
		}).Error("Request failed")
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func platformParam(c *gin.Context) (model.Platform, bool) {
	p, err := model.ParsePlatform(c.Param("provider"))
	if err != nil {
		abortWithError(c, err)
		return "", false
	}
	return p, true
}
