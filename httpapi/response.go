package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campusswap/apperr"
	"campusswap/logger"
)

// retryAfterSeconds is advertised on 503 responses.
const retryAfterSeconds = 1

// statusFor maps an error kind to its HTTP status. Unknown kinds are 500.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidArgument, apperr.InvalidState:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, log *logger.Logger, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)

	body := errorResponse{
		Error:     apperr.Message(err),
		Code:      string(kind),
		Retryable: kind.Retryable(),
	}
	switch {
	case status == http.StatusInternalServerError:
		log.Error("http: unhandled error", "path", c.FullPath(), "error", err)
		body.Error = "Internal server error"
		body.Code = "internal"
	case status == http.StatusServiceUnavailable:
		log.Warn("http: store unavailable", "path", c.FullPath(), "error", err)
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	c.AbortWithStatusJSON(status, body)
}

func respondUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "Unauthorized", Code: "unauthenticated"})
}

func respondBadJSON(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: string(apperr.InvalidArgument)})
}
