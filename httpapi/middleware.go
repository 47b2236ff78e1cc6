package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"campusswap/identity"
	"campusswap/logger"
)

const identityKey = "campusswap.identity"

// TokenVerifier resolves a bearer token to the calling student.
type TokenVerifier interface {
	Verify(token string) (identity.Identity, error)
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if id, ok := actor(c); ok {
			fields = append(fields, "student_id", id.StudentID)
		}
		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// requestTimeout bounds every downstream store call of a request.
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requireAuth(verifier TokenVerifier, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			respondUnauthorized(c)
			return
		}
		id, err := verifier.Verify(token)
		if err != nil {
			log.Debug("http: rejected token", "error", err)
			respondUnauthorized(c)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := actor(c)
		if !ok || !id.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: "Admin access required", Code: "forbidden"})
			return
		}
		c.Next()
	}
}

func actor(c *gin.Context) (identity.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return identity.Identity{}, false
	}
	id, ok := v.(identity.Identity)
	return id, ok
}

func bearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
