package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"hand_hockey/internal/logger"
)

// RequestLogger пишет каждый запрос в slog
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
		}
		switch {
		case status >= 500:
			logger.Error("http request", args...)
		case status >= 400:
			logger.Warn("http request", args...)
		default:
			logger.Debug("http request", args...)
		}
	}
}
