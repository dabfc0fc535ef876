package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hand_hockey/internal/logger"
	"hand_hockey/internal/ratelimit"
)

// RateLimit ограничивает запросы с одного адреса; l == nil - без ограничений
func RateLimit(l ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		ok, err := l.Allow(c.Request.Context(), "http:"+c.ClientIP())
		if err != nil {
			// лимитер недоступен: запрос пропускаем
			logger.Warn("rate limiter failed", "error", err)
		} else if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
