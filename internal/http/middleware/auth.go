package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hand_hockey/internal/service"
)

// TokenParser проверяет bearer токен
type TokenParser interface {
	Parse(token string) (*service.Claims, error)
}

// RequireAuth кладет user_id и is_admin из токена в контекст запроса
func RequireAuth(auth TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "auth is disabled"})
			return
		}
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			return
		}
		claims, err := auth.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("is_admin", claims.Admin)
		c.Next()
	}
}

// RequireAdmin пропускает только токены администратора; ставится после RequireAuth
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("is_admin") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}
