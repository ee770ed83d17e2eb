// internal/api/middleware.go
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Tanxunze/7inet-bot/internal/config"
	"github.com/Tanxunze/7inet-bot/internal/models"
)

// KeyAuthMiddleware validates the static admin key from the
// Authorization header. An empty configured key disables the admin
// endpoints entirely rather than leaving them open.
func KeyAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := config.AppConfig.APIKey
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{Error: "Admin API disabled (no API_KEY configured)"})
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Authorization header format must be Bearer {key}"})
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid API key"})
			return
		}

		c.Next()
	}
}
