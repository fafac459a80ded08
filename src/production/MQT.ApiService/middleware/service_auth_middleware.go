package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	api_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/api"

	"github.com/gin-gonic/gin"
)

// ServiceAuthMiddleware validates service-to-service authentication against
// the shared internal secret
func ServiceAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, api_models.ErrorResponse{
				Error: "Internal API secret not configured",
			})
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api_models.ErrorResponse{
				Error: "Invalid authorization format. Expected 'Bearer <token>'",
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api_models.ErrorResponse{
				Error: "Invalid service token",
			})
			return
		}

		c.Set("service_auth", true)
		c.Next()
	}
}
