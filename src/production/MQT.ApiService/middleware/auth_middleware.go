package middleware

import (
	"errors"
	"net/http"
	"strings"

	jwt "github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/implementation/jwt"
	api_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/api"

	"github.com/gin-gonic/gin"
)

// Key types for request context
type contextKey string

const (
	UsernameContextKey contextKey = "username"
)

// AuthMiddleware verifies bearer tokens issued at login
type AuthMiddleware struct {
	jwtService *jwt.Service
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtService *jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// extractToken returns the credential part of "Authorization: <scheme> <token>"
func extractToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// Authenticate rejects requests without a valid access token. A missing
// token is 401, a token that fails verification is 400.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := extractToken(c.Request)
		if accessToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api_models.ErrorResponse{Error: "Access denied, no token provided"})
			return
		}

		claims, err := m.jwtService.ValidateToken(accessToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, api_models.ErrorResponse{Error: "Invalid token"})
			return
		}

		c.Set(string(UsernameContextKey), claims.Username)
		c.Next()
	}
}

// GetUsernameFromGinContext retrieves the authenticated username
func GetUsernameFromGinContext(c *gin.Context) (string, error) {
	val, exists := c.Get(string(UsernameContextKey))
	if !exists {
		return "", errors.New("user not found in context")
	}

	username, ok := val.(string)
	if !ok || username == "" {
		return "", errors.New("invalid username format in context")
	}

	return username, nil
}
