package api_models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds JWT configuration
type Config struct {
	SecretKey     string
	TokenDuration time.Duration
	Issuer        string
}

// AccessClaims represents the JWT claims issued at login
type AccessClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Token is a signed access token and its expiry
type Token struct {
	AccessToken string `json:"token"`
	ExpiresAt   int64  `json:"expires_at"`
}
