package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	api_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/api"
)

// ErrInvalidToken is returned for any token that fails parsing or verification
var ErrInvalidToken = errors.New("invalid token")

// Service provides JWT operations
type Service struct {
	config api_models.Config
	now    func() time.Time
}

// NewService creates a new JWT service
func NewService(config api_models.Config) *Service {
	return &Service{
		config: config,
		now:    time.Now,
	}
}

// GenerateToken signs an HS256 access token carrying the username
func (s *Service) GenerateToken(username string) (*api_models.Token, error) {
	now := s.now()
	expiresAt := now.Add(s.config.TokenDuration)

	claims := api_models.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.config.Issuer,
		},
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.SecretKey))
	if err != nil {
		return nil, err
	}

	return &api_models.Token{
		AccessToken: signed,
		ExpiresAt:   expiresAt.Unix(),
	}, nil
}

// ValidateToken validates an access token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*api_models.AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &api_models.AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.SecretKey), nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*api_models.AccessClaims); ok && token.Valid && claims.Username != "" {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
