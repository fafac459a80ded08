package auth

import (
	"context"
	"errors"
	"fmt"

	jwt "github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/implementation/jwt"
	api_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/api"
	auth_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/auth"
	interfaces "github.com/haxx668/backendmonitoring/src/production/MQT.Repository/Interfaces"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrUserExists         = errors.New("username or email already registered")
)

// AuthService aggregates auth operations
type AuthService struct {
	userRepo   interfaces.UserRepository
	jwtService *jwt.Service
	bcryptCost int
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo interfaces.UserRepository, jwtService *jwt.Service, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		bcryptCost: bcryptCost,
	}
}

// Register stores a new user with a bcrypt hash of the password. No token is issued.
func (s *AuthService) Register(ctx context.Context, req api_models.RegisterRequest) error {
	if req.Username == "" || req.Email == "" || req.NoTelp == "" || req.Password == "" {
		return fmt.Errorf("%w: username, email, no_telp and password are required", ErrValidation)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := auth_models.NewUser(req.Username, req.Email, req.NoTelp, string(hashedPassword))
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Login verifies the credentials and returns a signed token
func (s *AuthService) Login(ctx context.Context, req api_models.LoginRequest) (*api_models.LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &api_models.LoginResponse{
		Message:  "Login successful",
		Token:    token.AccessToken,
		Username: user.Username,
	}, nil
}
