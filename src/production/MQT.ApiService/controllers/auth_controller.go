package controllers

import (
	"errors"
	"net/http"

	service "github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/implementation/auth"
	logger "github.com/haxx668/backendmonitoring/src/production/MQT.Logger"
	api_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/api"

	"github.com/gin-gonic/gin"
)

// AuthController handles authentication requests
type AuthController struct {
	authService *service.AuthService
	logger      *logger.Logger
}

// NewAuthController creates a new auth controller
func NewAuthController(authService *service.AuthService, log *logger.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      log.WithComponent("auth"),
	}
}

// Register handles user registration
func (h *AuthController) Register(c *gin.Context) {
	var req api_models.RegisterRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	err := h.authService.Register(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, api_models.MessageResponse{Message: "User registered successfully"})
	case errors.Is(err, service.ErrValidation):
		respondError(c, h.logger, http.StatusBadRequest, "All fields are required", err)
	case errors.Is(err, service.ErrUserExists):
		respondError(c, h.logger, http.StatusConflict, "Username or email already registered", err)
	default:
		respondError(c, h.logger, http.StatusInternalServerError, "Error registering user", err)
	}
}

// Login handles user login
func (h *AuthController) Login(c *gin.Context) {
	var req api_models.LoginRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, service.ErrValidation):
		respondError(c, h.logger, http.StatusBadRequest, "Email and password are required", err)
	case errors.Is(err, service.ErrUserNotFound):
		respondError(c, h.logger, http.StatusNotFound, "User not found", err)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, h.logger, http.StatusUnauthorized, "Invalid password", err)
	default:
		respondError(c, h.logger, http.StatusInternalServerError, "Internal server error", err)
	}
}

// RegisterRoutes registers the auth routes with Gin
func (h *AuthController) RegisterRoutes(router *gin.Engine) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}
