package controllers

import (
	"errors"
	"net/http"

	service "github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/implementation/alat"
	"github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/middleware"
	logger "github.com/haxx668/backendmonitoring/src/production/MQT.Logger"
	api_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/api"

	"github.com/gin-gonic/gin"
)

// AlatController handles the device registry of the logged-in user
type AlatController struct {
	alatService    *service.AlatService
	logger         *logger.Logger
	authMiddleware *middleware.AuthMiddleware
}

func NewAlatController(alatService *service.AlatService, log *logger.Logger, authMiddleware *middleware.AuthMiddleware) *AlatController {
	return &AlatController{
		alatService:    alatService,
		logger:         log.WithComponent("alat"),
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the alat routes with Gin
func (c *AlatController) RegisterRoutes(router *gin.Engine) {
	alat := router.Group("/alat", c.authMiddleware.Authenticate())
	{
		alat.POST("/add-alat", c.AddAlat)
		alat.GET("/list-alat", c.ListAlat)
	}
}

func (c *AlatController) AddAlat(ctx *gin.Context) {
	username, err := middleware.GetUsernameFromGinContext(ctx)
	if err != nil {
		respondError(ctx, c.logger, http.StatusUnauthorized, "Access denied, no token provided", err)
		return
	}

	var req api_models.AddAlatRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	err = c.alatService.AddAlat(ctx.Request.Context(), username, req)
	switch {
	case err == nil:
		ctx.JSON(http.StatusCreated, api_models.MessageResponse{Message: "Alat added successfully"})
	case errors.Is(err, service.ErrValidation):
		respondError(ctx, c.logger, http.StatusBadRequest, "All fields are required", err)
	case errors.Is(err, service.ErrAlatExists):
		respondError(ctx, c.logger, http.StatusConflict, "Alat ID already exists", err)
	default:
		respondError(ctx, c.logger, http.StatusInternalServerError, "Internal server error", err)
	}
}

func (c *AlatController) ListAlat(ctx *gin.Context) {
	username, err := middleware.GetUsernameFromGinContext(ctx)
	if err != nil {
		respondError(ctx, c.logger, http.StatusUnauthorized, "Access denied, no token provided", err)
		return
	}

	alat, err := c.alatService.ListAlat(ctx.Request.Context(), username)
	switch {
	case err == nil:
		ctx.JSON(http.StatusOK, gin.H{"alat": alat})
	case errors.Is(err, service.ErrNoAlat):
		respondError(ctx, c.logger, http.StatusNotFound, "No data found for this user", err)
	default:
		respondError(ctx, c.logger, http.StatusInternalServerError, "Error fetching alat", err)
	}
}
