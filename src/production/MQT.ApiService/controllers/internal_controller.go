package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	alat "github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/implementation/alat"
	monitoring "github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/implementation/monitoring"
	"github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/middleware"
	logger "github.com/haxx668/backendmonitoring/src/production/MQT.Logger"
	api_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/api"
)

// InternalController handles internal API endpoints for service-to-service communication
type InternalController struct {
	alatService       *alat.AlatService
	monitoringService *monitoring.MonitoringService
	logger            *logger.Logger
	secret            string
}

// NewInternalController creates a new internal controller
func NewInternalController(alatService *alat.AlatService, monitoringService *monitoring.MonitoringService, log *logger.Logger, secret string) *InternalController {
	return &InternalController{
		alatService:       alatService,
		monitoringService: monitoringService,
		logger:            log.WithComponent("internal"),
		secret:            secret,
	}
}

// ValidateAlat checks if an alat is registered
func (c *InternalController) ValidateAlat(ctx *gin.Context) {
	var req api_models.ValidateAlatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, api_models.ValidateAlatResponse{
			Exists: false,
			Error:  "Invalid request: " + err.Error(),
		})
		return
	}

	exists, err := c.alatService.Exists(ctx.Request.Context(), req.IDAlat)
	if err != nil {
		c.logger.WithField("idalat", req.IDAlat).ErrorWithError(err, "alat lookup failed")
		ctx.JSON(http.StatusInternalServerError, api_models.ValidateAlatResponse{
			Exists: false,
			Error:  "Failed to look up alat",
		})
		return
	}

	ctx.JSON(http.StatusOK, api_models.ValidateAlatResponse{Exists: exists})
}

// CreateReading appends an ingested reading to the monitoring buffer
func (c *InternalController) CreateReading(ctx *gin.Context) {
	var req api_models.CreateReadingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, api_models.CreateReadingResponse{
			Success: false,
			Error:   "Invalid request: " + err.Error(),
		})
		return
	}

	in := monitoring.ReadingInput{
		ReadingID: req.ReadingID,
		IDAlat:    req.IDAlat,
		Topic:     req.Topic,
		Payload:   req.Payload,
	}
	if req.UpdatedAt != nil {
		in.UpdatedAt = *req.UpdatedAt
	}

	_, duplicate, err := c.monitoringService.RecordReading(ctx.Request.Context(), in)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, monitoring.ErrValidation) {
			status = http.StatusBadRequest
		} else {
			c.logger.WithField("idalat", req.IDAlat).ErrorWithError(err, "reading insert failed")
		}
		ctx.JSON(status, api_models.CreateReadingResponse{
			Success: false,
			Error:   "Failed to create reading: " + err.Error(),
		})
		return
	}

	// a redelivered reading is acknowledged like the first one
	ctx.JSON(http.StatusCreated, api_models.CreateReadingResponse{Success: true, Duplicate: duplicate})
}

// RegisterRoutes registers the internal API routes
func (c *InternalController) RegisterRoutes(router *gin.Engine) {
	internal := router.Group("/internal")
	internal.Use(middleware.ServiceAuthMiddleware(c.secret))

	internal.POST("/alat/validate", c.ValidateAlat)
	internal.POST("/monitoring", c.CreateReading)
}
