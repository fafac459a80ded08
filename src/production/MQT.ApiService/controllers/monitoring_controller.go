package controllers

import (
	"errors"
	"net/http"

	service "github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/implementation/monitoring"
	logger "github.com/haxx668/backendmonitoring/src/production/MQT.Logger"
	api_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/api"

	"github.com/gin-gonic/gin"
)

// MonitoringController serves live readings and their history.
// These routes are public, the alat id is the only key.
type MonitoringController struct {
	monitoringService *service.MonitoringService
	logger            *logger.Logger
}

func NewMonitoringController(monitoringService *service.MonitoringService, log *logger.Logger) *MonitoringController {
	return &MonitoringController{
		monitoringService: monitoringService,
		logger:            log.WithComponent("monitoring"),
	}
}

// RegisterRoutes registers the monitoring and history routes with Gin
func (c *MonitoringController) RegisterRoutes(router *gin.Engine) {
	router.GET("/monitoring/latest/:idalat", c.GetLatest)

	history := router.Group("/history")
	{
		history.POST("/save", c.SaveHistory)
		history.GET("/:idalat", c.ListHistory)
	}
}

func (c *MonitoringController) GetLatest(ctx *gin.Context) {
	reading, found, err := c.monitoringService.GetLatest(ctx.Request.Context(), ctx.Param("idalat"))
	if err != nil {
		respondError(ctx, c.logger, http.StatusInternalServerError, "Error fetching monitoring data", err)
		return
	}
	if !found {
		ctx.JSON(http.StatusOK, api_models.MessageResponse{Message: service.NotPoweredOnMessage})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": reading})
}

func (c *MonitoringController) SaveHistory(ctx *gin.Context) {
	var req api_models.SaveHistoryRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	_, err := c.monitoringService.SaveHistory(ctx.Request.Context(), req)
	switch {
	case err == nil:
		ctx.JSON(http.StatusCreated, api_models.MessageResponse{Message: "History saved successfully"})
	case errors.Is(err, service.ErrValidation):
		respondError(ctx, c.logger, http.StatusBadRequest, "idalat and a non-negative duration are required", err)
	case errors.Is(err, service.ErrNoReadings):
		respondError(ctx, c.logger, http.StatusNotFound, "No data found for this alat", err)
	case errors.Is(err, service.ErrNothingDeleted):
		respondError(ctx, c.logger, http.StatusInternalServerError, "Error deleting data from monitoring table", err)
	default:
		respondError(ctx, c.logger, http.StatusInternalServerError, "Error saving history", err)
	}
}

func (c *MonitoringController) ListHistory(ctx *gin.Context) {
	history, err := c.monitoringService.ListHistory(ctx.Request.Context(), ctx.Param("idalat"))
	switch {
	case err == nil:
		ctx.JSON(http.StatusOK, gin.H{"history": history})
	case errors.Is(err, service.ErrNoHistory):
		respondError(ctx, c.logger, http.StatusNotFound, "No history found for this alat", err)
	default:
		respondError(ctx, c.logger, http.StatusInternalServerError, "Error fetching history", err)
	}
}
