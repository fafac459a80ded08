package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/health"
)

// HealthController handles liveness, readiness and metrics requests
type HealthController struct {
	checker        *health.HealthChecker
	metricsHandler http.Handler
}

// NewHealthController creates a new health controller. metricsHandler may be nil.
func NewHealthController(checker *health.HealthChecker, metricsHandler http.Handler) *HealthController {
	return &HealthController{
		checker:        checker,
		metricsHandler: metricsHandler,
	}
}

// RegisterRoutes registers the health routes with Gin
func (c *HealthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/health/live", c.HealthLive)
	router.GET("/health/ready", c.HealthReady)
	if c.metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(c.metricsHandler))
	}
}

func (c *HealthController) HealthLive(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func (c *HealthController) HealthReady(ctx *gin.Context) {
	checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	status, healthy := c.checker.GetHealthStatus(checkCtx)
	if !healthy {
		ctx.JSON(http.StatusServiceUnavailable, status)
		return
	}
	ctx.JSON(http.StatusOK, status)
}
