package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	config "github.com/haxx668/backendmonitoring/src/production/MQT.Config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGinMiddlewareLogsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log := newLogger(&config.LoggingConfig{Level: "debug", Format: "json"}, &buf)

	router := gin.New()
	router.Use(log.GinMiddleware())
	router.GET("/history/:idalat", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No history found for this alat"})
	})

	req := httptest.NewRequest(http.MethodGet, "/history/A1", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "/history/:idalat", line["path"])
	assert.Equal(t, float64(http.StatusNotFound), line["status"])
	assert.Equal(t, "req-123", line["request_id"])
}

func TestGinMiddlewareGeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Nop().GinMiddleware())
	router.GET("/health/live", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&config.LoggingConfig{Level: "not-a-level", Format: "json"}, &buf)

	log.Logger.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.WithComponent("test").Info("shown")
	assert.Contains(t, buf.String(), `"component":"test"`)
}

func TestRequestIDContext(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}
