package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	logger "github.com/haxx668/backendmonitoring/src/production/MQT.Logger"
	api_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/api"
)

// respondError writes the error body. Server errors carry the raw error in
// details and are logged; client errors only carry the message.
func respondError(ctx *gin.Context, log *logger.Logger, status int, message string, err error) {
	body := api_models.ErrorResponse{Error: message}
	if status >= http.StatusInternalServerError && err != nil {
		body.Details = err.Error()
		log.WithField("path", ctx.FullPath()).ErrorWithError(err, message)
	}
	ctx.JSON(status, body)
}

// bindJSON decodes the request body, answering 400 on malformed input
func bindJSON(ctx *gin.Context, log *logger.Logger, dst interface{}) bool {
	if err := ctx.ShouldBindJSON(dst); err != nil {
		respondError(ctx, log, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}
