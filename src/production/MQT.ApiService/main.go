package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/controllers"
	"github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/metrics"
	container "github.com/haxx668/backendmonitoring/src/production/MQT.Container"
	implementation "github.com/haxx668/backendmonitoring/src/production/MQT.Repository/Implementation"

	alatService "github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/implementation/alat"
	authService "github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/implementation/auth"
	jwt "github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/implementation/jwt"
	monitoringService "github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/implementation/monitoring"
	authMiddleware "github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/middleware"
	api_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/api"
)

func main() {
	ctr, err := container.NewApiContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	logger.Info("Starting API Service")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ctr.InitializeDatabase(ctx); err != nil {
		logger.FatalWithError(err, "Failed to initialize database")
	}

	db, err := ctr.GetDatabase()
	if err != nil {
		logger.FatalWithError(err, "Failed to get database connection")
	}

	healthChecker, err := ctr.GetHealthChecker()
	if err != nil {
		logger.FatalWithError(err, "Failed to create health checker")
	}

	config := ctr.GetConfig()
	apiMetrics := metrics.New()

	monitoringOpts := []monitoringService.Option{monitoringService.WithMetrics(apiMetrics)}

	cache, err := ctr.GetLatestReadingCache()
	if err != nil {
		logger.FatalWithError(err, "Failed to connect latest-reading cache")
	}
	if cache != nil {
		monitoringOpts = append(monitoringOpts, monitoringService.WithCache(cache))
		healthChecker.Register("redis", cache)
		logger.Info("Latest-reading cache enabled")
	}

	archive, err := ctr.GetRawReadingArchive()
	if err != nil {
		logger.FatalWithError(err, "Failed to connect raw reading archive")
	}
	if archive != nil {
		monitoringOpts = append(monitoringOpts, monitoringService.WithArchive(archive))
		healthChecker.Register("mongodb", archive)
		logger.Info("Raw reading archive enabled")
	}

	// Create repositories
	userRepo := implementation.NewSQLUserRepository(db)
	alatRepo := implementation.NewSQLAlatRepository(db)
	monitoringRepo := implementation.NewSQLMonitoringRepository(db)
	historyRepo := implementation.NewSQLHistoryRepository(db)

	jwtService := jwt.NewService(api_models.Config{
		SecretKey:     config.Auth.JWTSecretKey,
		TokenDuration: config.Auth.TokenDuration,
		Issuer:        config.Auth.JWTIssuer,
	})
	authMiddlewareInstance := authMiddleware.NewAuthMiddleware(jwtService)

	authServiceInstance := authService.NewAuthService(userRepo, jwtService, config.Auth.BcryptCost)
	alatServiceInstance := alatService.NewAlatService(alatRepo)
	monitoringServiceInstance := monitoringService.NewMonitoringService(monitoringRepo, historyRepo, logger, monitoringOpts...)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware())
	router.Use(apiMetrics.GinMiddleware())

	corsConfig := cors.Config{
		AllowOrigins:     config.CORS.AllowedOrigins,
		AllowMethods:     config.CORS.AllowedMethods,
		AllowHeaders:     config.CORS.AllowedHeaders,
		ExposeHeaders:    config.CORS.ExposedHeaders,
		AllowCredentials: config.CORS.AllowCredentials,
		MaxAge:           time.Duration(config.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	controllers.NewAuthController(authServiceInstance, logger).RegisterRoutes(router)
	controllers.NewAlatController(alatServiceInstance, logger, authMiddlewareInstance).RegisterRoutes(router)
	controllers.NewMonitoringController(monitoringServiceInstance, logger).RegisterRoutes(router)
	controllers.NewHealthController(healthChecker, apiMetrics.Handler()).RegisterRoutes(router)
	if config.Auth.InternalAPISecret != "" {
		controllers.NewInternalController(alatServiceInstance, monitoringServiceInstance, logger, config.Auth.InternalAPISecret).RegisterRoutes(router)
	} else {
		logger.Warn("INTERNAL_API_SECRET not set, ingest endpoints disabled")
	}

	port := config.Server.Port

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP server starting on port " + port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithError(err, "Failed to start HTTP server")
		}
	}()

	logger.Info("API service running... press Ctrl+C to stop")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithError(err, "Server forced to shutdown")
	}
}
