// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/demand-planner/internal/api"
	"github.com/andresuchdata/demand-planner/internal/cache"
	"github.com/andresuchdata/demand-planner/internal/config"
	"github.com/andresuchdata/demand-planner/internal/geo"
	"github.com/andresuchdata/demand-planner/internal/repository/postgres"
	"github.com/andresuchdata/demand-planner/internal/service"
	"github.com/andresuchdata/demand-planner/internal/source/demand"
	"github.com/andresuchdata/demand-planner/internal/source/stocksheet"
	"github.com/andresuchdata/demand-planner/internal/storage"
	"github.com/andresuchdata/demand-planner/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Route and geography config is load-bearing for every report, so a
	// broken file stops the server at startup.
	geoCfg, err := geo.Load(cfg.Planning.RoutesConfigPath)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("path", cfg.Planning.RoutesConfigPath).Msg("Failed to load routes config")
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Initialize caches
	demandCache, err := cache.NewDemandCache(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize demand cache")
	}
	stockCache, err := cache.NewStockCache(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize stock cache")
	}

	// Initialize sources
	demandClient := demand.NewClient(cfg.Sources)
	stockService, err := stocksheet.NewService(cfg.Sources)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize stock sheet source")
	}

	// Initialize forecast snapshot archive
	var archive storage.ObjectStorage = storage.NewNoopStorage()
	if cfg.Storage.Enabled {
		archive, err = storage.NewMinioClient(storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize forecast archive")
		}
	}

	// Initialize services
	planningService := service.NewPlanningService(
		demandClient,
		stockService,
		demandCache,
		stockCache,
		postgres.NewForecastRepository(db),
		postgres.NewWeightRepository(db),
		geoCfg,
		archive,
		cfg.Planning,
	)
	reportService := service.NewReportService(
		demandClient,
		stockService,
		demandCache,
		stockCache,
		geoCfg,
		cfg.Planning.TrailingWindowDays,
		cfg.Planning.DefaultTargetDays,
	)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		PlanningService: planningService,
		ReportService:   reportService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
