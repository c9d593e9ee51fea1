// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/andresuchdata/demand-planner/internal/api/handlers"
	"github.com/andresuchdata/demand-planner/internal/api/middleware"
	"github.com/andresuchdata/demand-planner/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	PlanningService *service.PlanningService
	ReportService   *service.ReportService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", handlers.Health)

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.PlanningService != nil {
			planningHandler := handlers.NewPlanningHandler(services.PlanningService)
			planningGroup := apiGroup.Group("/planning")
			{
				planningGroup.GET("/scopes", planningHandler.GetScopes)
				planningGroup.GET("/baseline", planningHandler.GetBaseline)
				planningGroup.GET("/forecast", planningHandler.GetForecast)
				planningGroup.PUT("/forecast/configs", planningHandler.SaveForecastConfigs)
				planningGroup.POST("/forecast/generate", planningHandler.GenerateForecasts)
				planningGroup.GET("/forecast/materialized", planningHandler.GetMaterializedForecasts)
				planningGroup.GET("/weights", planningHandler.GetSKUWeights)
				planningGroup.PUT("/weights", planningHandler.SaveSKUWeights)
			}
		}

		if services.ReportService != nil {
			reportHandler := handlers.NewReportHandler(services.ReportService)
			reportGroup := apiGroup.Group("/reports")
			{
				reportGroup.GET("/stock", reportHandler.GetStockReport)
				reportGroup.GET("/replenishment", reportHandler.GetReplenishmentPlan)
				reportGroup.POST("/refresh", reportHandler.Refresh)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
