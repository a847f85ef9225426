package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(gin.Logger())

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/runs", handler.ListRuns)

		report := v1.Group("/report")
		{
			report.GET("", handler.GetReport)
			report.GET("/teams", handler.GetTeams)
			report.GET("/contributors/:name", handler.GetContributor)
		}

		v1.GET("/performance", handler.GetPerformance)
	}

	return router
}
