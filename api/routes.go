package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kalsim-labs/kalsim/api/handlers"
)

// SetupRoutes initializes all API endpoints
func SetupRoutes(router *gin.Engine, h *handlers.Handlers) {
	api := router.Group("/api")
	{
		api.POST("/simulation/start", h.StartSimulation)
		api.POST("/simulation/stop", h.StopSimulation)
		api.GET("/simulation/state", h.GetSimulationState)
		api.GET("/results/stats", h.GetResultsStats)
		api.GET("/market/trend", h.GetMarketTrend)
		api.GET("/ws", handlers.HandleWebSocket)
	}
}
