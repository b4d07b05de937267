package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kalsim-labs/kalsim/api/handlers"
)

// NewRouter builds the gin engine with all routes registered.
func NewRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()
	SetupRoutes(router, h)
	return router
}

// StartServer initializes the REST API and blocks serving it.
func StartServer(addr string, h *handlers.Handlers) error {
	return NewRouter(h).Run(addr)
}
