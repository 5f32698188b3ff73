// Package server exposes the swap service over HTTP.
package server

import (
	"github.com/gin-gonic/gin"

	"swapd/pkg/fee"
	"swapd/pkg/provider"
	"swapd/pkg/store"
	"swapd/pkg/swap"
)

// Handler bundles the service dependencies behind the HTTP surface.
type Handler struct {
	registry *provider.Registry
	calc     *fee.Calculator
	executor *swap.Executor
	poller   *swap.Poller
	store    store.SwapStore
}

// NewHandler creates the HTTP handler set.
func NewHandler(registry *provider.Registry, calc *fee.Calculator, executor *swap.Executor, poller *swap.Poller, st store.SwapStore) *Handler {
	return &Handler{
		registry: registry,
		calc:     calc,
		executor: executor,
		poller:   poller,
		store:    st,
	}
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/quote", h.Quote)
		api.POST("/swap", h.Swap)
		api.GET("/swap/:id/status", h.SwapStatus)
		api.GET("/history", h.History)
	}

	return router
}
