// internal/api/routes.go
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Tanxunze/7inet-bot/internal/session"
)

// SetupRoutes wires the admin status API. The health probe is public;
// everything under /api/v1 requires the static API key.
func SetupRoutes(router *gin.Engine, store *session.Store, botUsername string) {
	h := NewHandlers(store, botUsername)

	// --- Public Routes ---
	router.GET("/healthz", h.HealthHandler)

	// --- Authenticated Routes ---
	apiV1 := router.Group("/api/v1")
	apiV1.Use(KeyAuthMiddleware())
	{
		apiV1.GET("/status", h.StatusHandler)
	}
}
