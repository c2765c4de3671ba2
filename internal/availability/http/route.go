package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *AvailabilityHandler) {
	group := g.Group("/businesses")

	// === Public Routes ===
	group.GET("/:id/availability", h.Slots)
}
