package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *CatalogHandler) {
	group := g.Group("/businesses")

	// === Public Routes ===
	group.GET("/:id", h.GetBusiness)
	group.GET("/:id/services", h.ListServices)
}
