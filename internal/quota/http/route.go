package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *QuotaHandler, authMiddleware, ownerMiddleware gin.HandlerFunc) {
	group := g.Group("/businesses")

	// === Owner Routes ===
	group.GET("/:id/quota", authMiddleware, ownerMiddleware, h.Usage)
}
