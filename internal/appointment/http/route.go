package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	g *gin.RouterGroup,
	h *AppointmentHandler,
	authMiddleware gin.HandlerFunc,
	ownerMiddleware gin.HandlerFunc,
	rateLimit gin.HandlerFunc,
) {
	businesses := g.Group("/businesses")
	{
		// === Public Routes ===
		businesses.POST("/:id/appointments", rateLimit, h.Create)

		// === Owner Routes ===
		businesses.GET("/:id/appointments", authMiddleware, ownerMiddleware, h.List)
	}

	appointments := g.Group("/appointments")
	{
		// === Public Routes ===
		appointments.GET("/lookup", rateLimit, h.Lookup)

		// === Authenticated Routes ===
		appointments.GET("/:id", authMiddleware, h.Get)
		appointments.POST("/:id/status", authMiddleware, h.ChangeStatus)
	}
}
