package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/appointment-booking-backend/internal/availability"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/response"
)

type AvailabilityHandler struct {
	service availability.Service
}

func NewHandler(service availability.Service) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// Slots lists the start times still open for a service on a date.
func (h *AvailabilityHandler) Slots(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	var req SlotsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	date, err := request.ParseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "date must be formatted as YYYY-MM-DD"})
		return
	}

	slots, err := h.service.Slots(c.Request.Context(), uri.ID, req.ServiceID, date)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSlotsResponse(slots))
}
