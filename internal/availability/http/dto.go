package http

import (
	"github.com/nekogravitycat/appointment-booking-backend/internal/availability"
	"github.com/nekogravitycat/appointment-booking-backend/internal/calendar"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/request"
)

// SlotsRequest defines query parameters for GET /businesses/:id/availability.
type SlotsRequest struct {
	ServiceID string `form:"service_id" binding:"required,uuid"`
	Date      string `form:"date" binding:"required"`
}

type SlotsResponse struct {
	Date            string   `json:"date"`
	ServiceID       string   `json:"service_id"`
	DurationMinutes int      `json:"duration_minutes"`
	Slots           []string `json:"slots"`
}

func NewSlotsResponse(s *availability.Slots) SlotsResponse {
	slots := make([]string, len(s.Starts))
	for i, t := range s.Starts {
		slots[i] = calendar.ClockOf(t).String()
	}
	return SlotsResponse{
		Date:            s.Date.Format(request.DateLayout),
		ServiceID:       s.Service.ID,
		DurationMinutes: s.Service.DurationMinutes,
		Slots:           slots,
	}
}
