package http

import (
	"time"

	"github.com/nekogravitycat/appointment-booking-backend/internal/calendar"
	"github.com/nekogravitycat/appointment-booking-backend/internal/catalog"
)

// BusinessTag is the short form of a business embedded in other responses.
type BusinessTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DayHoursResponse struct {
	Weekday   string `json:"weekday"`
	IsOpen    bool   `json:"is_open"`
	OpenTime  string `json:"open_time,omitempty"`
	CloseTime string `json:"close_time,omitempty"`
}

type BusinessResponse struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	WorkingHours []DayHoursResponse `json:"working_hours"`
	CreatedAt    time.Time          `json:"created_at"`
}

func NewBusinessResponse(b *catalog.Business) BusinessResponse {
	return BusinessResponse{
		ID:           b.ID,
		Name:         b.Name,
		WorkingHours: newWorkingHours(b.Schedule),
		CreatedAt:    b.CreatedAt,
	}
}

func newWorkingHours(s calendar.WeeklySchedule) []DayHoursResponse {
	items := make([]DayHoursResponse, 0, len(s))
	for _, d := range s {
		if d.Malformed() {
			continue
		}
		item := DayHoursResponse{Weekday: d.Weekday.String(), IsOpen: d.IsOpen}
		if d.IsOpen {
			item.OpenTime = d.OpenTime
			item.CloseTime = d.CloseTime
		}
		items = append(items, item)
	}
	return items
}

type ServiceResponse struct {
	ID              string `json:"id"`
	BusinessID      string `json:"business_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           string `json:"price"`
	IsActive        bool   `json:"is_active"`
}

func NewServiceResponse(s *catalog.Service) ServiceResponse {
	return ServiceResponse{
		ID:              s.ID,
		BusinessID:      s.BusinessID,
		Name:            s.Name,
		DurationMinutes: s.DurationMinutes,
		Price:           s.Price.StringFixed(2),
		IsActive:        s.IsActive,
	}
}
