package http

import (
	"time"

	"github.com/nekogravitycat/appointment-booking-backend/internal/appointment"
	"github.com/nekogravitycat/appointment-booking-backend/internal/calendar"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/request"
)

// civilLayout renders business-local timestamps without an offset.
const civilLayout = "2006-01-02T15:04:05"

// CreateAppointmentRequest is the payload for POST /businesses/:id/appointments.
// Date and start time are business-local, as offered by the availability endpoint.
type CreateAppointmentRequest struct {
	ServiceID     string `json:"service_id" binding:"required,uuid"`
	Date          string `json:"date" binding:"required"`
	StartTime     string `json:"start_time" binding:"required"`
	ClientName    string `json:"client_name" binding:"required"`
	ClientContact string `json:"client_contact" binding:"required"`
	ClientEmail   string `json:"client_email" binding:"omitempty,email"`
}

// Start resolves the requested civil start time.
func (r *CreateAppointmentRequest) Start() (time.Time, error) {
	date, err := request.ParseDate(r.Date)
	if err != nil {
		return time.Time{}, err
	}
	clock, err := calendar.ParseClock(r.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	return clock.On(date), nil
}

// ChangeStatusRequest is the payload for POST /appointments/:id/status.
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListAppointmentsRequest defines query parameters for listing a business's appointments.
type ListAppointmentsRequest struct {
	request.ListParams
	Status string `form:"status" binding:"omitempty,oneof=pending confirmed rejected completed cancelled"`
	From   string `form:"from"` // YYYY-MM-DD, inclusive
	To     string `form:"to"`   // YYYY-MM-DD, inclusive
}

// Range converts the date bounds into a half-open start time range.
func (r *ListAppointmentsRequest) Range() (from, to *time.Time, err error) {
	if r.From != "" {
		d, err := request.ParseDate(r.From)
		if err != nil {
			return nil, nil, err
		}
		from = &d
	}
	if r.To != "" {
		d, err := request.ParseDate(r.To)
		if err != nil {
			return nil, nil, err
		}
		next := d.AddDate(0, 0, 1)
		to = &next
	}
	return from, to, nil
}

// LookupRequest defines query parameters for GET /appointments/lookup.
type LookupRequest struct {
	BusinessID string `form:"business_id" binding:"required,uuid"`
	Code       string `form:"code" binding:"required"`
	Contact    string `form:"contact" binding:"required"`
}

type ServiceTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AppointmentResponse struct {
	ID              string     `json:"id"`
	BusinessID      string     `json:"business_id"`
	Service         ServiceTag `json:"service"`
	DurationMinutes int        `json:"duration_minutes"`
	Price           string     `json:"price"`
	ClientName      string     `json:"client_name"`
	ClientContact   string     `json:"client_contact"`
	ClientEmail     string     `json:"client_email,omitempty"`
	ClientCode      string     `json:"client_code"`
	Date            string     `json:"date"`
	StartTime       string     `json:"start_time"`
	EndTime         string     `json:"end_time"`
	StartsAt        string     `json:"starts_at"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func NewAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		BusinessID:      a.BusinessID,
		Service:         ServiceTag{ID: a.ServiceID, Name: a.ServiceName},
		DurationMinutes: a.DurationMinutes,
		Price:           a.Price.StringFixed(2),
		ClientName:      a.ClientName,
		ClientContact:   a.ClientContact,
		ClientEmail:     a.ClientEmail,
		ClientCode:      a.ClientCode,
		Date:            a.StartTime.Format(request.DateLayout),
		StartTime:       calendar.ClockOf(a.StartTime).String(),
		EndTime:         calendar.ClockOf(a.EndTime).String(),
		StartsAt:        a.StartTime.Format(civilLayout),
		Status:          string(a.Status),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// LookupResponse is what a client sees of their own appointment.
type LookupResponse struct {
	ID          string `json:"id"`
	ServiceName string `json:"service_name"`
	ClientCode  string `json:"client_code"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Status      string `json:"status"`
}

func NewLookupResponse(a *appointment.Appointment) LookupResponse {
	return LookupResponse{
		ID:          a.ID,
		ServiceName: a.ServiceName,
		ClientCode:  a.ClientCode,
		Date:        a.StartTime.Format(request.DateLayout),
		StartTime:   calendar.ClockOf(a.StartTime).String(),
		EndTime:     calendar.ClockOf(a.EndTime).String(),
		Status:      string(a.Status),
	}
}
