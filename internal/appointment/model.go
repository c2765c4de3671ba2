package appointment

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/appointment-booking-backend/internal/calendar"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.New(http.StatusNotFound, "appointment not found")
	ErrConflict            = apperror.New(http.StatusConflict, "time slot is no longer available, please pick another slot")
	ErrInvalidTransition   = apperror.New(http.StatusConflict, "status transition not allowed")
	ErrInvalidStatus       = apperror.New(http.StatusBadRequest, "invalid appointment status")
	ErrPermissionDenied    = apperror.New(http.StatusForbidden, "permission denied")
	ErrConcurrentUpdate    = apperror.New(http.StatusConflict, "appointment was modified concurrently, please retry")
	ErrClientCodeTaken     = apperror.New(http.StatusConflict, "client code already in use")
	ErrClientCodeExhausted = apperror.New(http.StatusServiceUnavailable, "could not allocate a client code, please retry")

	ErrValidation            = apperror.New(http.StatusBadRequest, "invalid appointment request")
	ErrClientNameRequired    = apperror.New(http.StatusBadRequest, "client name is required")
	ErrClientNameTooLong     = apperror.New(http.StatusBadRequest, "client name is too long")
	ErrClientContactRequired = apperror.New(http.StatusBadRequest, "client contact is required")
	ErrClientContactTooLong  = apperror.New(http.StatusBadRequest, "client contact is too long")
	ErrInvalidClientEmail    = apperror.New(http.StatusBadRequest, "client email is not a valid address")
	ErrInvalidTimeRange      = apperror.New(http.StatusBadRequest, "start date must not be after end date")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// BlockingStatuses are the statuses that hold a calendar slot.
var BlockingStatuses = []Status{StatusPending, StatusConfirmed}

// Blocking reports whether an appointment in status s occupies its slot.
func (s Status) Blocking() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Appointment is a client's reservation of a service at a start time.
// Service name, duration and price are copied at booking time.
type Appointment struct {
	ID              string
	BusinessID      string
	ServiceID       string
	ServiceName     string
	DurationMinutes int
	Price           decimal.Decimal
	ClientName      string
	ClientContact   string
	ClientEmail     string
	ClientCode      string
	StartTime       time.Time
	EndTime         time.Time
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Interval returns the half-open span [StartTime, EndTime) the appointment occupies.
func (a *Appointment) Interval() calendar.Interval {
	return calendar.Interval{Start: a.StartTime, End: a.EndTime}
}

// Filter defines parameters for listing appointments of a business.
type Filter struct {
	BusinessID string
	Status     string
	From       *time.Time // start_time >= From
	To         *time.Time // start_time < To
	Page       int
	PageSize   int
	SortOrder  string
}
