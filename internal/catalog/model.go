package catalog

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/appointment-booking-backend/internal/calendar"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/apperror"
)

var (
	ErrBusinessNotFound = apperror.New(http.StatusNotFound, "business not found")
	ErrServiceNotFound  = apperror.New(http.StatusNotFound, "service not found")
	ErrServiceInactive  = apperror.New(http.StatusNotFound, "service not available")
)

// Business is a tenant publishing working hours and a service catalog.
type Business struct {
	ID        string
	OwnerID   string
	Name      string
	Plan      string // plan name as stored, see Catalog.PlanTier
	Schedule  calendar.WeeklySchedule
	CreatedAt time.Time
}

// Service is a bookable offering of a business.
type Service struct {
	ID              string
	BusinessID      string
	Name            string
	DurationMinutes int
	Price           decimal.Decimal
	IsActive        bool
	CreatedAt       time.Time
}

// Duration returns how long one appointment for the service lasts.
func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// ServiceFilter defines parameters for listing services.
type ServiceFilter struct {
	BusinessID string
	ActiveOnly bool
}
