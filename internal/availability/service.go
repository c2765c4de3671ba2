package availability

import (
	"context"
	"time"

	"github.com/nekogravitycat/appointment-booking-backend/internal/calendar"
	"github.com/nekogravitycat/appointment-booking-backend/internal/catalog"
	"github.com/nekogravitycat/appointment-booking-backend/internal/metrics"
)

// BusyReader lists the intervals held by pending or confirmed appointments of
// a business that start within [from, to).
type BusyReader interface {
	ListBusy(ctx context.Context, businessID string, from, to time.Time) ([]calendar.Interval, error)
}

// Slots is the availability of one service on one civil date.
type Slots struct {
	Date    time.Time
	Service *catalog.Service
	Starts  []time.Time
}

type Service interface {
	Slots(ctx context.Context, businessID, serviceID string, date time.Time) (*Slots, error)
}

type service struct {
	catalog catalog.Catalog
	busy    BusyReader
	now     func() time.Time
}

func NewService(c catalog.Catalog, busy BusyReader, now func() time.Time) Service {
	return &service{
		catalog: c,
		busy:    busy,
		now:     now,
	}
}

func (s *service) Slots(ctx context.Context, businessID, serviceID string, date time.Time) (*Slots, error) {
	b, err := s.catalog.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	svc, err := s.catalog.GetActiveService(ctx, businessID, serviceID)
	if err != nil {
		return nil, err
	}

	day := calendar.Date(date)
	result := &Slots{Date: day, Service: svc, Starts: []time.Time{}}
	if _, open := b.Schedule.OpenInterval(day); !open {
		return result, nil
	}

	busy, err := s.busy.ListBusy(ctx, businessID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	result.Starts = Generate(b.Schedule, svc.Duration(), day, busy, s.now())
	metrics.RecordSlots(len(result.Starts))
	return result, nil
}
