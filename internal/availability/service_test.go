package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/appointment-booking-backend/internal/calendar"
	"github.com/nekogravitycat/appointment-booking-backend/internal/catalog"
	"github.com/nekogravitycat/appointment-booking-backend/internal/quota"
)

type fakeCatalog struct {
	business *catalog.Business
	services map[string]*catalog.Service
}

func (f *fakeCatalog) GetBusiness(_ context.Context, id string) (*catalog.Business, error) {
	if f.business == nil || f.business.ID != id {
		return nil, catalog.ErrBusinessNotFound
	}
	return f.business, nil
}

func (f *fakeCatalog) GetService(_ context.Context, businessID, serviceID string) (*catalog.Service, error) {
	s, ok := f.services[serviceID]
	if !ok || s.BusinessID != businessID {
		return nil, catalog.ErrServiceNotFound
	}
	return s, nil
}

func (f *fakeCatalog) GetActiveService(ctx context.Context, businessID, serviceID string) (*catalog.Service, error) {
	s, err := f.GetService(ctx, businessID, serviceID)
	if err != nil {
		return nil, err
	}
	if !s.IsActive {
		return nil, catalog.ErrServiceInactive
	}
	return s, nil
}

func (f *fakeCatalog) ListServices(context.Context, string, bool) ([]*catalog.Service, error) {
	return nil, nil
}

func (f *fakeCatalog) PlanTier(context.Context, string) (quota.Tier, error) {
	return quota.TierFree, nil
}

func (f *fakeCatalog) IsOwner(context.Context, string, string) (bool, error) {
	return false, nil
}

type fakeBusy struct {
	intervals []calendar.Interval
	calls     int
	from, to  time.Time
}

func (f *fakeBusy) ListBusy(_ context.Context, _ string, from, to time.Time) ([]calendar.Interval, error) {
	f.calls++
	f.from, f.to = from, to
	return f.intervals, nil
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		business: &catalog.Business{ID: "b1", Name: "Barber", Schedule: mondayMorning()},
		services: map[string]*catalog.Service{
			"haircut": {ID: "haircut", BusinessID: "b1", DurationMinutes: 60, IsActive: true},
			"retired": {ID: "retired", BusinessID: "b1", DurationMinutes: 60, IsActive: false},
		},
	}
}

func TestSlots(t *testing.T) {
	busy := &fakeBusy{intervals: []calendar.Interval{calendar.NewInterval(at(monday, 10, 0), time.Hour)}}
	svc := NewService(newFakeCatalog(), busy, func() time.Time { return at(monday, 8, 0) })

	// Any time of day selects the whole civil date.
	got, err := svc.Slots(context.Background(), "b1", "haircut", at(monday, 15, 0))
	require.NoError(t, err)

	assert.Equal(t, monday, got.Date)
	assert.Equal(t, []string{"09:00", "11:00"}, clocks(got.Starts))
	assert.Equal(t, monday, busy.from)
	assert.Equal(t, monday.AddDate(0, 0, 1), busy.to)
}

func TestSlotsClosedDaySkipsStore(t *testing.T) {
	busy := &fakeBusy{}
	svc := NewService(newFakeCatalog(), busy, func() time.Time { return at(monday, 8, 0) })

	got, err := svc.Slots(context.Background(), "b1", "haircut", monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, got.Starts)
	assert.Zero(t, busy.calls)
}

func TestSlotsErrors(t *testing.T) {
	svc := NewService(newFakeCatalog(), &fakeBusy{}, func() time.Time { return at(monday, 8, 0) })
	ctx := context.Background()

	_, err := svc.Slots(ctx, "missing", "haircut", monday)
	assert.ErrorIs(t, err, catalog.ErrBusinessNotFound)

	_, err = svc.Slots(ctx, "b1", "missing", monday)
	assert.ErrorIs(t, err, catalog.ErrServiceNotFound)

	_, err = svc.Slots(ctx, "b1", "retired", monday)
	assert.ErrorIs(t, err, catalog.ErrServiceInactive)
}
