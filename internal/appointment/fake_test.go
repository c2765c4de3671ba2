package appointment

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/nekogravitycat/appointment-booking-backend/internal/calendar"
	"github.com/nekogravitycat/appointment-booking-backend/internal/catalog"
	"github.com/nekogravitycat/appointment-booking-backend/internal/notification"
	"github.com/nekogravitycat/appointment-booking-backend/internal/quota"
)

// memRepo is an in-memory Repository. CreateExclusive holds a single mutex
// for the whole read-check-insert, like the business row lock does.
type memRepo struct {
	mu    sync.Mutex
	items map[string]*Appointment
	seq   int

	// raceOnUpdate, when set, moves an appointment to the given status right
	// before the next UpdateStatus, as if another request had won.
	raceOnUpdate Status
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[string]*Appointment{}}
}

func (r *memRepo) CreateExclusive(_ context.Context, a *Appointment, guard Guard) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	day := calendar.Date(a.StartTime)
	window := calendar.Interval{Start: day, End: day.AddDate(0, 0, 1)}
	var active []*Appointment
	for _, other := range r.items {
		if other.BusinessID == a.BusinessID && other.Status.Blocking() && calendar.Overlaps(other.Interval(), window) {
			cp := *other
			active = append(active, &cp)
		}
	}
	if err := guard(active); err != nil {
		return err
	}
	for _, other := range r.items {
		if other.BusinessID == a.BusinessID && other.ClientCode == a.ClientCode {
			return ErrClientCodeTaken
		}
	}

	r.seq++
	a.ID = fmt.Sprintf("appt-%d", r.seq)
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	r.items[a.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memRepo) GetByClientCode(_ context.Context, businessID, code string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.items {
		if a.BusinessID == businessID && a.ClientCode == strings.ToUpper(code) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRepo) List(_ context.Context, filter Filter) ([]*Appointment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Appointment
	for _, a := range r.items {
		if a.BusinessID != filter.BusinessID {
			continue
		}
		if filter.Status != "" && string(a.Status) != filter.Status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, len(out), nil
}

func (r *memRepo) ListActive(_ context.Context, businessID string, from, to time.Time) ([]*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	window := calendar.Interval{Start: from, End: to}
	var out []*Appointment
	for _, a := range r.items {
		if a.BusinessID == businessID && a.Status.Blocking() && calendar.Overlaps(a.Interval(), window) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id string, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, errStatusChanged
	}
	if r.raceOnUpdate != "" {
		a.Status = r.raceOnUpdate
		r.raceOnUpdate = ""
	}
	if a.Status != from {
		return nil, errStatusChanged
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (r *memRepo) CountQualifying(_ context.Context, businessID string, from, to time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.items {
		if a.BusinessID != businessID || a.Status == StatusCancelled {
			continue
		}
		if !a.StartTime.Before(from) && a.StartTime.Before(to) {
			n++
		}
	}
	return n, nil
}

// seed stores an appointment directly, bypassing the booking path.
func (r *memRepo) seed(a Appointment) *Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if a.ID == "" {
		a.ID = fmt.Sprintf("seed-%d", r.seq)
	}
	if a.ClientCode == "" {
		a.ClientCode = fmt.Sprintf("S%05d", r.seq)
	}
	r.items[a.ID] = &a
	cp := a
	return &cp
}

type stubCatalog struct {
	business *catalog.Business
	services map[string]*catalog.Service
}

func (c *stubCatalog) GetBusiness(_ context.Context, id string) (*catalog.Business, error) {
	if c.business == nil || c.business.ID != id {
		return nil, catalog.ErrBusinessNotFound
	}
	return c.business, nil
}

func (c *stubCatalog) GetService(_ context.Context, businessID, serviceID string) (*catalog.Service, error) {
	s, ok := c.services[serviceID]
	if !ok || s.BusinessID != businessID {
		return nil, catalog.ErrServiceNotFound
	}
	return s, nil
}

func (c *stubCatalog) GetActiveService(ctx context.Context, businessID, serviceID string) (*catalog.Service, error) {
	s, err := c.GetService(ctx, businessID, serviceID)
	if err != nil {
		return nil, err
	}
	if !s.IsActive {
		return nil, catalog.ErrServiceInactive
	}
	return s, nil
}

func (c *stubCatalog) ListServices(context.Context, string, bool) ([]*catalog.Service, error) {
	return nil, nil
}

func (c *stubCatalog) PlanTier(ctx context.Context, businessID string) (quota.Tier, error) {
	b, err := c.GetBusiness(ctx, businessID)
	if err != nil {
		return "", err
	}
	return quota.ParseTier(b.Plan)
}

func (c *stubCatalog) IsOwner(_ context.Context, businessID, userID string) (bool, error) {
	return c.business != nil && c.business.ID == businessID && c.business.OwnerID == userID && userID != "", nil
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Dispatch(ctx context.Context, ev notification.Event) {
	m.Called(ctx, ev)
}

// events returns the dispatched events in order.
func (m *mockDispatcher) events() []notification.Event {
	var out []notification.Event
	for _, c := range m.Calls {
		if c.Method == "Dispatch" {
			out = append(out, c.Arguments.Get(1).(notification.Event))
		}
	}
	return out
}
