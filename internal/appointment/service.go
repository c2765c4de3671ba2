package appointment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nekogravitycat/appointment-booking-backend/internal/availability"
	"github.com/nekogravitycat/appointment-booking-backend/internal/calendar"
	"github.com/nekogravitycat/appointment-booking-backend/internal/catalog"
	"github.com/nekogravitycat/appointment-booking-backend/internal/db"
	"github.com/nekogravitycat/appointment-booking-backend/internal/metrics"
	"github.com/nekogravitycat/appointment-booking-backend/internal/notification"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/retry"
	"github.com/nekogravitycat/appointment-booking-backend/internal/quota"
)

const (
	maxClientCodeAttempts = 5
	maxStatusAttempts     = 3

	maxClientNameLength    = 100
	maxClientContactLength = 100
)

type CreateRequest struct {
	BusinessID    string
	ServiceID     string
	StartTime     time.Time // business-local civil time
	ClientName    string
	ClientContact string
	ClientEmail   string
}

type StatusChangeRequest struct {
	BusinessID    string // optional scope; a mismatch reads as not found
	AppointmentID string
	Status        string
	ActorID       string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Appointment, error)
	ChangeStatus(ctx context.Context, req StatusChangeRequest) (*Appointment, error)
	// Get returns an appointment to the owner of its business.
	Get(ctx context.Context, id, actorID string) (*Appointment, error)
	List(ctx context.Context, filter Filter) ([]*Appointment, int, error)
	// Lookup lets a client find their appointment by client code and contact.
	Lookup(ctx context.Context, businessID, code, contact string) (*Appointment, error)
	ListBusy(ctx context.Context, businessID string, from, to time.Time) ([]calendar.Interval, error)
}

// Options carries the replaceable collaborators of the service.
type Options struct {
	Now     func() time.Time
	NewCode CodeGenerator
	Retry   retry.Policy
}

type service struct {
	repo       Repository
	catalog    catalog.Catalog
	limiter    quota.Limiter
	dispatcher notification.Dispatcher
	logger     *zap.Logger
	validate   *validator.Validate
	now        func() time.Time
	newCode    CodeGenerator
	retry      retry.Policy
}

func NewService(
	repo Repository,
	cat catalog.Catalog,
	limiter quota.Limiter,
	dispatcher notification.Dispatcher,
	logger *zap.Logger,
	opts Options,
) Service {
	if opts.Now == nil {
		opts.Now = calendar.NowIn(time.Local)
	}
	if opts.NewCode == nil {
		opts.NewCode = NewClientCode
	}
	return &service{
		repo:       repo,
		catalog:    cat,
		limiter:    limiter,
		dispatcher: dispatcher,
		logger:     logger,
		validate:   validator.New(),
		now:        opts.Now,
		newCode:    opts.NewCode,
		retry:      opts.Retry,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	// 1. Client fields, before any I/O
	if err := s.normalize(&req); err != nil {
		metrics.RecordBooking(metrics.BookingInvalid)
		return nil, err
	}

	// 2. Catalog
	b, err := s.catalog.GetBusiness(ctx, req.BusinessID)
	if err != nil {
		return nil, err
	}
	svc, err := s.catalog.GetActiveService(ctx, req.BusinessID, req.ServiceID)
	if err != nil {
		return nil, err
	}

	// 3. Working hours, grid and clock
	now := s.now()
	start := calendar.Civil(req.StartTime)
	if err := availability.CheckStart(b.Schedule, svc.Duration(), start, now); err != nil {
		metrics.RecordBooking(metrics.BookingInvalid)
		return nil, err
	}

	// 4. Plan ceiling
	tier, err := s.catalog.PlanTier(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.limiter.Check(ctx, b.ID, tier, now); err != nil {
		if errors.Is(err, quota.ErrQuotaExceeded) {
			metrics.RecordBooking(metrics.BookingQuota)
			metrics.RecordQuotaDenied(string(tier))
			s.logger.Info("booking denied by quota",
				zap.String("business_id", b.ID),
				zap.String("tier", string(tier)),
			)
		}
		return nil, err
	}

	// 5. Exclusive insert
	a := &Appointment{
		BusinessID:      b.ID,
		ServiceID:       svc.ID,
		ServiceName:     svc.Name,
		DurationMinutes: svc.DurationMinutes,
		Price:           svc.Price,
		ClientName:      req.ClientName,
		ClientContact:   req.ClientContact,
		ClientEmail:     req.ClientEmail,
		StartTime:       start,
		EndTime:         start.Add(svc.Duration()),
		Status:          StatusPending,
	}
	if err := s.insert(ctx, a); err != nil {
		switch {
		case errors.Is(err, ErrConflict):
			metrics.RecordBooking(metrics.BookingConflict)
		default:
			metrics.RecordBooking(metrics.BookingFailed)
		}
		return nil, err
	}

	metrics.RecordBooking(metrics.BookingCreated)
	s.logger.Info("appointment created",
		zap.String("appointment_id", a.ID),
		zap.String("business_id", a.BusinessID),
		zap.String("status", string(a.Status)),
		zap.Time("start_time", a.StartTime),
	)

	// 6. Notify after commit
	s.notify(ctx, a, notification.KindCreated)
	return a, nil
}

// insert runs the booking transaction, drawing a fresh client code whenever
// the previous one collides.
func (s *service) insert(ctx context.Context, a *Appointment) error {
	guard := func(active []*Appointment) error {
		for _, other := range active {
			if calendar.Overlaps(a.Interval(), other.Interval()) {
				return ErrConflict
			}
		}
		return nil
	}

	for attempt := 0; attempt < maxClientCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return err
		}
		a.ClientCode = code

		_, err = retry.Do(ctx, s.retry, db.IsTransient, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.repo.CreateExclusive(ctx, a, guard)
		})
		if errors.Is(err, ErrClientCodeTaken) {
			s.logger.Warn("client code collision, regenerating",
				zap.String("business_id", a.BusinessID),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		if err != nil {
			return db.Unavailable(err)
		}
		return nil
	}
	return ErrClientCodeExhausted
}

func (s *service) normalize(req *CreateRequest) error {
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.ClientContact = strings.TrimSpace(req.ClientContact)
	req.ClientEmail = strings.TrimSpace(req.ClientEmail)

	switch {
	case req.BusinessID == "" || req.ServiceID == "" || req.StartTime.IsZero():
		return ErrValidation
	case req.ClientName == "":
		return ErrClientNameRequired
	case len([]rune(req.ClientName)) > maxClientNameLength:
		return ErrClientNameTooLong
	case req.ClientContact == "":
		return ErrClientContactRequired
	case len([]rune(req.ClientContact)) > maxClientContactLength:
		return ErrClientContactTooLong
	}
	if req.ClientEmail != "" {
		if err := s.validate.Var(req.ClientEmail, "email"); err != nil {
			return ErrInvalidClientEmail
		}
	}
	return nil
}

func (s *service) ChangeStatus(ctx context.Context, req StatusChangeRequest) (*Appointment, error) {
	to, err := ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	a, err := s.read(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if req.BusinessID != "" && a.BusinessID != req.BusinessID {
		return nil, ErrNotFound
	}
	if err := s.authorize(ctx, a, req.ActorID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxStatusAttempts; attempt++ {
		from := a.Status
		if err := Transition(from, to); err != nil {
			return nil, err
		}

		updated, err := s.repo.UpdateStatus(ctx, a.ID, from, to)
		if err == nil {
			metrics.RecordStatusChange(string(from), string(to))
			s.logger.Info("appointment status changed",
				zap.String("appointment_id", updated.ID),
				zap.String("business_id", updated.BusinessID),
				zap.String("from", string(from)),
				zap.String("status", string(to)),
			)
			s.notify(ctx, updated, kindFor(to))
			return updated, nil
		}
		if !errors.Is(err, errStatusChanged) {
			return nil, db.Unavailable(err)
		}

		// Lost a race; validate again against what won.
		if a, err = s.read(ctx, a.ID); err != nil {
			return nil, err
		}
	}
	return nil, ErrConcurrentUpdate
}

func (s *service) authorize(ctx context.Context, a *Appointment, actorID string) error {
	ok, err := s.catalog.IsOwner(ctx, a.BusinessID, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

func (s *service) Get(ctx context.Context, id, actorID string) (*Appointment, error) {
	a, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, a, actorID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Appointment, int, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, 0, ErrInvalidTimeRange
	}

	type page struct {
		items []*Appointment
		total int
	}
	p, err := retry.Do(ctx, s.retry, db.IsTransient, func(ctx context.Context) (page, error) {
		items, total, err := s.repo.List(ctx, filter)
		return page{items: items, total: total}, err
	})
	if err != nil {
		return nil, 0, db.Unavailable(err)
	}
	return p.items, p.total, nil
}

func (s *service) Lookup(ctx context.Context, businessID, code, contact string) (*Appointment, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	contact = strings.TrimSpace(contact)
	if code == "" || contact == "" {
		return nil, ErrValidation
	}

	a, err := retry.Do(ctx, s.retry, db.IsTransient, func(ctx context.Context) (*Appointment, error) {
		return s.repo.GetByClientCode(ctx, businessID, code)
	})
	if err != nil {
		return nil, db.Unavailable(err)
	}
	// A wrong contact is indistinguishable from an unknown code.
	if !strings.EqualFold(a.ClientContact, contact) {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *service) ListBusy(ctx context.Context, businessID string, from, to time.Time) ([]calendar.Interval, error) {
	active, err := retry.Do(ctx, s.retry, db.IsTransient, func(ctx context.Context) ([]*Appointment, error) {
		return s.repo.ListActive(ctx, businessID, from, to)
	})
	if err != nil {
		return nil, db.Unavailable(err)
	}

	busy := make([]calendar.Interval, len(active))
	for i, a := range active {
		busy[i] = a.Interval()
	}
	return busy, nil
}

func (s *service) read(ctx context.Context, id string) (*Appointment, error) {
	a, err := retry.Do(ctx, s.retry, db.IsTransient, func(ctx context.Context) (*Appointment, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, db.Unavailable(err)
	}
	return a, nil
}

// notify emits exactly one event. The request context is detached so that a
// client hanging up does not cancel delivery.
func (s *service) notify(ctx context.Context, a *Appointment, kind notification.Kind) {
	s.dispatcher.Dispatch(context.WithoutCancel(ctx), notification.Event{
		ID:            uuid.NewString(),
		Kind:          kind,
		AppointmentID: a.ID,
		BusinessID:    a.BusinessID,
		Status:        string(a.Status),
		ClientName:    a.ClientName,
		ClientContact: a.ClientContact,
		ClientEmail:   a.ClientEmail,
		ClientCode:    a.ClientCode,
		ServiceName:   a.ServiceName,
		StartTime:     a.StartTime,
		Channel:       channelFor(a, kind),
		OccurredAt:    time.Now().UTC(),
	})
}

func kindFor(to Status) notification.Kind {
	switch to {
	case StatusConfirmed:
		return notification.KindConfirmed
	case StatusRejected:
		return notification.KindRejected
	case StatusCancelled:
		return notification.KindCancelled
	case StatusCompleted:
		return notification.KindCompleted
	}
	return notification.KindCreated
}

// channelFor routes client-facing events by the contact details on file.
// Completion is bookkeeping and never reaches the client.
func channelFor(a *Appointment, kind notification.Kind) notification.Channel {
	if kind == notification.KindCompleted {
		return notification.ChannelInternal
	}
	if a.ClientEmail != "" {
		return notification.ChannelEmail
	}
	return notification.ChannelSMS
}
