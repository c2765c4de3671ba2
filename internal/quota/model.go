package quota

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nekogravitycat/appointment-booking-backend/internal/calendar"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/apperror"
)

var (
	ErrQuotaExceeded = apperror.New(http.StatusPaymentRequired, "appointment quota exceeded for the current plan")
	ErrUnknownTier   = errors.New("unknown plan tier")
)

// Tier is a subscription plan of a business.
type Tier string

const (
	TierTrial   Tier = "trial"
	TierFree    Tier = "free"
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
)

// WindowKind is the period over which a plan's appointments are counted.
type WindowKind string

const (
	Daily   WindowKind = "daily"
	Monthly WindowKind = "monthly"
)

// Policy is the booking ceiling of a tier. A zero MaxAppointments means unlimited.
type Policy struct {
	Tier            Tier
	Window          WindowKind
	MaxAppointments int
}

var policies = map[Tier]Policy{
	TierTrial:   {Tier: TierTrial, Window: Daily, MaxAppointments: 10},
	TierFree:    {Tier: TierFree, Window: Monthly, MaxAppointments: 30},
	TierBasic:   {Tier: TierBasic, Window: Monthly, MaxAppointments: 300},
	TierPremium: {Tier: TierPremium, Window: Monthly},
}

// ParseTier maps a stored plan name onto a known tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := policies[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return t, nil
}

// PolicyFor returns the policy of a tier.
func PolicyFor(t Tier) (Policy, error) {
	p, ok := policies[t]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}
	return p, nil
}

// Unlimited reports whether the policy has no ceiling.
func (p Policy) Unlimited() bool {
	return p.MaxAppointments <= 0
}

// Window is a half-open counting period [Start, End) in civil time.
type Window struct {
	Kind  WindowKind
	Start time.Time
	End   time.Time
}

// WindowAt returns the calendar period containing now.
func (p Policy) WindowAt(now time.Time) Window {
	day := calendar.Date(now)
	if p.Window == Daily {
		return Window{Kind: Daily, Start: day, End: day.AddDate(0, 0, 1)}
	}
	start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Window{Kind: Monthly, Start: start, End: start.AddDate(0, 1, 0)}
}

// Usage is the consumption of a business in its current window.
type Usage struct {
	Tier   Tier
	Window Window
	Used   int
	Limit  int // 0 when unlimited
}

// Remaining returns how many bookings are still allowed, or -1 when unlimited.
func (u Usage) Remaining() int {
	if u.Limit <= 0 {
		return -1
	}
	if u.Used >= u.Limit {
		return 0
	}
	return u.Limit - u.Used
}

// ExceededError describes which ceiling was hit, so callers can present an upgrade path.
type ExceededError struct {
	Tier   Tier
	Window WindowKind
	Limit  int
	Used   int
	Resets time.Time
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("%s plan allows %d appointments per %s window", e.Tier, e.Limit, e.windowName())
}

func (e *ExceededError) Unwrap() error {
	return ErrQuotaExceeded
}

func (e *ExceededError) windowName() string {
	if e.Window == Daily {
		return "day"
	}
	return "month"
}

// ExceededDetails is the client-facing body of a quota denial.
type ExceededDetails struct {
	Tier   Tier       `json:"tier"`
	Window WindowKind `json:"window"`
	Limit  int        `json:"limit"`
	Used   int        `json:"used"`
	Resets time.Time  `json:"resets_at"`
}

// exceeded builds the error returned to callers. It is both an *apperror.AppError
// (HTTP 402 with details) and unwraps to *ExceededError and ErrQuotaExceeded.
func exceeded(u *Usage) error {
	e := &ExceededError{
		Tier:   u.Tier,
		Window: u.Window.Kind,
		Limit:  u.Limit,
		Used:   u.Used,
		Resets: u.Window.End,
	}
	return apperror.Wrap(e, ErrQuotaExceeded.Code, e.Error()).WithDetails(ExceededDetails{
		Tier:   e.Tier,
		Window: e.Window,
		Limit:  e.Limit,
		Used:   e.Used,
		Resets: e.Resets,
	})
}
