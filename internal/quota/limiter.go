package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/nekogravitycat/appointment-booking-backend/internal/db"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/retry"
)

// Counter counts the appointments of a business whose start time falls in
// [from, to), ignoring cancelled ones.
type Counter interface {
	CountQualifying(ctx context.Context, businessID string, from, to time.Time) (int, error)
}

// Limiter enforces plan-tier booking ceilings.
type Limiter interface {
	// Check returns the current usage, or a quota error when the ceiling is reached.
	Check(ctx context.Context, businessID string, tier Tier, now time.Time) (*Usage, error)
	// Usage returns the current usage without enforcing anything.
	Usage(ctx context.Context, businessID string, tier Tier, now time.Time) (*Usage, error)
}

type limiter struct {
	counter Counter
	retry   retry.Policy
}

func NewLimiter(counter Counter, retryPolicy retry.Policy) Limiter {
	return &limiter{counter: counter, retry: retryPolicy}
}

func (l *limiter) Check(ctx context.Context, businessID string, tier Tier, now time.Time) (*Usage, error) {
	p, err := PolicyFor(tier)
	if err != nil {
		return nil, err
	}

	w := p.WindowAt(now)
	if p.Unlimited() {
		return &Usage{Tier: tier, Window: w}, nil
	}

	u, err := l.count(ctx, businessID, p, w)
	if err != nil {
		return nil, err
	}
	if u.Used >= u.Limit {
		return u, exceeded(u)
	}
	return u, nil
}

func (l *limiter) Usage(ctx context.Context, businessID string, tier Tier, now time.Time) (*Usage, error) {
	p, err := PolicyFor(tier)
	if err != nil {
		return nil, err
	}
	return l.count(ctx, businessID, p, p.WindowAt(now))
}

func (l *limiter) count(ctx context.Context, businessID string, p Policy, w Window) (*Usage, error) {
	used, err := retry.Do(ctx, l.retry, db.IsTransient, func(ctx context.Context) (int, error) {
		return l.counter.CountQualifying(ctx, businessID, w.Start, w.End)
	})
	if err != nil {
		return nil, fmt.Errorf("count appointments in quota window: %w", db.Unavailable(err))
	}
	return &Usage{Tier: p.Tier, Window: w, Used: used, Limit: p.MaxAppointments}, nil
}
