package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/nekogravitycat/appointment-booking-backend/internal/db"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/retry"
	"github.com/nekogravitycat/appointment-booking-backend/internal/quota"
)

// Catalog is the read-only view of businesses and their services used by the
// scheduling engine. Lookups are cached for a short TTL.
type Catalog interface {
	GetBusiness(ctx context.Context, id string) (*Business, error)
	// GetService returns a service of the business, active or not.
	GetService(ctx context.Context, businessID, serviceID string) (*Service, error)
	// GetActiveService is GetService that also rejects deactivated services.
	GetActiveService(ctx context.Context, businessID, serviceID string) (*Service, error)
	ListServices(ctx context.Context, businessID string, activeOnly bool) ([]*Service, error)
	// PlanTier resolves the quota tier of a business.
	PlanTier(ctx context.Context, businessID string) (quota.Tier, error)
	IsOwner(ctx context.Context, businessID, userID string) (bool, error)
}

// Config tunes the catalog cache.
type Config struct {
	CacheSize int
	CacheTTL  time.Duration
	Retry     retry.Policy
}

type service struct {
	repo       Repository
	logger     *zap.Logger
	retry      retry.Policy
	businesses *expirable.LRU[string, *Business]
	services   *expirable.LRU[string, *Service]
}

func NewCatalog(repo Repository, logger *zap.Logger, cfg Config) Catalog {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}
	return &service{
		repo:       repo,
		logger:     logger,
		retry:      cfg.Retry,
		businesses: expirable.NewLRU[string, *Business](cfg.CacheSize, nil, cfg.CacheTTL),
		services:   expirable.NewLRU[string, *Service](cfg.CacheSize, nil, cfg.CacheTTL),
	}
}

func (s *service) GetBusiness(ctx context.Context, id string) (*Business, error) {
	if b, ok := s.businesses.Get(id); ok {
		return b, nil
	}

	b, err := retry.Do(ctx, s.retry, db.IsTransient, func(ctx context.Context) (*Business, error) {
		return s.repo.GetBusiness(ctx, id)
	})
	if err != nil {
		return nil, db.Unavailable(err)
	}

	// Bad hours never fail a read; the affected days simply have no availability.
	if err := b.Schedule.Validate(); err != nil {
		s.logger.Warn("business has malformed working hours",
			zap.String("business_id", b.ID),
			zap.Error(err),
		)
	}

	s.businesses.Add(id, b)
	return b, nil
}

func (s *service) GetService(ctx context.Context, businessID, serviceID string) (*Service, error) {
	svc, ok := s.services.Get(serviceID)
	if !ok {
		var err error
		svc, err = retry.Do(ctx, s.retry, db.IsTransient, func(ctx context.Context) (*Service, error) {
			return s.repo.GetService(ctx, serviceID)
		})
		if err != nil {
			return nil, db.Unavailable(err)
		}
		s.services.Add(serviceID, svc)
	}

	if svc.BusinessID != businessID {
		return nil, ErrServiceNotFound
	}
	return svc, nil
}

func (s *service) GetActiveService(ctx context.Context, businessID, serviceID string) (*Service, error) {
	svc, err := s.GetService(ctx, businessID, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive || svc.DurationMinutes <= 0 {
		return nil, ErrServiceInactive
	}
	return svc, nil
}

func (s *service) ListServices(ctx context.Context, businessID string, activeOnly bool) ([]*Service, error) {
	if _, err := s.GetBusiness(ctx, businessID); err != nil {
		return nil, err
	}

	services, err := retry.Do(ctx, s.retry, db.IsTransient, func(ctx context.Context) ([]*Service, error) {
		return s.repo.ListServices(ctx, ServiceFilter{BusinessID: businessID, ActiveOnly: activeOnly})
	})
	if err != nil {
		return nil, db.Unavailable(err)
	}
	return services, nil
}

func (s *service) PlanTier(ctx context.Context, businessID string) (quota.Tier, error) {
	b, err := s.GetBusiness(ctx, businessID)
	if err != nil {
		return "", err
	}

	tier, err := quota.ParseTier(b.Plan)
	if err != nil {
		if !errors.Is(err, quota.ErrUnknownTier) {
			return "", err
		}
		// Unknown plans get the free policy rather than an unlimited one.
		s.logger.Warn("unknown plan tier, applying free tier policy",
			zap.String("business_id", businessID),
			zap.String("plan", b.Plan),
		)
		return quota.TierFree, nil
	}
	return tier, nil
}

func (s *service) IsOwner(ctx context.Context, businessID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	b, err := s.GetBusiness(ctx, businessID)
	if err != nil {
		return false, err
	}
	return b.OwnerID == userID, nil
}
