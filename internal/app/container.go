package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nekogravitycat/appointment-booking-backend/internal/api"
	"github.com/nekogravitycat/appointment-booking-backend/internal/appointment"
	"github.com/nekogravitycat/appointment-booking-backend/internal/auth"
	"github.com/nekogravitycat/appointment-booking-backend/internal/availability"
	"github.com/nekogravitycat/appointment-booking-backend/internal/calendar"
	"github.com/nekogravitycat/appointment-booking-backend/internal/catalog"
	"github.com/nekogravitycat/appointment-booking-backend/internal/notification"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/retry"
	"github.com/nekogravitycat/appointment-booking-backend/internal/quota"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	Logger       *zap.Logger
	Location     *time.Location

	JWTSecret string

	KafkaBrokers  string
	KafkaTopic    string
	NotifyBuffer  int
	NotifyWorkers int

	RedisURL           string
	RateLimitPerMinute int

	CatalogCacheSize   int
	CatalogCacheTTL    time.Duration
	StoreRetryAttempts uint
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Queue      *notification.Queue

	redis *redis.Client
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	now := calendar.NowIn(loc)

	retryPolicy := retry.DefaultPolicy()
	if cfg.StoreRetryAttempts > 0 {
		retryPolicy.Attempts = cfg.StoreRetryAttempts
	}

	// Init Components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret)

	// Catalog Module
	catalogRepo := catalog.NewPgxRepository(cfg.DBPool)
	catalogService := catalog.NewCatalog(catalogRepo, logger.Named("catalog"), catalog.Config{
		CacheSize: cfg.CatalogCacheSize,
		CacheTTL:  cfg.CatalogCacheTTL,
		Retry:     retryPolicy,
	})

	// Quota Module: counts come straight from the appointment store.
	appointmentRepo := appointment.NewPgxRepository(cfg.DBPool)
	limiter := quota.NewLimiter(appointmentRepo, retryPolicy)

	// Notification Module
	var sink notification.Sink
	if brokers := notification.SplitBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		sink = notification.NewKafkaSink(brokers, cfg.KafkaTopic)
		logger.Info("publishing appointment events to kafka",
			zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		sink = notification.NewLogSink(logger.Named("events"))
	}
	queue := notification.NewQueue(sink, logger.Named("notification"), notification.QueueConfig{
		Buffer:  cfg.NotifyBuffer,
		Workers: cfg.NotifyWorkers,
		Retry:   retryPolicy,
	})

	// Appointment Module
	appointmentService := appointment.NewService(
		appointmentRepo,
		catalogService,
		limiter,
		queue,
		logger.Named("appointment"),
		appointment.Options{Now: now, Retry: retryPolicy},
	)

	// Availability Module
	availabilityService := availability.NewService(catalogService, appointmentService, now)

	// Rate limiting
	var (
		rateLimiter api.RateLimiter
		rdb         *redis.Client
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis not reachable yet, rate limiting fails open until it is", zap.Error(err))
		}
		rateLimiter = api.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute)
	} else {
		rateLimiter = api.NewMemoryRateLimiter(cfg.RateLimitPerMinute)
	}

	// API Router Config
	routerParams := api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		Catalog:             catalogService,
		AvailabilityService: availabilityService,
		AppointmentService:  appointmentService,
		QuotaLimiter:        limiter,
		Now:                 now,
		JWTManager:          jwtManager,
		RateLimiter:         rateLimiter,
		Logger:              logger,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Queue:      queue,
		redis:      rdb,
	}, nil
}

// Close releases the outbound clients. The queue must have stopped running.
func (c *Container) Close() error {
	var errs []error
	if err := c.Queue.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close notification sink: %w", err))
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
