package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/appointment-booking-backend/internal/appointment"
	appointmentHttp "github.com/nekogravitycat/appointment-booking-backend/internal/appointment/http"
	"github.com/nekogravitycat/appointment-booking-backend/internal/auth"
	"github.com/nekogravitycat/appointment-booking-backend/internal/availability"
	availabilityHttp "github.com/nekogravitycat/appointment-booking-backend/internal/availability/http"
	"github.com/nekogravitycat/appointment-booking-backend/internal/catalog"
	catalogHttp "github.com/nekogravitycat/appointment-booking-backend/internal/catalog/http"
	"github.com/nekogravitycat/appointment-booking-backend/internal/metrics"
	"github.com/nekogravitycat/appointment-booking-backend/internal/quota"
	quotaHttp "github.com/nekogravitycat/appointment-booking-backend/internal/quota/http"
)

// Config collects the services the router exposes.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	Catalog             catalog.Catalog
	AvailabilityService availability.Service
	AppointmentService  appointment.Service
	QuotaLimiter        quota.Limiter
	Now                 func() time.Time

	JWTManager  *auth.JWTManager
	RateLimiter RateLimiter
	Logger      *zap.Logger
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Metrics, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	// - Metrics: Records request count, latency and in-flight requests.
	r.Use(gin.Logger(), gin.Recovery(), metrics.Middleware())

	// Configure CORS (Cross-Origin Resource Sharing).
	// Without any configured origin cross-origin requests are simply not allowed.
	if origins := allowedOrigins(cfg.IsProduction, cfg.ProdOrigins); len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
		r.Use(cors.New(corsConfig))
	}

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// ownerMiddleware: Further checks that the caller owns the business in the path.
	ownerMiddleware := RequireBusinessOwner(cfg.Catalog)
	// rateLimit: Throttles anonymous write and lookup traffic per client IP.
	rateLimit := RateLimit(cfg.RateLimiter, cfg.Logger)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	catalogHandler := catalogHttp.NewHandler(cfg.Catalog)
	availabilityHandler := availabilityHttp.NewHandler(cfg.AvailabilityService)
	appointmentHandler := appointmentHttp.NewHandler(cfg.AppointmentService)
	quotaHandler := quotaHttp.NewHandler(cfg.QuotaLimiter, cfg.Catalog, cfg.Now)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		catalogHttp.RegisterRoutes(v1, catalogHandler)
		availabilityHttp.RegisterRoutes(v1, availabilityHandler)
		appointmentHttp.RegisterRoutes(v1, appointmentHandler, authMiddleware, ownerMiddleware, rateLimit)
		quotaHttp.RegisterRoutes(v1, quotaHandler, authMiddleware, ownerMiddleware)
	}

	return r
}

func allowedOrigins(isProduction bool, prodOrigins string) []string {
	if !isProduction {
		return []string{
			"http://localhost:3000",
			"http://localhost:8081", // Swagger
		}
	}

	var origins []string
	for _, o := range strings.Split(prodOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
