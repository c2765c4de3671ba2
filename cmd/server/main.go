package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/appointment-booking-backend/internal/app"
	"github.com/nekogravitycat/appointment-booking-backend/internal/config"
	"github.com/nekogravitycat/appointment-booking-backend/internal/db"
	"github.com/nekogravitycat/appointment-booking-backend/internal/logger"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet.
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("invalid clock timezone", zap.Error(err))
	}

	if cfg.RunMigrations {
		if err := db.Migrate(cfg.DBDSN); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN, db.PoolConfig{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
		MaxConnIdleTime: 5 * time.Minute,
	})
	if err != nil {
		log.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	container, err := app.NewContainer(app.Config{
		IsProduction:       cfg.IsProduction(),
		ProdOrigins:        cfg.ProdOrigins,
		DBPool:             pool,
		Logger:             log,
		Location:           loc,
		JWTSecret:          cfg.JWTSecret,
		KafkaBrokers:       cfg.KafkaBrokers,
		KafkaTopic:         cfg.KafkaTopic,
		NotifyBuffer:       cfg.NotifyBuffer,
		NotifyWorkers:      cfg.NotifyWorkers,
		RedisURL:           cfg.RedisURL,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CatalogCacheSize:   cfg.CatalogCacheSize,
		CatalogCacheTTL:    cfg.CatalogCacheTTL,
		StoreRetryAttempts: cfg.StoreRetryAttempts,
	})
	if err != nil {
		log.Fatal("failed to build application", zap.Error(err))
	}

	// Notification workers outlive the HTTP server so that events of in-flight
	// requests are still flushed.
	queueCtx, stopQueue := context.WithCancel(context.Background())
	defer stopQueue()
	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		container.Queue.Run(queueCtx)
	}()

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		log.Info("server running", zap.String("addr", cfg.HTTPAddr), zap.String("timezone", loc.String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	log.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced to shutdown", zap.Error(err))
	}

	stopQueue()
	workers.Wait()
	if err := container.Close(); err != nil {
		log.Warn("failed to release resources", zap.Error(err))
	}

	log.Info("server exited gracefully")
}
