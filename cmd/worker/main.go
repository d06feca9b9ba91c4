package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/health-assistant/config"
	"github.com/jwalitptl/health-assistant/internal/handler/health"
	"github.com/jwalitptl/health-assistant/internal/handler/prometheus"
	"github.com/jwalitptl/health-assistant/internal/repository/postgres"
	cleanupWorker "github.com/jwalitptl/health-assistant/internal/worker"
	"github.com/jwalitptl/health-assistant/pkg/logger"
	"github.com/jwalitptl/health-assistant/pkg/messaging/redis"
	"github.com/jwalitptl/health-assistant/pkg/worker"
)

// healthPort serves liveness, readiness and metrics for the worker.
const healthPort = 8081

func setupHealthCheck(log *logger.Logger, healthH *health.Handler, metricsH *prometheus.Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	healthH.RegisterRoutes(engine)
	engine.GET("/metrics", metricsH.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", healthPort),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "Health check server failed")
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger(nil).Fatal(err, "Failed to load config")
	}

	log := logger.NewLogger(&logger.Config{
		Level: logger.ParseLevel(cfg.Log.Level),
		JSON:  cfg.Log.JSON,
	}).WithFields(map[string]interface{}{"component": "finding-logger"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	baseRepo := postgres.NewBaseRepository(db)
	if err := baseRepo.CreateSchema(ctx); err != nil {
		log.Fatal(err, "Failed to create schema")
	}

	// Initialize Redis broker
	redisClient, err := redis.NewClient(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		log.Fatal(err, "Failed to connect to Redis")
	}
	broker := redis.NewRedisBroker(redisClient, log)
	defer broker.Close()

	metricsH := prometheus.New("health_assistant")

	findingRepo := postgres.NewFindingLogRepository(baseRepo)
	processor := worker.NewFindingLogger(
		findingRepo,
		broker,
		worker.FindingLoggerConfig{
			Channel:       cfg.Recommendation.UrgentChannel,
			RetryAttempts: cfg.Worker.RetryAttempts,
			RetryDelay:    cfg.Worker.RetryDelay,
		},
		log,
		metricsH.Metrics(),
	)

	healthSrv := setupHealthCheck(log, health.NewHandler(map[string]health.Pinger{
		"database": health.PingerFunc(baseRepo.Ping),
		"redis": health.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	}), metricsH)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down...")
		cancel()
	}()

	cleanup := cleanupWorker.NewFindingCleanupWorker(findingRepo, cfg.Worker.Retention, cfg.Worker.CleanupInterval, log)
	go cleanup.Start(ctx)

	if err := processor.Start(ctx); err != nil {
		log.Error(err, "Finding logger stopped")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	_ = healthSrv.Shutdown(shutdownCtx)
}
