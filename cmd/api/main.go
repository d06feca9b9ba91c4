package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/health-assistant/config"
	assistantHandler "github.com/jwalitptl/health-assistant/internal/handler/assistant"
	findingsHandler "github.com/jwalitptl/health-assistant/internal/handler/findings"
	"github.com/jwalitptl/health-assistant/internal/handler/health"
	"github.com/jwalitptl/health-assistant/internal/handler/prometheus"
	recommendationHandler "github.com/jwalitptl/health-assistant/internal/handler/recommendation"
	referenceHandler "github.com/jwalitptl/health-assistant/internal/handler/reference"
	rulesHandler "github.com/jwalitptl/health-assistant/internal/handler/rules"
	"github.com/jwalitptl/health-assistant/internal/middleware"
	"github.com/jwalitptl/health-assistant/internal/repository/postgres"
	redisRepo "github.com/jwalitptl/health-assistant/internal/repository/redis"
	"github.com/jwalitptl/health-assistant/internal/router"
	"github.com/jwalitptl/health-assistant/internal/service/assistant"
	"github.com/jwalitptl/health-assistant/internal/service/intent"
	"github.com/jwalitptl/health-assistant/internal/service/medical"
	"github.com/jwalitptl/health-assistant/internal/service/recommendation"
	"github.com/jwalitptl/health-assistant/internal/service/rules"
	"github.com/jwalitptl/health-assistant/pkg/auth"
	"github.com/jwalitptl/health-assistant/pkg/circuitbreaker"
	"github.com/jwalitptl/health-assistant/pkg/logger"
	"github.com/jwalitptl/health-assistant/pkg/messaging/redis"
	"github.com/jwalitptl/health-assistant/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger(nil).Fatal(err, "failed to load configuration")
	}

	log := logger.NewLogger(&logger.Config{
		Level: logger.ParseLevel(cfg.Log.Level),
		JSON:  cfg.Log.JSON,
	})

	ctx := context.Background()

	ref, err := config.LoadReference(cfg.Reference.File)
	if err != nil {
		log.Fatal(err, "failed to load reference data", "file", cfg.Reference.File)
	}
	matcher, err := intent.NewMatcher(ref)
	if err != nil {
		log.Fatal(err, "failed to compile intent patterns")
	}

	// Initialize database
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	baseRepo := postgres.NewBaseRepository(db)
	if err := baseRepo.CreateSchema(ctx); err != nil {
		log.Fatal(err, "failed to create schema")
	}

	// Initialize Redis
	redisClient, err := redis.NewClient(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		log.Fatal(err, "failed to connect to Redis")
	}
	defer redisClient.Close()

	// the broker shares redisClient, which is closed above
	broker := redis.NewRedisBroker(redisClient, log)

	metricsH := prometheus.New("health_assistant")
	m := metricsH.Metrics()

	// Initialize repositories
	recordRepo := postgres.NewMedicalRecordRepository(baseRepo)
	var conversationOpts []redisRepo.Option
	if cfg.Redis.EncryptionKey != "" {
		encryptor, err := security.NewAESEncryptorFromBase64(cfg.Redis.EncryptionKey)
		if err != nil {
			log.Fatal(err, "invalid conversation encryption key")
		}
		conversationOpts = append(conversationOpts, redisRepo.WithEncryptor(encryptor))
	} else {
		log.Warn("conversation messages are stored unencrypted")
	}
	conversationRepo := redisRepo.NewConversationRepository(redisClient, cfg.Redis.ConversationTTL, conversationOpts...)

	// Initialize services
	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:                "record-store",
		MaxRequests:         cfg.Breaker.MaxRequests,
		Interval:            cfg.Breaker.Interval,
		Timeout:             cfg.Breaker.Timeout,
		ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
		OnStateChange: func(name, from, to string) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from, "to", to)
		},
	})
	recordSvc := medical.NewService(recordRepo, breaker, medical.Config{
		Timeout:     cfg.Assistant.CallTimeout,
		RecentLimit: cfg.Assistant.RecentLimit,
		FetchLimit:  cfg.Recommendation.FetchLimit,
	}, m)

	evaluator := rules.NewEvaluator(log, m)
	recommendationSvc := recommendation.NewService(recordSvc, evaluator, broker, recommendation.Config{
		DefaultLimit:  cfg.Recommendation.DefaultLimit,
		MaxDistinct:   cfg.Recommendation.MaxDistinct,
		CacheTTL:      cfg.Recommendation.CacheTTL,
		UrgentChannel: cfg.Recommendation.UrgentChannel,
	}, log, m)

	orchestrator := assistant.NewOrchestrator(ref, matcher, recordSvc, recommendationSvc, assistant.Config{
		RecentLimit:         cfg.Assistant.RecentLimit,
		RecommendationLimit: cfg.Assistant.RecommendationLimit,
		DefaultSuggestions:  cfg.Assistant.DefaultSuggestions,
		HealthTips:          cfg.Assistant.HealthTips,
	}, log, m)
	assistantSvc := assistant.NewService(orchestrator, conversationRepo, log)

	// Initialize middleware
	jwtManager := auth.NewJWTManager(cfg.JWT)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	validation := middleware.DefaultValidationConfig()
	validation.CustomValidators = map[string]validator.Func{
		"doctype": middleware.DocumentTypeRule(ref),
	}
	if err := middleware.RegisterValidators(validation); err != nil {
		log.Fatal(err, "failed to register validators")
	}

	// Initialize handlers
	healthH := health.NewHandler(map[string]health.Pinger{
		"database": health.PingerFunc(baseRepo.Ping),
		"redis": health.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	})

	r := router.NewRouter(
		log,
		authMiddleware,
		healthH,
		metricsH,
		[]router.Handler{
			referenceHandler.NewHandler(ref),
			rulesHandler.NewHandler(evaluator, matcher),
		},
		[]router.Handler{
			assistantHandler.NewHandler(assistantSvc),
			recommendationHandler.NewHandler(recommendationSvc),
			findingsHandler.NewHandler(postgres.NewFindingLogRepository(baseRepo)),
		},
		router.RouterConfig{
			Mode:             cfg.Server.Mode,
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			RequestTimeout:   cfg.Server.WriteTimeout,
			CORSConfig: middleware.CORSConfig{
				AllowOrigins: cfg.Server.CORSOrigins,
				MaxAge:       cfg.Server.CORSMaxAge,
			},
			SizeLimit:        middleware.DefaultSizeLimitConfig(),
			Validation:       validation,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}
