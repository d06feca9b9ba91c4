package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/internal/repository"

	"github.com/jwalitptl/health-assistant/pkg/logger"
	"github.com/jwalitptl/health-assistant/pkg/messaging"
	"github.com/jwalitptl/health-assistant/pkg/metrics"
)

type FindingLoggerConfig struct {
	Channel       string
	RetryAttempts int
	RetryDelay    time.Duration
}

// FindingLogger persists urgent finding events published by the API.
type FindingLogger struct {
	repo    repository.FindingLogRepository
	broker  messaging.Broker
	config  FindingLoggerConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewFindingLogger(
	repo repository.FindingLogRepository,
	broker messaging.Broker,
	config FindingLoggerConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *FindingLogger {
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 1
	}

	return &FindingLogger{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// Start consumes the findings channel until ctx is cancelled.
func (w *FindingLogger) Start(ctx context.Context) error {
	w.logger.Info("Starting finding logger", "channel", w.config.Channel)
	err := messaging.Consume(ctx, w.broker, w.config.Channel, w.logger, w.Handle)
	if err == context.Canceled {
		w.logger.Info("Shutting down finding logger")
		return nil
	}
	return err
}

// Handle decodes and stores one event.
func (w *FindingLogger) Handle(ctx context.Context, payload []byte) error {
	var event model.FindingEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		w.metrics.ObserveFindingEvent(err)
		return fmt.Errorf("failed to decode finding event: %w", err)
	}
	if event.ID == "" || event.UserID == "" || event.Rule == "" {
		err := fmt.Errorf("incomplete finding event %q", event.ID)
		w.metrics.ObserveFindingEvent(err)
		return err
	}

	err := retry(ctx, w.config.RetryAttempts, w.config.RetryDelay, func() error {
		return w.repo.Log(ctx, &event)
	})
	w.metrics.ObserveFindingEvent(err)
	if err != nil {
		return fmt.Errorf("failed to store finding event %s: %w", event.ID, err)
	}

	w.logger.Debug("Finding logged", "event_id", event.ID, "user_id", event.UserID, "rule", event.Rule)
	return nil
}

// Helper retry function
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}
