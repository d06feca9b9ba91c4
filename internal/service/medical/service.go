package medical

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/internal/repository"
	"github.com/jwalitptl/health-assistant/pkg/circuitbreaker"
	"github.com/jwalitptl/health-assistant/pkg/errors"
	"github.com/jwalitptl/health-assistant/pkg/metrics"
)

const (
	opFetchRecent          = "fetch_recent_records"
	opFetchRecommendations = "fetch_records_for_recommendations"
)

type Config struct {
	// Timeout bounds every call to the record store.
	Timeout     time.Duration
	RecentLimit int
	// FetchLimit caps how many records feed a recommendation run.
	FetchLimit int
}

// Service reads a user's medical records on behalf of the assistant. Every
// call goes through a circuit breaker so an unavailable store fails fast.
type Service struct {
	repo    repository.MedicalRecordRepository
	breaker *circuitbreaker.CircuitBreaker
	config  Config
	metrics *metrics.Metrics
}

func NewService(repo repository.MedicalRecordRepository, breaker *circuitbreaker.CircuitBreaker, config Config, m *metrics.Metrics) *Service {
	if config.RecentLimit <= 0 {
		config.RecentLimit = 10
	}
	return &Service{
		repo:    repo,
		breaker: breaker,
		config:  config,
		metrics: m,
	}
}

// FetchRecentRecords returns the user's most recent records, newest first.
func (s *Service) FetchRecentRecords(ctx context.Context, userID string) ([]*model.MedicalRecord, error) {
	var records []*model.MedicalRecord
	err := s.call(ctx, opFetchRecent, func(ctx context.Context) error {
		var err error
		records, err = s.repo.ListRecent(ctx, userID, s.config.RecentLimit)
		return err
	})
	return records, err
}

// FetchRecordsForRecommendations returns the user's records of docType. An
// empty docType selects every record.
func (s *Service) FetchRecordsForRecommendations(ctx context.Context, userID, docType string) ([]*model.MedicalRecord, error) {
	filters := &model.RecordFilters{DocType: docType, Limit: s.config.FetchLimit}

	var records []*model.MedicalRecord
	err := s.call(ctx, opFetchRecommendations, func(ctx context.Context) error {
		var err error
		records, err = s.repo.List(ctx, userID, filters)
		return err
	})
	return records, err
}

func (s *Service) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	run := func() error { return fn(ctx) }

	var err error
	if s.breaker != nil {
		err = s.breaker.Execute(run)
	} else {
		err = run()
	}
	s.metrics.ObserveCall(op, start, err)

	if err != nil {
		if circuitbreaker.IsOpen(err) {
			return errors.Unavailable("record store", err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
