package recommendation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/internal/service/rules"
	"github.com/jwalitptl/health-assistant/pkg/logger"
	"github.com/jwalitptl/health-assistant/pkg/messaging"
	"github.com/jwalitptl/health-assistant/pkg/metrics"
)

// RecordFetcher loads the records a recommendation run is based on.
type RecordFetcher interface {
	FetchRecordsForRecommendations(ctx context.Context, userID, docType string) ([]*model.MedicalRecord, error)
}

type Config struct {
	DefaultLimit int
	MaxDistinct  int
	// CacheTTL of zero disables result caching.
	CacheTTL time.Duration
	// UrgentChannel receives a FindingEvent for every urgent finding of a
	// freshly computed result. Empty disables publishing.
	UrgentChannel string
}

type Service struct {
	records   RecordFetcher
	evaluator *rules.Evaluator
	publisher messaging.Publisher
	cache     *cache.Cache
	config    Config
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewService(
	records RecordFetcher,
	evaluator *rules.Evaluator,
	publisher messaging.Publisher,
	config Config,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 10
	}
	if log == nil {
		log = logger.Nop()
	}

	s := &Service{
		records:   records,
		evaluator: evaluator,
		publisher: publisher,
		config:    config,
		logger:    log,
		metrics:   m,
	}
	if config.CacheTTL > 0 {
		s.cache = cache.New(config.CacheTTL, 2*config.CacheTTL)
	}
	return s
}

// Recommend returns up to limit distinct findings across the user's records
// of docType, most severe first. limit <= 0 selects the default.
func (s *Service) Recommend(ctx context.Context, userID, docType string, limit int) ([]model.Finding, error) {
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}

	key := cacheKey(userID, docType, limit)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			s.metrics.ObserveCache(true)
			return copyFindings(cached.([]model.Finding)), nil
		}
		s.metrics.ObserveCache(false)
	}

	records, err := s.records.FetchRecordsForRecommendations(ctx, userID, docType)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	findings := Aggregate(s.evaluator, userID, records, s.config.MaxDistinct, limit)

	if s.cache != nil {
		s.cache.SetDefault(key, copyFindings(findings))
	}
	s.publishUrgent(ctx, userID, docType, findings)

	return findings, nil
}

// publishUrgent is best effort; a broker outage never fails a recommendation.
func (s *Service) publishUrgent(ctx context.Context, userID, docType string, findings []model.Finding) {
	if s.publisher == nil || s.config.UrgentChannel == "" {
		return
	}
	now := time.Now().UTC()
	for _, f := range findings {
		if f.Severity != model.SeverityUrgent {
			continue
		}
		event := model.NewFindingEvent(uuid.NewString(), userID, docType, f, now)
		if err := s.publisher.Publish(ctx, s.config.UrgentChannel, event); err != nil {
			s.logger.WithContext(ctx).Warn("failed to publish urgent finding",
				"user_id", userID, "rule", f.Rule, "error", err.Error())
		}
	}
}

func cacheKey(userID, docType string, limit int) string {
	return fmt.Sprintf("%s|%s|%d", userID, strings.ToLower(strings.TrimSpace(docType)), limit)
}

func copyFindings(in []model.Finding) []model.Finding {
	if in == nil {
		return nil
	}
	out := make([]model.Finding, len(in))
	copy(out, in)
	return out
}
