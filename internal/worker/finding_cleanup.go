package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/health-assistant/internal/repository"
	"github.com/jwalitptl/health-assistant/pkg/logger"
)

type FindingCleanupWorker struct {
	repo            repository.FindingLogRepository
	retention       time.Duration
	cleanupInterval time.Duration
	logger          *logger.Logger
	now             func() time.Time
}

func NewFindingCleanupWorker(repo repository.FindingLogRepository, retention, cleanupInterval time.Duration, log *logger.Logger) *FindingCleanupWorker {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Hour
	}
	if log == nil {
		log = logger.Nop()
	}
	return &FindingCleanupWorker{
		repo:            repo,
		retention:       retention,
		cleanupInterval: cleanupInterval,
		logger:          log,
		now:             time.Now,
	}
}

// Start prunes the findings log every interval until ctx is done. A zero
// retention disables pruning.
func (w *FindingCleanupWorker) Start(ctx context.Context) {
	if w.retention <= 0 {
		w.logger.Info("Finding log retention disabled")
		return
	}

	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Cleanup(ctx); err != nil {
				w.logger.Error(err, "Error cleaning up finding logs")
			}
		}
	}
}

// Cleanup runs one pruning pass.
func (w *FindingCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.Cleanup(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup finding logs: %w", err)
	}

	w.logger.Info("Cleaned up finding logs", "rows", rows, "cutoff", cutoff.Format(time.RFC3339))
	return rows, nil
}
