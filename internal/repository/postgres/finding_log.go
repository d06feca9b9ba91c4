package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/internal/repository"
)

type findingLogRepository struct {
	BaseRepository
}

func NewFindingLogRepository(base BaseRepository) repository.FindingLogRepository {
	return &findingLogRepository{base}
}

// Log stores an urgent finding. Re-delivery of the same finding for the same
// record is ignored.
func (r *findingLogRepository) Log(ctx context.Context, event *model.FindingEvent) error {
	if event == nil {
		return fmt.Errorf("finding event cannot be nil")
	}

	query := `
		INSERT INTO finding_logs (
			id, user_id, record_id, doc_type, rule, severity, text, occurred_at
		) VALUES (
			:id, :user_id, :record_id, :doc_type, :rule, :severity, :text, :occurred_at
		)
		ON CONFLICT (user_id, record_id, rule, text) DO NOTHING
	`
	if _, err := r.GetDB().NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("failed to log finding: %w", err)
	}
	return nil
}

func (r *findingLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.FindingEvent, error) {
	query := `
		SELECT id, user_id, record_id, doc_type, rule, severity, text, occurred_at
		FROM finding_logs
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`
	var events []*model.FindingEvent
	if err := r.GetDB().SelectContext(ctx, &events, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list finding logs: %w", err)
	}
	return events, nil
}

func (r *findingLogRepository) Cleanup(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.GetDB().ExecContext(ctx, `DELETE FROM finding_logs WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up finding logs: %w", err)
	}
	return res.RowsAffected()
}
