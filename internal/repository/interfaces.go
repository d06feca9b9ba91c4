package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/health-assistant/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// All repository interfaces in one file
type (
	// MedicalRecordRepository reads stored medical records. Records are owned
	// by the record store; the assistant never writes them.
	MedicalRecordRepository interface {
		Get(ctx context.Context, id string) (*model.MedicalRecord, error)
		ListRecent(ctx context.Context, userID string, limit int) ([]*model.MedicalRecord, error)
		List(ctx context.Context, userID string, filters *model.RecordFilters) ([]*model.MedicalRecord, error)
	}

	// ConversationRepository persists assistant conversations.
	ConversationRepository interface {
		Create(ctx context.Context, conv *model.Conversation) error
		Get(ctx context.Context, id string) (*model.Conversation, error)
		Append(ctx context.Context, id string, state model.ConversationState, msgs ...model.BotMessage) error
	}

	// FindingLogRepository stores urgent findings surfaced to users.
	FindingLogRepository interface {
		Log(ctx context.Context, event *model.FindingEvent) error
		ListByUser(ctx context.Context, userID string, limit int) ([]*model.FindingEvent, error)
		// Cleanup deletes entries that occurred before cutoff and returns how many.
		Cleanup(ctx context.Context, cutoff time.Time) (int64, error)
	}
)
