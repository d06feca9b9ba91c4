package assistant

import (
	"context"
	stderrors "errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/internal/repository"
	"github.com/jwalitptl/health-assistant/pkg/errors"
	"github.com/jwalitptl/health-assistant/pkg/logger"
)

const lockStripes = 64

// Service loads and stores conversations around orchestrator turns. Turns on
// the same conversation are serialized.
type Service struct {
	orchestrator *Orchestrator
	repo         repository.ConversationRepository
	logger       *logger.Logger
	locks        [lockStripes]sync.Mutex
}

func NewService(orchestrator *Orchestrator, repo repository.ConversationRepository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		orchestrator: orchestrator,
		repo:         repo,
		logger:       log,
	}
}

// StartConversation creates and stores a new conversation for userID.
func (s *Service) StartConversation(ctx context.Context, userID string) (*model.Conversation, error) {
	conv := s.orchestrator.Start(userID)
	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to store conversation: %w", err))
	}
	s.logger.WithContext(ctx).Info("conversation started", "conversation_id", conv.ID, "user_id", userID)
	return conv, nil
}

// GetConversation returns the conversation if userID owns it.
func (s *Service) GetConversation(ctx context.Context, userID, id string) (*model.Conversation, error) {
	conv, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("conversation", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to load conversation: %w", err))
	}
	if conv.UserID != userID {
		return nil, errors.Forbidden(fmt.Errorf("conversation %s belongs to another user", id))
	}
	return conv, nil
}

// SendMessage runs a text turn and returns the appended messages.
func (s *Service) SendMessage(ctx context.Context, userID, id, text string) ([]model.BotMessage, error) {
	return s.turn(ctx, userID, id, func(conv *model.Conversation) []model.BotMessage {
		return s.orchestrator.Send(ctx, conv, text)
	})
}

// SelectSuggestion runs a quick-reply turn. meta is whatever the client
// attached to the reply; it is normalized into a record reference here.
func (s *Service) SelectSuggestion(ctx context.Context, userID, id, label string, meta map[string]any) ([]model.BotMessage, error) {
	var ref *model.RecordReference
	if r, ok := ResolveReference(meta); ok {
		ref = &r
	}
	return s.turn(ctx, userID, id, func(conv *model.Conversation) []model.BotMessage {
		return s.orchestrator.HandleSuggestion(ctx, conv, label, ref)
	})
}

func (s *Service) turn(ctx context.Context, userID, id string, run func(*model.Conversation) []model.BotMessage) ([]model.BotMessage, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	conv, err := s.GetConversation(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	msgs := run(conv)
	if err := s.repo.Append(ctx, id, conv.State, msgs...); err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to store conversation turn: %w", err))
	}
	return msgs, nil
}

func (s *Service) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &s.locks[h.Sum32()%lockStripes]
}
