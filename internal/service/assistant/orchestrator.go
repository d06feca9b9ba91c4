package assistant

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/internal/service/intent"
	"github.com/jwalitptl/health-assistant/internal/service/rules"
	"github.com/jwalitptl/health-assistant/pkg/logger"
	"github.com/jwalitptl/health-assistant/pkg/metrics"
)

// recommendMe short-circuits straight to the document type prompt, ahead of
// intent matching.
var recommendMe = regexp.MustCompile(`(?i)\brecommend\s+me\b`)

// RecordFetcher returns a user's most recent records.
type RecordFetcher interface {
	FetchRecentRecords(ctx context.Context, userID string) ([]*model.MedicalRecord, error)
}

// Recommender returns ordered, de-duplicated findings for a document type.
type Recommender interface {
	Recommend(ctx context.Context, userID, docType string, limit int) ([]model.Finding, error)
}

type Config struct {
	RecentLimit         int
	RecommendationLimit int
	DefaultSuggestions  []string
	HealthTips          []string
}

// Orchestrator runs one conversation turn at a time: it appends the user's
// message, works out what was asked and appends the bot's reply. Collaborator
// failures end the turn with an apology instead of an error.
type Orchestrator struct {
	reference   *model.Reference
	matcher     *intent.Matcher
	records     RecordFetcher
	recommender Recommender
	config      Config
	logger      *logger.Logger
	metrics     *metrics.Metrics

	now   func() time.Time
	newID func() string
}

func NewOrchestrator(
	reference *model.Reference,
	matcher *intent.Matcher,
	records RecordFetcher,
	recommender Recommender,
	config Config,
	log *logger.Logger,
	m *metrics.Metrics,
) *Orchestrator {
	if config.RecentLimit <= 0 {
		config.RecentLimit = 10
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		reference:   reference,
		matcher:     matcher,
		records:     records,
		recommender: recommender,
		config:      config,
		logger:      log,
		metrics:     m,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

// Start opens a conversation for userID with the welcome message.
func (o *Orchestrator) Start(userID string) *model.Conversation {
	now := o.now()
	conv := &model.Conversation{
		ID:        o.newID(),
		UserID:    userID,
		State:     model.StateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	conv.Append(o.botMessage(welcomeText, nil, o.defaultSuggestions()))
	return conv
}

// Send handles free text from the user and returns the messages appended
// during the turn, the user's own message first.
func (o *Orchestrator) Send(ctx context.Context, conv *model.Conversation, text string) []model.BotMessage {
	start := len(conv.Messages)
	conv.Append(o.userMessage(text))

	if recommendMe.MatchString(text) {
		o.promptDocType(conv)
		return appended(conv, start)
	}

	match := o.matcher.Match(text)
	o.metrics.ObserveIntent(string(match.Intent))
	o.logger.WithContext(ctx).Debug("intent matched",
		"conversation_id", conv.ID, "intent", string(match.Intent), "entity", match.Entity)

	switch match.Intent {
	case model.IntentShowRecommendations:
		o.promptDocType(conv)
	case model.IntentShowRecentTests:
		o.showRecent(ctx, conv)
	case model.IntentGreeting:
		o.reply(conv, model.StateIdle, greetingText, nil, o.defaultSuggestions())
	default:
		o.reply(conv, model.StateIdle, fallbackText, nil, o.defaultSuggestions())
	}
	return appended(conv, start)
}

// HandleSuggestion handles a tapped quick reply. ref is the record the reply
// was attached to, if any. Labels it does not recognize are treated as
// typed text.
func (o *Orchestrator) HandleSuggestion(ctx context.Context, conv *model.Conversation, label string, ref *model.RecordReference) []model.BotMessage {
	trimmed := strings.TrimSpace(label)
	lower := strings.ToLower(trimmed)
	docType, isDocType := o.reference.LookupDocumentType(trimmed)

	var handle func()
	switch {
	case isDocType:
		handle = func() { o.showRecommendations(ctx, conv, docType.Name) }
	case strings.Contains(lower, "recommend"):
		handle = func() { o.promptDocType(conv) }
	case strings.Contains(lower, "tips"):
		handle = func() { o.showTips(conv) }
	case strings.Contains(lower, "view record"):
		handle = func() { o.viewRecord(conv, ref) }
	case strings.Contains(lower, "set reminder"):
		handle = func() { o.setReminder(conv, ref) }
	default:
		return o.Send(ctx, conv, label)
	}

	start := len(conv.Messages)
	conv.Append(o.userMessage(label))
	handle()
	return appended(conv, start)
}

func (o *Orchestrator) promptDocType(conv *model.Conversation) {
	o.reply(conv, model.StateAwaitingDocTypeChoice, docTypePromptText, nil, o.reference.DocumentTypeNames())
}

func (o *Orchestrator) showRecent(ctx context.Context, conv *model.Conversation) {
	records, err := o.records.FetchRecentRecords(ctx, conv.UserID)
	if err != nil {
		o.fail(ctx, conv, "fetch recent records", err)
		return
	}

	list := make([]model.MedicalRecord, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		list = append(list, *r)
		if len(list) == o.config.RecentLimit {
			break
		}
	}

	if len(list) == 0 {
		o.reply(conv, model.StateIdle, noRecordsText, nil, o.defaultSuggestions())
		return
	}

	text := recentOneText
	if len(list) > 1 {
		text = fmt.Sprintf(recentManyText, len(list))
	}
	o.reply(conv, model.StateRecentResults, text,
		&model.Payload{Kind: model.PayloadRecords, Records: list},
		[]string{rules.ActionViewRecord, rules.ActionSetReminder})
}

func (o *Orchestrator) showRecommendations(ctx context.Context, conv *model.Conversation, docType string) {
	findings, err := o.recommender.Recommend(ctx, conv.UserID, docType, o.config.RecommendationLimit)
	if err != nil {
		o.fail(ctx, conv, "fetch recommendations", err)
		return
	}

	if len(findings) == 0 {
		o.reply(conv, model.StateIdle, fmt.Sprintf(noRecommendedText, docType), nil, o.defaultSuggestions())
		return
	}

	items := make([]model.RecommendationItem, 0, len(findings))
	for _, f := range findings {
		f.Actions = []string{rules.ActionViewRecord}
		items = append(items, model.RecommendationItem{Finding: f, Kind: model.RecommendationKind})
	}
	o.reply(conv, model.StateRecommendationResults, fmt.Sprintf(recommendedText, docType),
		&model.Payload{Kind: model.PayloadRecommendations, Recommendations: items},
		[]string{rules.ActionViewRecord})
}

func (o *Orchestrator) showTips(conv *model.Conversation) {
	tips := append([]string(nil), o.config.HealthTips...)
	o.reply(conv, model.StateIdle, tipsText,
		&model.Payload{Kind: model.PayloadTips, Tips: tips},
		o.defaultSuggestions())
}

func (o *Orchestrator) viewRecord(conv *model.Conversation, ref *model.RecordReference) {
	if ref == nil || ref.ID == "" {
		o.reply(conv, model.StateIdle, viewMissingText, nil, o.defaultSuggestions())
		return
	}
	nav := &model.Navigation{Path: ViewRecordPath, Query: url.Values{"id": {ref.ID}}.Encode()}
	o.reply(conv, model.StateIdle, viewRecordText,
		&model.Payload{Kind: model.PayloadNavigation, Navigation: nav},
		o.defaultSuggestions())
}

func (o *Orchestrator) setReminder(conv *model.Conversation, ref *model.RecordReference) {
	if ref == nil || ref.ID == "" {
		o.reply(conv, model.StateIdle, reminderMissingText, nil, o.defaultSuggestions())
		return
	}
	query := url.Values{"recordId": {ref.ID}}
	if ref.Date != "" {
		query.Set("date", ref.Date)
	}
	nav := &model.Navigation{Path: NewReminderPath, Query: query.Encode()}
	o.reply(conv, model.StateIdle, reminderText,
		&model.Payload{Kind: model.PayloadNavigation, Navigation: nav},
		o.defaultSuggestions())
}

func (o *Orchestrator) fail(ctx context.Context, conv *model.Conversation, op string, err error) {
	o.logger.WithContext(ctx).Error(err, "assistant turn failed",
		"conversation_id", conv.ID, "user_id", conv.UserID, "operation", op)
	o.reply(conv, model.StateIdle, fetchFailedText, nil, o.defaultSuggestions())
}

func (o *Orchestrator) reply(conv *model.Conversation, state model.ConversationState, text string, payload *model.Payload, suggestions []string) {
	conv.State = state
	conv.Append(o.botMessage(text, payload, suggestions))
}

func (o *Orchestrator) botMessage(text string, payload *model.Payload, suggestions []string) model.BotMessage {
	return model.BotMessage{
		ID:          o.newID(),
		Sender:      model.SenderBot,
		Text:        text,
		Payload:     payload,
		Suggestions: suggestions,
		CreatedAt:   o.now(),
	}
}

func (o *Orchestrator) userMessage(text string) model.BotMessage {
	return model.BotMessage{
		ID:        o.newID(),
		Sender:    model.SenderUser,
		Text:      text,
		CreatedAt: o.now(),
	}
}

func (o *Orchestrator) defaultSuggestions() []string {
	return append([]string(nil), o.config.DefaultSuggestions...)
}

func appended(conv *model.Conversation, start int) []model.BotMessage {
	out := make([]model.BotMessage, len(conv.Messages)-start)
	copy(out, conv.Messages[start:])
	return out
}
