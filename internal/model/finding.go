package model

import "time"

// Severity ranks how pressing a finding is.
type Severity string

const (
	SeverityUrgent Severity = "urgent"
	SeverityWarn   Severity = "warn"
	SeverityInfo   Severity = "info"
)

// Rank orders severities urgent < warn < info; unknown levels sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityUrgent:
		return 0
	case SeverityWarn:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

func (s Severity) Valid() bool {
	return s.Rank() < 3
}

// Finding is one advisory produced by the rule engine.
type Finding struct {
	Rule     string   `json:"rule"`
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
	Actions  []string `json:"actions,omitempty"`
	RecordID string   `json:"record_id,omitempty"`
}

// FindingKey identifies duplicate findings.
type FindingKey struct {
	Rule string
	Text string
}

func (f Finding) Key() FindingKey {
	return FindingKey{Rule: f.Rule, Text: f.Text}
}

const RecommendationKind = "recommendation"

// RecommendationItem is a finding presented in a chat reply.
type RecommendationItem struct {
	Finding
	Kind string `json:"kind"`
}

// FindingEvent is published when an urgent finding surfaces for a user, and is
// persisted by the findings worker.
type FindingEvent struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	RecordID   string    `json:"record_id" db:"record_id"`
	DocType    string    `json:"doc_type" db:"doc_type"`
	Rule       string    `json:"rule" db:"rule"`
	Severity   Severity  `json:"severity" db:"severity"`
	Text       string    `json:"text" db:"text"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
}

// NewFindingEvent builds the event for a finding observed for userID.
func NewFindingEvent(id, userID, docType string, f Finding, at time.Time) FindingEvent {
	return FindingEvent{
		ID:         id,
		UserID:     userID,
		RecordID:   f.RecordID,
		DocType:    docType,
		Rule:       f.Rule,
		Severity:   f.Severity,
		Text:       f.Text,
		OccurredAt: at,
	}
}
