package model

import "time"

// ConversationState tracks where the assistant dialogue currently is.
type ConversationState string

const (
	StateIdle                  ConversationState = "idle"
	StateAwaitingDocTypeChoice ConversationState = "awaiting_doctype_choice"
	StateRecommendationResults ConversationState = "recommendation_results"
	StateRecentResults         ConversationState = "recent_results"
)

// Conversation is an append-only message history owned by one user.
type Conversation struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	State     ConversationState `json:"state"`
	Messages  []BotMessage      `json:"messages"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Append adds messages to the end of the history.
func (c *Conversation) Append(msgs ...BotMessage) {
	c.Messages = append(c.Messages, msgs...)
	if n := len(msgs); n > 0 {
		c.UpdatedAt = msgs[n-1].CreatedAt
	}
}

// RecordReference points at a stored record from a quick reply.
type RecordReference struct {
	ID   string `json:"id"`
	Date string `json:"date,omitempty"`
}
