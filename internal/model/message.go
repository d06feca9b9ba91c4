package model

import "time"

type Sender string

const (
	SenderBot  Sender = "bot"
	SenderUser Sender = "user"
)

type PayloadKind string

const (
	PayloadRecords         PayloadKind = "records"
	PayloadRecommendations PayloadKind = "recommendations"
	PayloadNavigation      PayloadKind = "navigation"
	PayloadTips            PayloadKind = "tips"
)

// Navigation is a screen transition the client performs on the user's behalf.
type Navigation struct {
	Path  string `json:"path"`
	Query string `json:"query,omitempty"`
}

// Target joins path and query into the opaque route handed to the client.
func (n Navigation) Target() string {
	if n.Query == "" {
		return n.Path
	}
	return n.Path + "?" + n.Query
}

// Payload is structured content attached to a bot message.
type Payload struct {
	Kind            PayloadKind          `json:"kind"`
	Records         []MedicalRecord      `json:"records,omitempty"`
	Recommendations []RecommendationItem `json:"recommendations,omitempty"`
	Navigation      *Navigation          `json:"navigation,omitempty"`
	Tips            []string             `json:"tips,omitempty"`
}

// BotMessage is one entry of a conversation. Messages are never changed
// after they are appended.
type BotMessage struct {
	ID          string    `json:"id"`
	Sender      Sender    `json:"sender"`
	Text        string    `json:"text"`
	Payload     *Payload  `json:"payload,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
