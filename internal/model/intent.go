package model

// Intent is the classified purpose of a user message. Besides the built in
// values, intents named in the configured pattern table are valid too.
type Intent string

const (
	IntentShowRecommendations Intent = "show_recommendations"
	IntentShowRecentTests     Intent = "show_recent_tests"
	IntentGreeting            Intent = "greeting"
	IntentUnknown             Intent = "unknown"
)

// EntityKind tells what a matched entity names.
type EntityKind string

const (
	EntityDocumentType EntityKind = "document_type"
	EntityField        EntityKind = "field"
)

// IntentMatch is the matcher's verdict for one input.
type IntentMatch struct {
	Intent     Intent     `json:"intent"`
	Entity     string     `json:"entity,omitempty"`
	EntityKind EntityKind `json:"entity_kind,omitempty"`
}
