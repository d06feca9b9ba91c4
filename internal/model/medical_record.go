package model

import (
	"strings"
	"time"
)

// MedicalRecord is a user's stored health document. The assistant only reads
// records; creation and editing belong to the record store.
type MedicalRecord struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	DocType   *string    `json:"doc_type"`
	DocInfo   DocInfo    `json:"docinfo"`
	Date      *time.Time `json:"date,omitempty"`
	Metadata  string     `json:"metadata,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// DocTypeName returns the record's document type, or "" when it has none.
func (r *MedicalRecord) DocTypeName() string {
	if r == nil || r.DocType == nil {
		return ""
	}
	return *r.DocType
}

// RecordFilters narrows record listings.
type RecordFilters struct {
	DocType string
	Limit   int
}

// HasDocType reports whether the filter restricts the document type.
func (f *RecordFilters) HasDocType() bool {
	return f != nil && strings.TrimSpace(f.DocType) != ""
}
