package model

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jwalitptl/health-assistant/pkg/normalize"
)

// DocumentType names a record category and the fields it is expected to carry.
type DocumentType struct {
	Name   string   `mapstructure:"name" json:"name"`
	Fields []string `mapstructure:"fields" json:"fields"`
}

// IntentPattern maps an intent name to the regular expressions that select it.
type IntentPattern struct {
	Intent   string   `mapstructure:"intent" json:"intent"`
	Patterns []string `mapstructure:"patterns" json:"patterns"`
}

// Reference is the immutable dictionary of document types and intent
// patterns. Declaration order is significant for matching.
type Reference struct {
	documentTypes  []DocumentType
	intentPatterns []IntentPattern
}

// NewReference validates and copies the reference data.
func NewReference(docTypes []DocumentType, patterns []IntentPattern) (*Reference, error) {
	seen := make(map[string]bool, len(docTypes))
	ref := &Reference{
		documentTypes:  make([]DocumentType, 0, len(docTypes)),
		intentPatterns: make([]IntentPattern, 0, len(patterns)),
	}

	for i, dt := range docTypes {
		key := normalize.Text(dt.Name)
		if key == "" {
			return nil, fmt.Errorf("document type %d: name has no matchable words", i)
		}
		if seen[key] {
			return nil, fmt.Errorf("document type %q declared twice", dt.Name)
		}
		seen[key] = true
		ref.documentTypes = append(ref.documentTypes, DocumentType{
			Name:   dt.Name,
			Fields: append([]string(nil), dt.Fields...),
		})
	}

	for i, ip := range patterns {
		if strings.TrimSpace(ip.Intent) == "" {
			return nil, fmt.Errorf("intent pattern %d: intent name is required", i)
		}
		for _, p := range ip.Patterns {
			if _, err := regexp.Compile("(?i)" + p); err != nil {
				return nil, fmt.Errorf("intent %q: invalid pattern %q: %w", ip.Intent, p, err)
			}
		}
		ref.intentPatterns = append(ref.intentPatterns, IntentPattern{
			Intent:   ip.Intent,
			Patterns: append([]string(nil), ip.Patterns...),
		})
	}

	return ref, nil
}

// DocumentTypes returns a copy of the document types in declaration order.
func (r *Reference) DocumentTypes() []DocumentType {
	out := make([]DocumentType, len(r.documentTypes))
	for i, dt := range r.documentTypes {
		out[i] = DocumentType{Name: dt.Name, Fields: append([]string(nil), dt.Fields...)}
	}
	return out
}

func (r *Reference) DocumentTypeNames() []string {
	names := make([]string, len(r.documentTypes))
	for i, dt := range r.documentTypes {
		names[i] = dt.Name
	}
	return names
}

// LookupDocumentType finds a document type by case-insensitive name.
func (r *Reference) LookupDocumentType(name string) (DocumentType, bool) {
	name = strings.TrimSpace(name)
	for _, dt := range r.documentTypes {
		if strings.EqualFold(dt.Name, name) {
			return DocumentType{Name: dt.Name, Fields: append([]string(nil), dt.Fields...)}, true
		}
	}
	return DocumentType{}, false
}

// DefaultDocInfo returns the field map for a newly selected document type,
// every field initialized to the empty string.
func (r *Reference) DefaultDocInfo(name string) (DocInfo, bool) {
	dt, ok := r.LookupDocumentType(name)
	if !ok {
		return DocInfo{}, false
	}
	var d DocInfo
	for _, f := range dt.Fields {
		d.Set(f, "")
	}
	return d, true
}

// IntentPatterns returns a copy of the pattern table in declaration order.
func (r *Reference) IntentPatterns() []IntentPattern {
	out := make([]IntentPattern, len(r.intentPatterns))
	for i, ip := range r.intentPatterns {
		out[i] = IntentPattern{Intent: ip.Intent, Patterns: append([]string(nil), ip.Patterns...)}
	}
	return out
}
