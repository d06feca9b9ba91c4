package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/jwalitptl/health-assistant/internal/model"
)

// DefaultSuggestions are offered after greetings, fallbacks and errors.
var DefaultSuggestions = []string{"Recommend me", "Show recent tests", "Health tips"}

var DefaultHealthTips = []string{
	"Drink enough water through the day.",
	"Aim for at least 30 minutes of activity on most days.",
	"Get 7 to 9 hours of sleep.",
	"Keep your medical records up to date.",
}

// DefaultDocumentTypes is the built-in document type catalog used when no
// reference file is configured.
var DefaultDocumentTypes = []model.DocumentType{
	{Name: "Blood Test", Fields: []string{"Hemoglobin", "Glucose (mg/dL)", "Cholesterol (mg/dL)", "WBC Count", "Platelet Count"}},
	{Name: "Pharmacy", Fields: []string{"Medicine Name", "Dosage", "Duration", "Prescribed By"}},
	{Name: "X-Ray", Fields: []string{"Body Part", "Findings", "Impression"}},
	{Name: "Ultrasound", Fields: []string{"Region", "Findings", "Impression"}},
	{Name: "MRI", Fields: []string{"Region", "Findings", "Impression"}},
	{Name: "ECG", Fields: []string{"Heart Rate", "Rhythm", "Interpretation"}},
}

var DefaultIntentPatterns = []model.IntentPattern{
	{Intent: string(model.IntentShowRecentTests), Patterns: []string{`\brecent\b`, `\blatest\b`, `\bmy (records|reports|tests)\b`}},
	{Intent: string(model.IntentShowRecommendations), Patterns: []string{`\brecommend`, `\bsuggest`}},
}

type referenceFile struct {
	DocumentTypes  []model.DocumentType  `mapstructure:"document_types"`
	IntentPatterns []model.IntentPattern `mapstructure:"intent_patterns"`
}

// DefaultReference builds the reference data from the built-in catalog.
func DefaultReference() (*model.Reference, error) {
	return model.NewReference(DefaultDocumentTypes, DefaultIntentPatterns)
}

// LoadReference reads document types and intent patterns from a YAML or JSON
// file. An empty path yields the built-in catalog. Sections missing from the
// file fall back to the built-in ones.
func LoadReference(path string) (*model.Reference, error) {
	if path == "" {
		return DefaultReference()
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read reference file: %w", err)
	}

	var rf referenceFile
	if err := v.Unmarshal(&rf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reference file: %w", err)
	}
	if !v.IsSet("document_types") {
		rf.DocumentTypes = DefaultDocumentTypes
	}
	if !v.IsSet("intent_patterns") {
		rf.IntentPatterns = DefaultIntentPatterns
	}

	ref, err := model.NewReference(rf.DocumentTypes, rf.IntentPatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid reference file %s: %w", path, err)
	}
	return ref, nil
}
