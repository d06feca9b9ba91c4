// Package intent classifies free-text assistant input into a closed set of intents.
package intent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/pkg/normalize"
)

var (
	recommendPattern = regexp.MustCompile(`(?i)recommend|suggest|advice|what should`)
	greetingPattern  = regexp.MustCompile(`(?i)hi|hello|hey|yo`)
)

type docTypeMatcher struct {
	name     string
	words    []string
	triggers []fieldTrigger
}

type fieldTrigger struct {
	field string
	token string
}

type configuredIntent struct {
	intent   model.Intent
	patterns []*regexp.Regexp
}

// Matcher maps raw user text to an intent. Checks run in a fixed order and
// the first success wins:
//  1. every word of a document type name appears in the input
//  2. the first word of a document type field appears in the input
//  3. a configured intent pattern matches the raw input
//  4. a greeting
//
// Anything else is unknown.
type Matcher struct {
	docTypes []docTypeMatcher
	intents  []configuredIntent
}

// NewMatcher precompiles the reference data.
func NewMatcher(ref *model.Reference) (*Matcher, error) {
	m := &Matcher{}

	for _, dt := range ref.DocumentTypes() {
		dm := docTypeMatcher{
			name:  dt.Name,
			words: normalize.Words(dt.Name),
		}
		for _, f := range dt.Fields {
			token := normalize.FirstWord(f)
			if token == "" {
				continue
			}
			dm.triggers = append(dm.triggers, fieldTrigger{field: f, token: token})
		}
		m.docTypes = append(m.docTypes, dm)
	}

	for _, ip := range ref.IntentPatterns() {
		ci := configuredIntent{intent: model.Intent(ip.Intent)}
		for _, p := range ip.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("compile pattern %q for intent %s: %w", p, ip.Intent, err)
			}
			ci.patterns = append(ci.patterns, re)
		}
		m.intents = append(m.intents, ci)
	}

	return m, nil
}

// Match classifies raw. It never fails; unknown is the catch-all.
func (m *Matcher) Match(raw string) model.IntentMatch {
	text := normalize.Text(raw)

	for _, dt := range m.docTypes {
		if containsAll(text, dt.words) {
			if WantsRecommendation(raw) {
				return model.IntentMatch{
					Intent:     model.IntentShowRecommendations,
					Entity:     dt.name,
					EntityKind: model.EntityDocumentType,
				}
			}
			return model.IntentMatch{
				Intent:     model.IntentShowRecentTests,
				Entity:     dt.name,
				EntityKind: model.EntityDocumentType,
			}
		}
	}

	for _, dt := range m.docTypes {
		for _, ft := range dt.triggers {
			if !strings.Contains(text, ft.token) {
				continue
			}
			if WantsRecommendation(raw) {
				return model.IntentMatch{
					Intent:     model.IntentShowRecommendations,
					Entity:     ft.field,
					EntityKind: model.EntityField,
				}
			}
			return model.IntentMatch{
				Intent:     model.IntentShowRecentTests,
				Entity:     dt.name,
				EntityKind: model.EntityDocumentType,
			}
		}
	}

	for _, ci := range m.intents {
		for _, re := range ci.patterns {
			if re.MatchString(raw) {
				return model.IntentMatch{Intent: ci.intent}
			}
		}
	}

	if greetingPattern.MatchString(raw) {
		return model.IntentMatch{Intent: model.IntentGreeting}
	}

	return model.IntentMatch{Intent: model.IntentUnknown}
}

// WantsRecommendation reports whether raw asks for advice.
func WantsRecommendation(raw string) bool {
	return recommendPattern.MatchString(raw)
}

func containsAll(text string, words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}
