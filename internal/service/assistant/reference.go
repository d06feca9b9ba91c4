package assistant

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jwalitptl/health-assistant/internal/model"
)

// referenceStrategy extracts one value from quick-reply metadata by walking
// a fixed key path.
type referenceStrategy struct {
	name string
	path []string
}

// Quick replies carry whatever the client attached to the message they came
// from: a record, a recommendation item, or a wrapper around either. The
// strategies are tried in order and the first usable value wins.
var (
	recordIDStrategies = []referenceStrategy{
		{name: "recordId", path: []string{"recordId"}},
		{name: "record_id", path: []string{"record_id"}},
		{name: "id", path: []string{"id"}},
		{name: "_id", path: []string{"_id"}},
		{name: "record.id", path: []string{"record", "id"}},
		{name: "record._id", path: []string{"record", "_id"}},
		{name: "item.recordId", path: []string{"item", "recordId"}},
		{name: "item.record_id", path: []string{"item", "record_id"}},
		{name: "item.id", path: []string{"item", "id"}},
		{name: "item.record.id", path: []string{"item", "record", "id"}},
	}

	recordDateStrategies = []referenceStrategy{
		{name: "date", path: []string{"date"}},
		{name: "record.date", path: []string{"record", "date"}},
		{name: "item.date", path: []string{"item", "date"}},
	}
)

// ResolveReference normalizes quick-reply metadata into a RecordReference.
// It reports false when no record id can be found.
func ResolveReference(meta map[string]any) (model.RecordReference, bool) {
	id, ok := firstValue(meta, recordIDStrategies)
	if !ok {
		return model.RecordReference{}, false
	}
	date, _ := firstValue(meta, recordDateStrategies)
	return model.RecordReference{ID: id, Date: date}, true
}

func firstValue(meta map[string]any, strategies []referenceStrategy) (string, bool) {
	for _, s := range strategies {
		v, ok := lookupPath(meta, s.path)
		if !ok {
			continue
		}
		if str, ok := scalarString(v); ok {
			return str, true
		}
	}
	return "", false
}

func lookupPath(meta map[string]any, path []string) (any, bool) {
	var cur any = meta
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// scalarString renders ids the way they are shown in routes: numbers
// without a trailing ".0" and strings trimmed. Empty values do not count.
func scalarString(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	default:
		return "", false
	}
	return s, s != ""
}
