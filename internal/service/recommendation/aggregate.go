package recommendation

import (
	"sort"

	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/internal/service/rules"
)

// Aggregate evaluates every record, drops repeated (rule, text) pairs keeping
// the first occurrence, and returns at most limit findings ordered urgent,
// warn, info. Within a severity the first-seen order is kept. maxDistinct,
// when positive, caps how many distinct findings are collected before
// ordering; limit <= 0 means no limit.
func Aggregate(e *rules.Evaluator, userID string, records []*model.MedicalRecord, maxDistinct, limit int) []model.Finding {
	seen := make(map[model.FindingKey]struct{})
	var out []model.Finding

collect:
	for _, record := range records {
		if record == nil {
			continue
		}
		findings := e.Evaluate(rules.Input{
			Record:  record,
			DocInfo: record.DocInfo,
			DocType: record.DocTypeName(),
			UserID:  userID,
		})
		for _, f := range findings {
			key := f.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, f)
			if maxDistinct > 0 && len(out) >= maxDistinct {
				break collect
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() < out[j].Severity.Rank()
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
