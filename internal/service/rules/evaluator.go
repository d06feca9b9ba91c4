// Package rules turns structured medical record fields into advisory findings.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/pkg/logger"
	"github.com/jwalitptl/health-assistant/pkg/metrics"
)

const (
	RuleHbLow            = "hb-low"
	RuleHbSlightlyLow    = "hb-slightly-low"
	RuleHbOK             = "hb-ok"
	RuleHbLowText        = "hb-low-text"
	RuleGlucoseVeryHigh  = "glucose-very-high"
	RuleGlucoseHigh      = "glucose-high"
	RuleGlucoseOK        = "glucose-ok"
	RuleCholHigh         = "chol-high"
	RuleCholBorderline   = "chol-borderline"
	RuleCholOK           = "chol-ok"
	RuleMedAntibiotic    = "med-antibiotic"
	RuleMedInfo          = "med-info"
	RuleMedLongDuration  = "med-long-duration"
	RuleImagingFracture  = "imaging-fracture"
	RuleImagingAbnormal  = "imaging-abnormal"
	RuleImagingNormal    = "imaging-normal"
	RuleECGHeartRate     = "ecg-hr-abnormal"
	RuleECGHeartRateOK   = "ecg-hr-ok"
	RuleECGAtrialFib     = "ecg-af"
	RuleNoFlags          = "no-flags"
	RuleEvaluationFailed = "rules-error"
)

// Quick reply labels offered with findings.
const (
	ActionViewRecord  = "View record"
	ActionSetReminder = "Set reminder"
	ActionHealthTips  = "Health tips"
)

const evaluationFailedText = "Failed to evaluate rules for this record"

var (
	fracturePattern = regexp.MustCompile(`(?i)fracture|broken`)
	abnormalPattern = regexp.MustCompile(`(?i)ulcer|mass|lesion|nodule`)
	normalPattern   = regexp.MustCompile(`(?i)normal|no significant`)
	afPattern       = regexp.MustCompile(`(?i)af`)
)

// Input is one record to evaluate.
type Input struct {
	Record  *model.MedicalRecord
	DocInfo model.DocInfo
	DocType string
	UserID  string
}

type category struct {
	name    string
	applies func(docType string) bool
	check   func(in Input, out *[]model.Finding)
}

// Evaluator applies the clinical rule set. It is safe for concurrent use.
type Evaluator struct {
	logger     *logger.Logger
	metrics    *metrics.Metrics
	categories []category
}

func NewEvaluator(log *logger.Logger, m *metrics.Metrics) *Evaluator {
	if log == nil {
		log = logger.Nop()
	}
	return &Evaluator{
		logger:  log,
		metrics: m,
		categories: []category{
			{name: "blood", applies: docTypeContains("blood"), check: checkBloodPanel},
			{name: "pharmacy", applies: docTypeContains("pharmacy"), check: checkPharmacy},
			// "x" is meant for X-ray but matches any type containing the letter.
			{name: "imaging", applies: docTypeContains("x", "ultrasound", "mri", "ecg"), check: checkImaging},
			{name: "ecg", applies: docTypeContains("ecg"), check: checkECG},
		},
	}
}

// Evaluate returns the findings for one record. It never panics; a failure
// inside a rule is logged and reported as a single info finding.
func (e *Evaluator) Evaluate(in Input) (findings []model.Finding) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(fmt.Errorf("%v", r), "rule evaluation failed",
				"user_id", in.UserID, "record_id", recordID(in), "doc_type", in.DocType)
			e.metrics.ObserveRuleFailure()
			findings = []model.Finding{{
				Rule:     RuleEvaluationFailed,
				Text:     evaluationFailedText,
				Severity: model.SeverityInfo,
				RecordID: recordID(in),
			}}
		}
	}()

	docType := strings.ToLower(in.DocType)
	for _, c := range e.categories {
		if c.applies(docType) {
			c.check(in, &findings)
		}
	}

	if len(findings) == 0 && strings.TrimSpace(in.DocType) != "" {
		findings = append(findings, newFinding(RuleNoFlags, model.SeverityInfo,
			fmt.Sprintf("No specific flagged findings for this %s record.", in.DocType)))
	}

	id := recordID(in)
	for i := range findings {
		findings[i].RecordID = id
		e.metrics.ObserveFinding(string(findings[i].Severity))
	}
	return findings
}

func checkBloodPanel(in Input, out *[]model.Finding) {
	if v, ok := in.DocInfo.Lookup("Hemoglobin"); ok {
		if hb, ok := toNumber(v); ok {
			switch {
			case hb < 11:
				add(out, RuleHbLow, model.SeverityUrgent,
					"Hemoglobin is low (%s g/dL): possible anemia. Please consult your doctor.", formatNumber(hb))
			case hb < 12.5:
				add(out, RuleHbSlightlyLow, model.SeverityWarn,
					"Hemoglobin is slightly low (%s g/dL). Consider iron-rich foods and a follow-up test.", formatNumber(hb))
			default:
				add(out, RuleHbOK, model.SeverityInfo,
					"Hemoglobin is within range (%s g/dL).", formatNumber(hb))
			}
		} else if containsFold(stringify(v), "low") {
			add(out, RuleHbLowText, model.SeverityWarn,
				"Hemoglobin was reported as low. Consider a follow-up test.")
		}
	}

	if v, ok := in.DocInfo.Lookup("Glucose (mg/dL)", "Glucose"); ok {
		if g, ok := toNumber(v); ok {
			switch {
			case g >= 200:
				add(out, RuleGlucoseVeryHigh, model.SeverityUrgent,
					"Glucose is very high (%s mg/dL). Please seek medical advice promptly.", formatNumber(g))
			case g >= 140:
				add(out, RuleGlucoseHigh, model.SeverityWarn,
					"Glucose is high (%s mg/dL). Watch your sugar intake and recheck soon.", formatNumber(g))
			default:
				add(out, RuleGlucoseOK, model.SeverityInfo,
					"Glucose is within range (%s mg/dL).", formatNumber(g))
			}
		}
	}

	// The 200-239 band is info while >=240 is warn.
	if v, ok := in.DocInfo.Lookup("Cholesterol (mg/dL)", "Cholesterol"); ok {
		if c, ok := toNumber(v); ok {
			switch {
			case c >= 240:
				add(out, RuleCholHigh, model.SeverityWarn,
					"Cholesterol is high (%s mg/dL). Consider a heart-healthy diet and talk to your doctor.", formatNumber(c))
			case c >= 200:
				add(out, RuleCholBorderline, model.SeverityInfo,
					"Cholesterol is borderline (%s mg/dL). Keep an eye on diet and exercise.", formatNumber(c))
			default:
				add(out, RuleCholOK, model.SeverityInfo,
					"Cholesterol is within range (%s mg/dL).", formatNumber(c))
			}
		}
	}
}

func checkPharmacy(in Input, out *[]model.Finding) {
	if v, ok := in.DocInfo.Lookup("Medicine Name", "Medicine"); ok {
		medicine := strings.TrimSpace(stringify(v))
		if medicine != "" {
			if containsFold(medicine, "antibiotic") {
				add(out, RuleMedAntibiotic, model.SeverityInfo,
					"%s is an antibiotic: complete the full course even if you feel better.", medicine)
			} else {
				dosage := fieldText(in.DocInfo, "Dosage")
				duration := fieldText(in.DocInfo, "Duration")
				add(out, RuleMedInfo, model.SeverityInfo,
					"%s: dosage %s, duration %s. Take it as prescribed.", medicine, dosage, duration)
			}
		}
	}

	if v, ok := in.DocInfo.Lookup("Duration"); ok {
		if d, ok := toNumber(v); ok && d >= 3 {
			add(out, RuleMedLongDuration, model.SeverityWarn,
				"Medication course runs for %s. Check in with your doctor if symptoms persist.", stringify(v))
		}
	}
}

func checkImaging(in Input, out *[]model.Finding) {
	for _, f := range in.DocInfo.Fields() {
		if f.Value == nil {
			continue
		}
		value := stringify(f.Value)
		switch {
		case fracturePattern.MatchString(value):
			add(out, RuleImagingFracture, model.SeverityUrgent,
				"%s mentions a possible fracture. Please follow up with a specialist.", f.Key)
		case abnormalPattern.MatchString(value):
			add(out, RuleImagingAbnormal, model.SeverityWarn,
				"%s notes a finding that needs follow-up: %q", f.Key, truncate(value, 80))
		case normalPattern.MatchString(value):
			add(out, RuleImagingNormal, model.SeverityInfo,
				"%s looks normal.", f.Key)
		}
	}
}

func checkECG(in Input, out *[]model.Finding) {
	if v, ok := in.DocInfo.Lookup("Heart Rate"); ok {
		if hr, ok := toNumber(v); ok {
			if hr < 50 || hr > 120 {
				add(out, RuleECGHeartRate, model.SeverityWarn,
					"Heart rate is %s bpm, outside the usual 50-120 range. Consider a check-up.", formatNumber(hr))
			} else {
				add(out, RuleECGHeartRateOK, model.SeverityInfo,
					"Heart rate is %s bpm, within the usual range.", formatNumber(hr))
			}
		}
	}

	if v, ok := in.DocInfo.Lookup("Rhythm"); ok {
		rhythm := stringify(v)
		if afPattern.MatchString(rhythm) {
			add(out, RuleECGAtrialFib, model.SeverityUrgent,
				"Rhythm suggests atrial fibrillation (%s). Please consult a cardiologist.", rhythm)
		}
	}
}

func add(out *[]model.Finding, rule string, severity model.Severity, format string, args ...any) {
	*out = append(*out, newFinding(rule, severity, fmt.Sprintf(format, args...)))
}

func newFinding(rule string, severity model.Severity, text string) model.Finding {
	return model.Finding{
		Rule:     rule,
		Text:     text,
		Severity: severity,
		Actions:  actionsFor(severity),
	}
}

func actionsFor(severity model.Severity) []string {
	switch severity {
	case model.SeverityUrgent:
		return []string{ActionViewRecord, ActionSetReminder}
	case model.SeverityWarn:
		return []string{ActionViewRecord, ActionHealthTips}
	default:
		return nil
	}
}

func fieldText(d model.DocInfo, key string) string {
	v, ok := d.Lookup(key)
	if !ok {
		return "not specified"
	}
	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return "not specified"
	}
	return s
}

func docTypeContains(substrings ...string) func(string) bool {
	return func(docType string) bool {
		for _, s := range substrings {
			if strings.Contains(docType, s) {
				return true
			}
		}
		return false
	}
}

func recordID(in Input) string {
	if in.Record == nil {
		return ""
	}
	return in.Record.ID
}
