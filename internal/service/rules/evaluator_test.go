package rules

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/pkg/logger"
	"github.com/jwalitptl/health-assistant/pkg/metrics"
)

func newTestEvaluator() *Evaluator {
	return NewEvaluator(logger.Nop(), nil)
}

func docInfo(fields ...model.Field) model.DocInfo {
	return model.NewDocInfo(fields...)
}

func f(key string, value any) model.Field {
	return model.Field{Key: key, Value: value}
}

func rulesOf(findings []model.Finding) []string {
	out := make([]string, len(findings))
	for i, fd := range findings {
		out[i] = fd.Rule
	}
	return out
}

func TestHemoglobinLowIsUrgent(t *testing.T) {
	got := newTestEvaluator().Evaluate(Input{
		DocType: "Blood Test",
		DocInfo: docInfo(f("Hemoglobin", 10)),
	})

	require.Len(t, got, 1)
	assert.Equal(t, RuleHbLow, got[0].Rule)
	assert.Equal(t, model.SeverityUrgent, got[0].Severity)
	assert.Contains(t, got[0].Text, "possible anemia")
	assert.Equal(t, []string{ActionViewRecord, ActionSetReminder}, got[0].Actions)
}

func TestBloodPanel(t *testing.T) {
	got := newTestEvaluator().Evaluate(Input{
		DocType: "Blood Test",
		DocInfo: docInfo(f("Hemoglobin", "13"), f("Glucose", 150.0), f("Cholesterol", "250 mg/dL")),
	})

	require.Len(t, got, 3)
	assert.Equal(t, []string{RuleHbOK, RuleGlucoseHigh, RuleCholHigh}, rulesOf(got))
	assert.Equal(t, model.SeverityInfo, got[0].Severity)
	assert.Equal(t, model.SeverityWarn, got[1].Severity)
	assert.Equal(t, model.SeverityWarn, got[2].Severity)
}

func TestBloodPanelBands(t *testing.T) {
	tests := []struct {
		name     string
		field    model.Field
		rule     string
		severity model.Severity
	}{
		{"hb lower bound of slightly low", f("Hemoglobin", 11), RuleHbSlightlyLow, model.SeverityWarn},
		{"hb just under ok", f("Hemoglobin", "12.49"), RuleHbSlightlyLow, model.SeverityWarn},
		{"hb ok bound", f("Hemoglobin", 12.5), RuleHbOK, model.SeverityInfo},
		{"hb text low", f("Hemoglobin", "Low"), RuleHbLowText, model.SeverityWarn},
		{"glucose very high", f("Glucose (mg/dL)", "200"), RuleGlucoseVeryHigh, model.SeverityUrgent},
		{"glucose high lower bound", f("Glucose", 140), RuleGlucoseHigh, model.SeverityWarn},
		{"glucose high upper bound", f("Glucose", 199), RuleGlucoseHigh, model.SeverityWarn},
		{"glucose ok", f("Glucose", "95 mg/dL"), RuleGlucoseOK, model.SeverityInfo},
		{"cholesterol high bound", f("Cholesterol (mg/dL)", 240), RuleCholHigh, model.SeverityWarn},
		{"cholesterol borderline is info", f("Cholesterol", 239), RuleCholBorderline, model.SeverityInfo},
		{"cholesterol borderline lower bound", f("Cholesterol", 200), RuleCholBorderline, model.SeverityInfo},
		{"cholesterol ok", f("Cholesterol", 180), RuleCholOK, model.SeverityInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestEvaluator().Evaluate(Input{DocType: "blood work", DocInfo: docInfo(tt.field)})
			require.Len(t, got, 1)
			assert.Equal(t, tt.rule, got[0].Rule)
			assert.Equal(t, tt.severity, got[0].Severity)
		})
	}
}

func TestGlucosePrefersUnitKey(t *testing.T) {
	got := newTestEvaluator().Evaluate(Input{
		DocType: "Blood Test",
		DocInfo: docInfo(f("Glucose", 90), f("Glucose (mg/dL)", 210)),
	})

	assert.Equal(t, []string{RuleGlucoseVeryHigh}, rulesOf(got))
}

func TestNonNumericBloodValuesAreSkipped(t *testing.T) {
	got := newTestEvaluator().Evaluate(Input{
		DocType: "Blood Test",
		DocInfo: docInfo(f("Hemoglobin", "pending"), f("Glucose", ""), f("Cholesterol", nil)),
	})

	assert.Equal(t, []string{RuleNoFlags}, rulesOf(got))
}

func TestPharmacy(t *testing.T) {
	t.Run("antibiotic with long duration", func(t *testing.T) {
		got := newTestEvaluator().Evaluate(Input{
			DocType: "Pharmacy",
			DocInfo: docInfo(f("Medicine Name", "Amoxicillin (Antibiotics)"), f("Dosage", "500mg"), f("Duration", "5 days")),
		})

		require.Len(t, got, 2)
		assert.Equal(t, RuleMedAntibiotic, got[0].Rule)
		assert.Equal(t, model.SeverityInfo, got[0].Severity)
		assert.Equal(t, RuleMedLongDuration, got[1].Rule)
		assert.Equal(t, model.SeverityWarn, got[1].Severity)
		assert.Contains(t, got[1].Text, "5 days")
	})

	t.Run("generic medicine", func(t *testing.T) {
		got := newTestEvaluator().Evaluate(Input{
			DocType: "pharmacy receipt",
			DocInfo: docInfo(f("Medicine", "Paracetamol"), f("Dosage", "500mg"), f("Duration", 2)),
		})

		require.Len(t, got, 1)
		assert.Equal(t, RuleMedInfo, got[0].Rule)
		assert.Equal(t, "Paracetamol: dosage 500mg, duration 2. Take it as prescribed.", got[0].Text)
	})

	t.Run("missing dosage", func(t *testing.T) {
		got := newTestEvaluator().Evaluate(Input{
			DocType: "Pharmacy",
			DocInfo: docInfo(f("Medicine Name", "Cetirizine")),
		})

		require.Len(t, got, 1)
		assert.Contains(t, got[0].Text, "dosage not specified, duration not specified")
	})

	t.Run("duration alone", func(t *testing.T) {
		got := newTestEvaluator().Evaluate(Input{
			DocType: "Pharmacy",
			DocInfo: docInfo(f("Duration", "3")),
		})

		assert.Equal(t, []string{RuleMedLongDuration}, rulesOf(got))
	})
}

func TestImaging(t *testing.T) {
	long := "Small mass noted in the upper lobe " + strings.Repeat("with further description ", 5)

	got := newTestEvaluator().Evaluate(Input{
		DocType: "X-Ray",
		DocInfo: docInfo(
			f("Findings", "Hairline FRACTURE of left radius"),
			f("Impression", "Normal alignment"),
			f("Notes", long),
			f("Technician", nil),
			f("Views", 2),
		),
	})

	require.Len(t, got, 3)
	assert.Equal(t, []string{RuleImagingFracture, RuleImagingNormal, RuleImagingAbnormal}, rulesOf(got))
	assert.Equal(t, model.SeverityUrgent, got[0].Severity)
	assert.Equal(t, model.SeverityInfo, got[1].Severity)
	assert.Equal(t, model.SeverityWarn, got[2].Severity)

	want := string([]rune(long)[:80]) + "…"
	assert.Contains(t, got[2].Text, want)
}

func TestImagingShortValueIsNotTruncated(t *testing.T) {
	got := newTestEvaluator().Evaluate(Input{
		DocType: "Ultrasound",
		DocInfo: docInfo(f("Impression", "Small nodule")),
	})

	require.Len(t, got, 1)
	assert.Equal(t, `Impression notes a finding that needs follow-up: "Small nodule"`, got[0].Text)
}

func TestImagingMatchesAnyTypeContainingX(t *testing.T) {
	got := newTestEvaluator().Evaluate(Input{
		DocType: "Annex Report",
		DocInfo: docInfo(f("Summary", "No significant change")),
	})

	assert.Equal(t, []string{RuleImagingNormal}, rulesOf(got))
}

func TestECG(t *testing.T) {
	t.Run("fast rate and atrial fibrillation", func(t *testing.T) {
		got := newTestEvaluator().Evaluate(Input{
			DocType: "ECG",
			DocInfo: docInfo(f("Heart Rate", "130 bpm"), f("Rhythm", "AFib")),
		})

		assert.Equal(t, []string{RuleECGHeartRate, RuleECGAtrialFib}, rulesOf(got))
		assert.Equal(t, model.SeverityWarn, got[0].Severity)
		assert.Equal(t, model.SeverityUrgent, got[1].Severity)
	})

	t.Run("normal tracing also runs imaging rules", func(t *testing.T) {
		got := newTestEvaluator().Evaluate(Input{
			DocType: "ecg",
			DocInfo: docInfo(f("Heart Rate", 72), f("Rhythm", "Normal sinus rhythm")),
		})

		assert.Equal(t, []string{RuleImagingNormal, RuleECGHeartRateOK}, rulesOf(got))
	})

	t.Run("rate bounds are inclusive", func(t *testing.T) {
		for _, hr := range []any{50, 120} {
			got := newTestEvaluator().Evaluate(Input{DocType: "ECG", DocInfo: docInfo(f("Heart Rate", hr))})
			assert.Equal(t, []string{RuleECGHeartRateOK}, rulesOf(got))
		}
		got := newTestEvaluator().Evaluate(Input{DocType: "ECG", DocInfo: docInfo(f("Heart Rate", "49"))})
		assert.Equal(t, []string{RuleECGHeartRate}, rulesOf(got))
	})
}

func TestFallbackAndEmptyDocType(t *testing.T) {
	e := newTestEvaluator()

	got := e.Evaluate(Input{DocType: "Dental", DocInfo: docInfo(f("Notes", "fine"))})
	require.Len(t, got, 1)
	assert.Equal(t, RuleNoFlags, got[0].Rule)
	assert.Equal(t, "No specific flagged findings for this Dental record.", got[0].Text)

	assert.Empty(t, e.Evaluate(Input{DocType: "", DocInfo: docInfo(f("Hemoglobin", 9))}))
	assert.Empty(t, e.Evaluate(Input{DocType: "   "}))
}

func TestMalformedDocInfoBehavesLikeEmpty(t *testing.T) {
	e := newTestEvaluator()
	want := e.Evaluate(Input{DocType: "Blood Test", DocInfo: model.DocInfo{}})

	for _, raw := range []string{"", "null", "[1,2]", "42", "{broken", `"text"`} {
		got := e.Evaluate(Input{DocType: "Blood Test", DocInfo: model.ParseDocInfo([]byte(raw))})
		assert.Equal(t, want, got, raw)
	}
}

func TestEvaluateTagsRecordAndDoesNotMutate(t *testing.T) {
	docType := "Blood Test"
	d := docInfo(f("Hemoglobin", "9.5"))
	record := &model.MedicalRecord{ID: "rec-7", DocType: &docType, DocInfo: d}

	got := newTestEvaluator().Evaluate(Input{Record: record, DocInfo: record.DocInfo, DocType: docType, UserID: "u1"})

	require.Len(t, got, 1)
	assert.Equal(t, "rec-7", got[0].RecordID)
	v, _ := record.DocInfo.Get("Hemoglobin")
	assert.Equal(t, "9.5", v)
}

func TestEvaluatorRecoversFromPanics(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry(), "test")
	e := NewEvaluator(logger.Nop(), m)
	e.categories = append(e.categories, category{
		name:    "broken",
		applies: func(string) bool { return true },
		check:   func(Input, *[]model.Finding) { panic("bad rule") },
	})

	var got []model.Finding
	require.NotPanics(t, func() {
		got = e.Evaluate(Input{
			Record:  &model.MedicalRecord{ID: "rec-1"},
			DocType: "Blood Test",
			DocInfo: docInfo(f("Hemoglobin", 10)),
		})
	})

	require.Len(t, got, 1)
	assert.Equal(t, RuleEvaluationFailed, got[0].Rule)
	assert.Equal(t, "Failed to evaluate rules for this record", got[0].Text)
	assert.Equal(t, model.SeverityInfo, got[0].Severity)
	assert.Equal(t, "rec-1", got[0].RecordID)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RuleFailures))
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{nil, 0, false},
		{12.5, 12.5, true},
		{"12.5 g/dL", 12.5, true},
		{"1,200", 1200, true},
		{"-3", -3, true},
		{"12.5.3", 12.5, true},
		{".5", 0.5, true},
		{"n/a", 0, false},
		{"-", 0, false},
		{true, 0, false},
		{7, 7, true},
	}
	for _, tt := range tests {
		got, ok := toNumber(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, "%v", tt.in)
		}
	}
}
