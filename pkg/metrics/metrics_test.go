package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "test")

	m.ObserveIntent("greeting")
	m.ObserveIntent("greeting")
	m.ObserveFinding("urgent")
	m.ObserveRuleFailure()
	m.ObserveCache(true)
	m.ObserveCall("recent_records", time.Now(), errors.New("down"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.IntentsMatched.WithLabelValues("greeting")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FindingsEmitted.WithLabelValues("urgent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RuleFailures))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RecommendationHits.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CollaboratorErrors.WithLabelValues("recent_records")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveIntent("unknown")
		m.ObserveFinding("info")
		m.ObserveRuleFailure()
		m.ObserveCache(false)
		m.ObserveCall("op", time.Now(), nil)
		m.ObserveRequest("GET", "/", "200", time.Millisecond)
		m.ObserveFindingEvent(nil)
	})
}
