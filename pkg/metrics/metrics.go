package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Assistant core
	IntentsMatched     *prometheus.CounterVec
	FindingsEmitted    *prometheus.CounterVec
	RuleFailures       prometheus.Counter
	RecommendationHits *prometheus.CounterVec

	// Collaborators
	CollaboratorLatency *prometheus.HistogramVec
	CollaboratorErrors  *prometheus.CounterVec

	// HTTP
	RequestTotal    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Worker
	FindingEventsLogged prometheus.Counter
	FindingEventsFailed prometheus.Counter
}

// NewMetrics creates all application metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		IntentsMatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "intents_matched_total",
			Help:      "Total number of user messages classified, by intent",
		}, []string{"intent"}),
		FindingsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "findings_emitted_total",
			Help:      "Total number of findings produced by the rule evaluator, by severity",
		}, []string{"severity"}),
		RuleFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "evaluation_failures_total",
			Help:      "Total number of records whose rule evaluation failed",
		}),
		RecommendationHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommendation",
			Name:      "cache_requests_total",
			Help:      "Recommendation cache lookups, by result",
		}, []string{"result"}),

		CollaboratorLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "collaborator",
			Name:      "call_duration_seconds",
			Help:      "Duration of record store calls",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),
		CollaboratorErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collaborator",
			Name:      "errors_total",
			Help:      "Total number of failed record store calls",
		}, []string{"operation"}),

		RequestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		FindingEventsLogged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "finding_events_logged_total",
			Help:      "Total number of urgent finding events written to the findings log",
		}),
		FindingEventsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "finding_events_failed_total",
			Help:      "Total number of urgent finding events that could not be logged",
		}),
	}
}

func (m *Metrics) ObserveIntent(intent string) {
	if m == nil {
		return
	}
	m.IntentsMatched.WithLabelValues(intent).Inc()
}

func (m *Metrics) ObserveFinding(severity string) {
	if m == nil {
		return
	}
	m.FindingsEmitted.WithLabelValues(severity).Inc()
}

func (m *Metrics) ObserveRuleFailure() {
	if m == nil {
		return
	}
	m.RuleFailures.Inc()
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.RecommendationHits.WithLabelValues(result).Inc()
}

// ObserveCall records the latency and outcome of a collaborator call.
func (m *Metrics) ObserveCall(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.CollaboratorLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		m.CollaboratorErrors.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) ObserveRequest(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) ObserveFindingEvent(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.FindingEventsFailed.Inc()
		return
	}
	m.FindingEventsLogged.Inc()
}
