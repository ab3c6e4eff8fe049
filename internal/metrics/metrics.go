package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/koekalenteri/qualification/internal/logger"
)

// Metrics provides observability for qualification checks.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Qualification outcomes by event type, class and verdict
	Outcomes *prometheus.CounterVec

	// Duration of a qualification check including result loading
	EvaluateLatency prometheus.Histogram

	// Result cache lookups by outcome
	CacheLookups *prometheus.CounterVec
}

// New creates the qualification metrics and registers them with reg.
// A nil reg registers with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	registerLogCounters(factory)

	return &Metrics{
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qualification_outcomes_total",
			Help: "Total qualification outcomes by event type, class and verdict",
		}, []string{"event_type", "class", "qualifies"}),

		EvaluateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "qualification_evaluate_duration_seconds",
			Help:    "Duration of qualification checks including result loading",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qualification_results_cache_lookups_total",
			Help: "Result cache lookups by outcome",
		}, []string{"outcome"}), // outcome: "hit", "miss", "error"
	}
}

// registerLogCounters exports the error counters kept by the logger, which
// count every error and warning including the ones sampling drops
func registerLogCounters(factory promauto.Factory) {
	counter := func(name, help string, labels prometheus.Labels, v interface{ Load() int64 }) {
		factory.NewCounterFunc(prometheus.CounterOpts{
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return float64(v.Load()) })
	}

	counter("qualification_log_errors_total", "Errors logged, sampled or not", nil, &logger.TotalErrors)
	counter("qualification_log_warnings_total", "Warnings logged, sampled or not", nil, &logger.TotalWarnings)

	const httpErrors, httpHelp = "qualification_http_errors_total", "HTTP error responses by status"
	counter(httpErrors, httpHelp, prometheus.Labels{"status": "5xx"}, &logger.Total5xxErrors)
	counter(httpErrors, httpHelp, prometheus.Labels{"status": "4xx"}, &logger.Total4xxErrors)
	counter(httpErrors, httpHelp, prometheus.Labels{"status": "400"}, &logger.Total400Errors)
	counter(httpErrors, httpHelp, prometheus.Labels{"status": "404"}, &logger.Total404Errors)
	counter(httpErrors, httpHelp, prometheus.Labels{"status": "409"}, &logger.Total409Errors)
}

// IncrementOutcome records a qualification verdict.
func (m *Metrics) IncrementOutcome(eventType, class string, qualifies bool) {
	if m != nil {
		m.Outcomes.WithLabelValues(eventType, class, strconv.FormatBool(qualifies)).Inc()
	}
}

// ObserveEvaluateLatency records the duration of a qualification check.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

// IncrementCacheLookup records a result cache lookup.
func (m *Metrics) IncrementCacheLookup(outcome string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(outcome).Inc()
	}
}
