package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
)

// ExtractionMetrics records retrieval and extraction outcomes. It satisfies
// ports.ExtractionMetrics and is shared by the api and the worker.
type ExtractionMetrics struct {
	service string

	indicatorTotal     *prometheus.CounterVec
	indicatorAttempts  *prometheus.HistogramVec
	indicatorDuration  *prometheus.HistogramVec
	partitionQueries   *prometheus.CounterVec
	breakerTransitions *prometheus.CounterVec
}

func newExtractionMetrics(service string, registry prometheus.Registerer) *ExtractionMetrics {
	m := &ExtractionMetrics{
		service: service,
		indicatorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "esg",
				Subsystem: "extraction",
				Name:      "indicators_total",
				Help:      "Resolved indicators by terminal status.",
			},
			[]string{"service", "status"},
		),
		indicatorAttempts: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "esg",
				Subsystem: "extraction",
				Name:      "indicator_attempts",
				Help:      "Questions asked per indicator before resolution.",
				Buckets:   []float64{0, 1, 2, 3, 4, 5},
			},
			[]string{"service"},
		),
		indicatorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "esg",
				Subsystem: "extraction",
				Name:      "indicator_duration_seconds",
				Help:      "Time spent resolving one indicator.",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"service", "status"},
		),
		partitionQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "esg",
				Subsystem: "retrieval",
				Name:      "partition_queries_total",
				Help:      "Similarity sub-queries by outcome.",
			},
			[]string{"service", "outcome"},
		),
		breakerTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "esg",
				Subsystem: "resilience",
				Name:      "breaker_transitions_total",
				Help:      "Circuit breaker state transitions.",
			},
			[]string{"service", "operation", "to"},
		),
	}
	registry.MustRegister(
		m.indicatorTotal,
		m.indicatorAttempts,
		m.indicatorDuration,
		m.partitionQueries,
		m.breakerTransitions,
	)
	return m
}

func (m *ExtractionMetrics) RecordIndicator(status domain.IndicatorStatus, attempts int, duration time.Duration) {
	if m == nil {
		return
	}
	s := string(status)
	if s == "" {
		s = "unknown"
	}
	m.indicatorTotal.WithLabelValues(m.service, s).Inc()
	m.indicatorAttempts.WithLabelValues(m.service).Observe(float64(attempts))
	m.indicatorDuration.WithLabelValues(m.service, s).Observe(duration.Seconds())
}

func (m *ExtractionMetrics) RecordPartitionQuery(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.partitionQueries.WithLabelValues(m.service, outcome).Inc()
}

// RecordBreakerTransition matches resilience.StateObserver.
func (m *ExtractionMetrics) RecordBreakerTransition(operation, _ string, to string) {
	if m == nil {
		return
	}
	m.breakerTransitions.WithLabelValues(m.service, operation, to).Inc()
}
