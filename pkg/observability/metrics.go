package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vikashrahii/pipeline/pkg/domain"
)

// Metrics holds the editor's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	reconciles         *prometheus.CounterVec
	reconcileDuration  prometheus.Histogram
	variablesPerNode   prometheus.Histogram
	submissions        *prometheus.CounterVec
	submissionDuration prometheus.Histogram
}

// NewMetrics creates and registers the collectors, plus the Go runtime collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reconciles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_text_reconciles_total",
				Help: "Text node reconciliations by outcome and number of layout passes",
			},
			[]string{"outcome", "passes"},
		),
		reconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_text_reconcile_duration_seconds",
			Help:    "Duration of text node reconciliations",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
		variablesPerNode: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_text_variables",
			Help:    "Variables detected per reconciled text",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
		}),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_submissions_total",
				Help: "Pipeline submissions by outcome",
			},
			[]string{"outcome"},
		),
		submissionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "pipeline_submission_duration_seconds",
			Help: "Round trip time of pipeline submissions",
		}),
	}

	m.registry.MustRegister(
		m.reconciles,
		m.reconcileDuration,
		m.variablesPerNode,
		m.submissions,
		m.submissionDuration,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the private registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks records every reconciliation and submission.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnReconcile: func(_ context.Context, e *domain.ReconcileEvent) {
			if e.Err != nil {
				m.reconciles.WithLabelValues("error", "0").Inc()
				return
			}
			m.reconciles.WithLabelValues("ok", passesLabel(e.Passes)).Inc()
			m.reconcileDuration.Observe(e.Duration.Seconds())
			m.variablesPerNode.Observe(float64(e.Variables))
		},
		OnSubmit: func(_ context.Context, e *domain.SubmitEvent) {
			m.submissionDuration.Observe(e.Duration.Seconds())
			switch {
			case e.Err != nil:
				m.submissions.WithLabelValues("error").Inc()
			case e.IsDAG:
				m.submissions.WithLabelValues("dag").Inc()
			default:
				m.submissions.WithLabelValues("cyclic").Inc()
			}
		},
	}
}

func passesLabel(p int) string {
	if p >= 2 {
		return "2"
	}
	return "1"
}
