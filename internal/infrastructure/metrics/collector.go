package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyjia/content-validation/internal/application/dispatcher"
	"github.com/garyjia/content-validation/internal/domain/event"
)

const defaultNamespace = "content_validation"

// Collector turns lifecycle events into Prometheus metrics on its own registry
type Collector struct {
	registry *prometheus.Registry

	validationsTotal   *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	qualityScore       prometheus.Histogram
	activeValidations  prometheus.Gauge
	validatorRuns      *prometheus.CounterVec
	validatorDuration  *prometheus.HistogramVec
	findingsTotal      *prometheus.CounterVec
	tokensTotal        prometheus.Counter
	costTotal          prometheus.Counter
	reviewRequests     prometheus.Counter
}

// NewCollector creates and registers the metrics. A nil registry gets a
// fresh one carrying the Go and process collectors.
func NewCollector(namespace string, registry *prometheus.Registry) *Collector {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	c := &Collector{
		registry: registry,
		validationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Completed validations by content type and final status",
			},
			[]string{"content_type", "status"},
		),
		validationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validation_duration_seconds",
				Help:      "Wall time of a validation",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"content_type"},
		),
		qualityScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "quality_score",
				Help:      "Overall quality score of completed validations",
				Buckets:   prometheus.LinearBuckets(0, 10, 11),
			},
		),
		activeValidations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_validations",
				Help:      "Validations currently running",
			},
		),
		validatorRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validator_runs_total",
				Help:      "Validator executions by validator and result status",
			},
			[]string{"validator_id", "status"},
		),
		validatorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validator_duration_seconds",
				Help:      "Execution time of a single validator",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"validator_id"},
		),
		findingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "findings_total",
				Help:      "Findings reported per validator",
			},
			[]string{"validator_id"},
		),
		tokensTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_tokens_total",
				Help:      "Provider tokens consumed by validators",
			},
		),
		costTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_cost_total",
				Help:      "Estimated provider cost in USD",
			},
		),
		reviewRequests: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "review_requests_total",
				Help:      "Validations escalated to human review",
			},
		),
	}

	registry.MustRegister(
		c.validationsTotal,
		c.validationDuration,
		c.qualityScore,
		c.activeValidations,
		c.validatorRuns,
		c.validatorDuration,
		c.findingsTotal,
		c.tokensTotal,
		c.costTotal,
		c.reviewRequests,
	)
	return c
}

// Subscribe registers the collector for every lifecycle event
func (c *Collector) Subscribe(d dispatcher.Dispatcher) {
	for _, t := range []event.Type{
		event.TypeValidationStarted,
		event.TypeValidatorCompleted,
		event.TypeValidationCompleted,
		event.TypeReviewRequested,
	} {
		d.SubscribeNamed(t, "metrics", c.HandleEvent)
	}
}

// HandleEvent records one event
func (c *Collector) HandleEvent(ctx context.Context, evt *event.Event) error {
	switch evt.Type {
	case event.TypeValidationStarted:
		c.activeValidations.Inc()

	case event.TypeValidatorCompleted:
		id := evt.GetPayloadString(event.KeyValidatorID)
		c.validatorRuns.WithLabelValues(id, evt.GetPayloadString(event.KeyStatus)).Inc()
		c.validatorDuration.WithLabelValues(id).Observe(evt.GetPayloadFloat(event.KeyDurationSeconds))
		c.findingsTotal.WithLabelValues(id).Add(float64(evt.GetPayloadInt(event.KeyFindings)))
		c.tokensTotal.Add(float64(evt.GetPayloadInt(event.KeyTokensUsed)))
		if cost := evt.GetPayloadFloat(event.KeyCost); cost > 0 {
			c.costTotal.Add(cost)
		}

	case event.TypeValidationCompleted:
		c.activeValidations.Dec()
		contentType := evt.GetPayloadString(event.KeyContentType)
		c.validationsTotal.WithLabelValues(contentType, evt.GetPayloadString(event.KeyStatus)).Inc()
		c.validationDuration.WithLabelValues(contentType).Observe(evt.GetPayloadFloat(event.KeyDurationSeconds))
		c.qualityScore.Observe(evt.GetPayloadFloat(event.KeyQualityScore))

	case event.TypeReviewRequested:
		c.reviewRequests.Inc()
	}
	return nil
}

// Registry returns the registry the metrics live in
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler exposes the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
