package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/port"
)

// Compile-time interface check.
var _ port.EvaluationMetrics = (*EvaluationMetrics)(nil)

const meterName = "github.com/l3hautikpatel/credwise-sub000/eligibility"

// scoreBuckets follow the rating band edges.
var scoreBuckets = []float64{300, 580, 670, 740, 800, 850}

// EvaluationMetrics records evaluation outcomes as OpenTelemetry instruments.
// With the Prometheus exporter they surface as credit_evaluations_total,
// credit_prediction_fallbacks_total and credit_score_distribution.
type EvaluationMetrics struct {
	evaluations metric.Int64Counter
	fallbacks   metric.Int64Counter
	scores      metric.Int64Histogram
}

// NewEvaluationMetrics creates the instruments on the provider's meter.
func NewEvaluationMetrics(provider metric.MeterProvider) (*EvaluationMetrics, error) {
	meter := provider.Meter(meterName)

	evaluations, err := meter.Int64Counter("credit_evaluations",
		metric.WithDescription("Completed credit evaluations by decision."))
	if err != nil {
		return nil, fmt.Errorf("create evaluations counter: %w", err)
	}

	fallbacks, err := meter.Int64Counter("credit_prediction_fallbacks",
		metric.WithDescription("Evaluations decided by the rule-based fallback."))
	if err != nil {
		return nil, fmt.Errorf("create fallbacks counter: %w", err)
	}

	scores, err := meter.Int64Histogram("credit_score_distribution",
		metric.WithDescription("Distribution of computed credit scores."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...))
	if err != nil {
		return nil, fmt.Errorf("create score histogram: %w", err)
	}

	return &EvaluationMetrics{
		evaluations: evaluations,
		fallbacks:   fallbacks,
		scores:      scores,
	}, nil
}

// RecordEvaluation counts one completed evaluation.
func (m *EvaluationMetrics) RecordEvaluation(ctx context.Context, decision string, creditScore int, fallback bool) {
	m.evaluations.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", decision)))
	m.scores.Record(ctx, int64(creditScore))
	if fallback {
		m.fallbacks.Add(ctx, 1)
	}
}
