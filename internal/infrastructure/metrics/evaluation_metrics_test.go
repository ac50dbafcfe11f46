package metrics_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/metrics"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestEvaluationMetrics_RecordEvaluation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := metrics.NewEvaluationMetrics(provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordEvaluation(ctx, "APPROVED", 817, false)
	m.RecordEvaluation(ctx, "APPROVED", 702, true)
	m.RecordEvaluation(ctx, "DENIED", 540, false)

	got := collect(t, reader)

	evaluations, ok := got["credit_evaluations"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byDecision := map[string]int64{}
	for _, dp := range evaluations.DataPoints {
		decision, _ := dp.Attributes.Value(attribute.Key("decision"))
		byDecision[decision.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"APPROVED": 2, "DENIED": 1}, byDecision)

	fallbacks, ok := got["credit_prediction_fallbacks"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, fallbacks.DataPoints, 1)
	assert.Equal(t, int64(1), fallbacks.DataPoints[0].Value)

	scores, ok := got["credit_score_distribution"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, scores.DataPoints, 1)
	assert.Equal(t, uint64(3), scores.DataPoints[0].Count)
	assert.Equal(t, int64(817+702+540), scores.DataPoints[0].Sum)
}
