package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/l3hautikpatel/credwise-sub000/internal/application/dto"
	"github.com/l3hautikpatel/credwise-sub000/internal/application/usecase"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/service"
)

func TestEvaluateApplication_Spans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	uc := usecase.NewEvaluateApplicationUseCase(
		service.NewEvaluator(), &mockEvaluationRepository{}, &mockEventPublisher{}, nil, nil,
	)

	resp, err := uc.Execute(context.Background(), dto.EvaluateRequest{Profile: referenceProfile()})
	require.NoError(t, err)
	_, err = uc.Execute(context.Background(), dto.EvaluateRequest{Profile: map[string]any{"loanType": "Auto Loan"}})
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	ok := spans[0]
	assert.Equal(t, "EvaluateApplication", ok.Name)
	assert.Equal(t, codes.Unset, ok.Status.Code)
	assert.Contains(t, ok.Attributes, attribute.String("evaluation.id", resp.ID))
	assert.Contains(t, ok.Attributes, attribute.String("evaluation.decision", "APPROVED"))

	failed := spans[1]
	assert.Equal(t, codes.Error, failed.Status.Code)
	assert.NotEmpty(t, failed.Events, "error is recorded on the span")
}
