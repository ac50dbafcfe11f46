package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/l3hautikpatel/credwise-sub000/internal/application/dto"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/port"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/service"
)

// EvaluateApplicationUseCase evaluates one applicant submission, records the
// evaluation and announces it.
type EvaluateApplicationUseCase struct {
	evaluator *service.Evaluator
	repo      port.EvaluationRepository
	publisher port.EventPublisher
	metrics   port.EvaluationMetrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewEvaluateApplicationUseCase wires dependencies. metrics may be nil.
func NewEvaluateApplicationUseCase(
	evaluator *service.Evaluator,
	repo port.EvaluationRepository,
	publisher port.EventPublisher,
	metrics port.EvaluationMetrics,
	logger *slog.Logger,
) *EvaluateApplicationUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluateApplicationUseCase{
		evaluator: evaluator,
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Execute evaluates, persists and publishes. Only an incomplete profile or a
// persistence failure is returned as an error; a publish failure is logged.
func (uc *EvaluateApplicationUseCase) Execute(
	ctx context.Context,
	req dto.EvaluateRequest,
) (dto.EvaluationResponse, error) {
	ctx, span := tracer.Start(ctx, "EvaluateApplication")
	resp, err := uc.execute(ctx, req)
	if err == nil {
		span.SetAttributes(
			attribute.String("evaluation.id", resp.ID),
			attribute.String("evaluation.decision", resp.Decision),
			attribute.Int("evaluation.credit_score", resp.CreditScore),
		)
	}
	endSpan(span, err)
	return resp, err
}

func (uc *EvaluateApplicationUseCase) execute(ctx context.Context, req dto.EvaluateRequest) (dto.EvaluationResponse, error) {
	// 1. Evaluate.
	profile, result, err := uc.evaluator.EvaluateApplicant(ctx, req.Profile, req.Prior)
	if err != nil {
		return dto.EvaluationResponse{}, fmt.Errorf("normalize profile: %w", err)
	}

	// 2. Record the evaluation aggregate.
	evaluation, err := model.NewCreditEvaluation(profile, result, uc.now())
	if err != nil {
		return dto.EvaluationResponse{}, fmt.Errorf("record evaluation: %w", err)
	}

	// 3. Persist.
	if err := uc.repo.Save(ctx, evaluation); err != nil {
		return dto.EvaluationResponse{}, fmt.Errorf("save evaluation: %w", err)
	}

	// 4. Publish domain events.
	if err := uc.publisher.Publish(ctx, evaluation.DomainEvents()...); err != nil {
		uc.logger.ErrorContext(ctx, "failed to publish evaluation events",
			"evaluation_id", evaluation.ID(),
			"error", err,
		)
	}

	// 5. Record metrics.
	if uc.metrics != nil {
		uc.metrics.RecordEvaluation(ctx, result.Decision().String(), result.CreditScore(), result.UsedFallback())
	}

	uc.logger.InfoContext(ctx, "credit evaluation completed",
		"evaluation_id", evaluation.ID(),
		"decision", result.Decision().String(),
		"credit_score", result.CreditScore(),
		"fallback", result.UsedFallback(),
	)

	return toEvaluationResponse(evaluation), nil
}
