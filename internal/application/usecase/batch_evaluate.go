package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/l3hautikpatel/credwise-sub000/internal/application/dto"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/port"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/service"
)

const (
	defaultBatchWorkers = 4
	defaultReportName   = "credit-decisions.xlsx"
	defaultLinkTTL      = 24 * time.Hour
)

// BatchEvaluateUseCase evaluates every applicant row of a workbook and
// produces a decision report. Rows that cannot be evaluated are reported,
// never fatal.
type BatchEvaluateUseCase struct {
	evaluator *service.Evaluator
	workbook  port.ApplicantWorkbook
	repo      port.EvaluationRepository
	store     port.ReportStore
	metrics   port.EvaluationMetrics
	workers   int
	logger    *slog.Logger
	now       func() time.Time
}

// NewBatchEvaluateUseCase wires dependencies. repo, store and metrics may be
// nil: evaluations are then not persisted, reports not uploaded and outcomes
// not counted.
func NewBatchEvaluateUseCase(
	evaluator *service.Evaluator,
	workbook port.ApplicantWorkbook,
	repo port.EvaluationRepository,
	store port.ReportStore,
	metrics port.EvaluationMetrics,
	workers int,
	logger *slog.Logger,
) *BatchEvaluateUseCase {
	if workers <= 0 {
		workers = defaultBatchWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchEvaluateUseCase{
		evaluator: evaluator,
		workbook:  workbook,
		repo:      repo,
		store:     store,
		metrics:   metrics,
		workers:   workers,
		logger:    logger,
		now:       time.Now,
	}
}

// Execute runs the batch. Report rows keep the order of the input rows.
func (uc *BatchEvaluateUseCase) Execute(
	ctx context.Context,
	req dto.BatchEvaluateRequest,
) (dto.BatchEvaluateResponse, error) {
	ctx, span := tracer.Start(ctx, "BatchEvaluate")
	resp, err := uc.execute(ctx, req)
	if err == nil {
		span.SetAttributes(
			attribute.Int("batch.total", resp.Total),
			attribute.Int("batch.failed", resp.Failed),
		)
	}
	endSpan(span, err)
	return resp, err
}

func (uc *BatchEvaluateUseCase) execute(ctx context.Context, req dto.BatchEvaluateRequest) (dto.BatchEvaluateResponse, error) {
	// 1. Read applicants.
	applicants, err := uc.workbook.ReadApplicants(req.Workbook, req.Sheet)
	if err != nil {
		return dto.BatchEvaluateResponse{}, fmt.Errorf("read workbook: %w", err)
	}

	// 2. Evaluate rows concurrently; each worker writes only its own slot.
	rows := make([]port.ReportRow, len(applicants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for i, fields := range applicants {
		g.Go(func() error {
			row, err := uc.evaluateRow(gctx, i+1, fields)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dto.BatchEvaluateResponse{}, fmt.Errorf("evaluate rows: %w", err)
	}

	resp := dto.BatchEvaluateResponse{Total: len(rows)}
	for _, r := range rows {
		switch {
		case r.Error != "":
			resp.Failed++
		case r.Decision == "APPROVED":
			resp.Approved++
			resp.Evaluated++
		default:
			resp.Evaluated++
		}
	}

	// 3. Render the report.
	report, err := uc.workbook.WriteReport(rows)
	if err != nil {
		return dto.BatchEvaluateResponse{}, fmt.Errorf("write report: %w", err)
	}
	resp.Report = report

	// 4. Upload.
	if req.Upload && uc.store != nil {
		name := req.ReportName
		if name == "" {
			name = defaultReportName
		}
		key, err := uc.store.Upload(ctx, name, report)
		if err != nil {
			return dto.BatchEvaluateResponse{}, fmt.Errorf("upload report: %w", err)
		}
		resp.ReportKey = key

		ttl := req.LinkTTL
		if ttl <= 0 {
			ttl = defaultLinkTTL
		}
		url, err := uc.store.PresignedURL(ctx, key, ttl)
		if err != nil {
			return dto.BatchEvaluateResponse{}, fmt.Errorf("presign report: %w", err)
		}
		resp.ReportURL = url
	}

	uc.logger.InfoContext(ctx, "batch evaluation completed",
		"total", resp.Total,
		"evaluated", resp.Evaluated,
		"approved", resp.Approved,
		"failed", resp.Failed,
		"report_key", resp.ReportKey,
	)
	return resp, nil
}

// evaluateRow only returns an error for failures that must stop the batch:
// cancellation and persistence errors.
func (uc *BatchEvaluateUseCase) evaluateRow(ctx context.Context, n int, fields map[string]any) (port.ReportRow, error) {
	if err := ctx.Err(); err != nil {
		return port.ReportRow{}, err
	}

	row := port.ReportRow{Row: n}
	profile, result, err := uc.evaluator.EvaluateApplicant(ctx, fields, nil)
	if err != nil {
		if !errors.Is(err, model.ErrProfileIncomplete) {
			return port.ReportRow{}, fmt.Errorf("row %d: %w", n, err)
		}
		uc.logger.WarnContext(ctx, "skipping incomplete applicant row", "row", n, "error", err)
		row.Error = err.Error()
		return row, nil
	}

	evaluation, err := model.NewCreditEvaluation(profile, result, uc.now())
	if err != nil {
		row.Error = err.Error()
		return row, nil
	}
	if uc.repo != nil {
		if err := uc.repo.Save(ctx, evaluation); err != nil {
			return port.ReportRow{}, fmt.Errorf("row %d: save evaluation: %w", n, err)
		}
	}
	if uc.metrics != nil {
		uc.metrics.RecordEvaluation(ctx, result.Decision().String(), result.CreditScore(), result.UsedFallback())
	}

	row.ApplicantReference = profile.ApplicantReference()
	row.EvaluationID = evaluation.ID()
	row.CreditScore = result.CreditScore()
	row.CreditRating = result.CreditScoreRating().Label()
	row.DTI = result.DTI().StringFixed(4)
	row.EligibilityScore = result.EligibilityScore()
	row.Decision = result.Decision().String()
	row.ApprovedAmount = result.ApprovedAmount().StringFixed(2)
	row.InterestRate = result.InterestRate().StringFixed(4)
	row.EMI = result.EMI().StringFixed(2)
	row.Fallback = result.UsedFallback()
	return row, nil
}
