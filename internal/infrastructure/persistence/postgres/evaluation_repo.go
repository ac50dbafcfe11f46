package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/port"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/valueobject"
	pkgpostgres "github.com/l3hautikpatel/credwise-sub000/pkg/postgres"
)

// Compile-time interface check.
var _ port.EvaluationRepository = (*EvaluationRepo)(nil)

// EvaluationRepo implements port.EvaluationRepository.
type EvaluationRepo struct {
	pool *pgxpool.Pool
}

// NewEvaluationRepo creates a new repository backed by PostgreSQL.
func NewEvaluationRepo(pool *pgxpool.Pool) *EvaluationRepo {
	return &EvaluationRepo{pool: pool}
}

// Save inserts an evaluation and its decision factors in one transaction.
// Evaluations are immutable; saving an existing ID is an error.
func (r *EvaluationRepo) Save(ctx context.Context, e model.CreditEvaluation) error {
	res := e.Result()

	prediction, err := marshalPrediction(res)
	if err != nil {
		return err
	}
	warnings, err := json.Marshal(nonNilWarnings(res.Warnings()))
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}
	schedule, err := json.Marshal(toScheduleRows(res.Schedule()))
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}

	return pkgpostgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO credit_evaluations (
				id, applicant_reference, loan_type, requested_amount, tenure_months,
				credit_score, credit_rating, dti, dti_rating, eligibility_score,
				decision, approved_amount, interest_rate, emi, used_fallback,
				prediction, warnings, schedule, evaluated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		`
		_, err := tx.Exec(ctx, query,
			e.ID(), e.ApplicantReference(), e.LoanType().String(),
			e.RequestedAmount(), e.TenureMonths(),
			res.CreditScore(), res.CreditScoreRating().String(),
			res.DTI(), res.DTIRating().String(), res.EligibilityScore(),
			res.Decision().String(), res.ApprovedAmount(), res.InterestRate(), res.EMI(),
			res.UsedFallback(),
			prediction, warnings, schedule, e.EvaluatedAt(),
		)
		if pkgpostgres.IsUniqueViolation(err) {
			return fmt.Errorf("evaluation %s: %w", e.ID(), model.ErrEvaluationExists)
		}
		if err != nil {
			return fmt.Errorf("insert credit evaluation: %w", err)
		}

		batch := &pgx.Batch{}
		for i, f := range res.DecisionFactors() {
			batch.Queue(`
				INSERT INTO decision_factors (evaluation_id, position, factor, impact, description)
				VALUES ($1,$2,$3,$4,$5)
			`, e.ID(), i, f.Factor(), f.Impact().String(), f.Description())
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert decision factors: %w", err)
		}
		return nil
	})
}

// FindByID retrieves a single evaluation with its factors. IDs that are not
// UUIDs cannot exist and are reported as not found.
func (r *EvaluationRepo) FindByID(ctx context.Context, id string) (model.CreditEvaluation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.CreditEvaluation{}, model.ErrEvaluationNotFound
	}
	query := selectEvaluations + ` WHERE id = $1`
	row, err := scanEvaluation(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.CreditEvaluation{}, model.ErrEvaluationNotFound
	}
	if err != nil {
		return model.CreditEvaluation{}, err
	}

	factors, err := loadFactors(ctx, r.pool, []string{id})
	if err != nil {
		return model.CreditEvaluation{}, err
	}
	return row.toModel(factors[id])
}

// FindByApplicant retrieves the most recent evaluations of one applicant.
func (r *EvaluationRepo) FindByApplicant(ctx context.Context, applicantReference string, limit int) ([]model.CreditEvaluation, error) {
	query := selectEvaluations + `
		WHERE applicant_reference = $1
		ORDER BY evaluated_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, applicantReference, limit)
	if err != nil {
		return nil, fmt.Errorf("query credit evaluations: %w", err)
	}
	defer rows.Close()

	var scanned []evaluationRow
	for rows.Next() {
		row, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		scanned = append(scanned, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit evaluations: %w", err)
	}
	if len(scanned) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(scanned))
	for _, row := range scanned {
		ids = append(ids, row.id)
	}
	factors, err := loadFactors(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}

	result := make([]model.CreditEvaluation, 0, len(scanned))
	for _, row := range scanned {
		e, err := row.toModel(factors[row.id])
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

func loadFactors(ctx context.Context, q pkgpostgres.Querier, ids []string) (map[string][]model.DecisionFactor, error) {
	query := `
		SELECT evaluation_id::text, factor, impact, description
		FROM decision_factors
		WHERE evaluation_id = ANY($1::uuid[])
		ORDER BY evaluation_id, position
	`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query decision factors: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]model.DecisionFactor, len(ids))
	for rows.Next() {
		var evaluationID, factor, impactStr, description string
		if err := rows.Scan(&evaluationID, &factor, &impactStr, &description); err != nil {
			return nil, fmt.Errorf("scan decision factor: %w", err)
		}
		impact, err := valueobject.NewImpact(impactStr)
		if err != nil {
			return nil, fmt.Errorf("parse factor impact: %w", err)
		}
		out[evaluationID] = append(out[evaluationID], model.NewDecisionFactor(factor, impact, description))
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// scan helpers
// ---------------------------------------------------------------------------

const selectEvaluations = `
	SELECT id::text, applicant_reference, loan_type, requested_amount, tenure_months,
	       credit_score, credit_rating, dti, dti_rating, eligibility_score,
	       decision, approved_amount, interest_rate, emi,
	       prediction, warnings, schedule, evaluated_at
	FROM credit_evaluations
`

type scannable interface {
	Scan(dest ...any) error
}

type evaluationRow struct {
	id, applicantReference, loanType string
	requestedAmount                  decimal.Decimal
	tenureMonths                     int
	creditScore                      int
	creditRating                     string
	dti                              decimal.Decimal
	dtiRating                        string
	eligibilityScore                 int
	decision                         string
	approvedAmount                   decimal.Decimal
	interestRate                     decimal.Decimal
	emi                              decimal.Decimal
	prediction, warnings, schedule   []byte
	evaluatedAt                      time.Time
}

func scanEvaluation(s scannable) (evaluationRow, error) {
	var row evaluationRow
	err := s.Scan(
		&row.id, &row.applicantReference, &row.loanType, &row.requestedAmount, &row.tenureMonths,
		&row.creditScore, &row.creditRating, &row.dti, &row.dtiRating, &row.eligibilityScore,
		&row.decision, &row.approvedAmount, &row.interestRate, &row.emi,
		&row.prediction, &row.warnings, &row.schedule, &row.evaluatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return evaluationRow{}, err
	}
	if err != nil {
		return evaluationRow{}, fmt.Errorf("scan credit evaluation: %w", err)
	}
	return row, nil
}

func (row evaluationRow) toModel(factors []model.DecisionFactor) (model.CreditEvaluation, error) {
	rating, err := valueobject.NewCreditRating(row.creditRating)
	if err != nil {
		return model.CreditEvaluation{}, fmt.Errorf("parse credit rating: %w", err)
	}
	dtiRating, err := valueobject.NewImpact(row.dtiRating)
	if err != nil {
		return model.CreditEvaluation{}, fmt.Errorf("parse dti rating: %w", err)
	}
	decision, err := valueobject.NewDecision(row.decision)
	if err != nil {
		return model.CreditEvaluation{}, fmt.Errorf("parse decision: %w", err)
	}

	var prediction *model.Prediction
	if len(row.prediction) > 0 {
		var p predictionRow
		if err := json.Unmarshal(row.prediction, &p); err != nil {
			return model.CreditEvaluation{}, fmt.Errorf("unmarshal prediction: %w", err)
		}
		pred := p.toModel()
		prediction = &pred
	}

	var warnings []model.NormalizationWarning
	if err := json.Unmarshal(row.warnings, &warnings); err != nil {
		return model.CreditEvaluation{}, fmt.Errorf("unmarshal warnings: %w", err)
	}

	var schedule []scheduleRow
	if err := json.Unmarshal(row.schedule, &schedule); err != nil {
		return model.CreditEvaluation{}, fmt.Errorf("unmarshal schedule: %w", err)
	}

	result := model.NewCreditEvaluationResult(model.CreditEvaluationResultParams{
		CreditScore:       row.creditScore,
		CreditScoreRating: rating,
		DTI:               row.dti,
		DTIRating:         dtiRating,
		EligibilityScore:  row.eligibilityScore,
		Decision:          decision,
		ApprovedAmount:    row.approvedAmount,
		InterestRate:      row.interestRate,
		EMI:               row.emi,
		DecisionFactors:   factors,
		Schedule:          fromScheduleRows(schedule),
		Prediction:        prediction,
		Warnings:          warnings,
	})

	return model.ReconstructCreditEvaluation(
		row.id, row.applicantReference,
		valueobject.ParseLoanType(row.loanType),
		row.requestedAmount, row.tenureMonths,
		result, row.evaluatedAt.UTC(),
	), nil
}

// ---------------------------------------------------------------------------
// JSON column shapes
// ---------------------------------------------------------------------------

type predictionRow struct {
	Status              string              `json:"status"`
	ApprovalProbability float64             `json:"approval_probability"`
	ApprovedAmount      decimal.Decimal     `json:"approved_amount"`
	InterestRate        decimal.NullDecimal `json:"interest_rate"`
	CreditScore         int                 `json:"credit_score"`
	Fallback            bool                `json:"fallback"`
	FailureReason       string              `json:"failure_reason,omitempty"`
}

func (p predictionRow) toModel() model.Prediction {
	return model.Prediction{
		Status:              model.PredictionStatus(p.Status),
		ApprovalProbability: p.ApprovalProbability,
		ApprovedAmount:      p.ApprovedAmount,
		InterestRate:        p.InterestRate,
		CreditScore:         p.CreditScore,
		Fallback:            p.Fallback,
		FailureReason:       p.FailureReason,
	}
}

// marshalPrediction returns nil when the result carries no prediction so the
// column stays NULL.
func marshalPrediction(res model.CreditEvaluationResult) ([]byte, error) {
	pred, ok := res.Prediction()
	if !ok {
		return nil, nil
	}
	b, err := json.Marshal(predictionRow{
		Status:              string(pred.Status),
		ApprovalProbability: pred.ApprovalProbability,
		ApprovedAmount:      pred.ApprovedAmount,
		InterestRate:        pred.InterestRate,
		CreditScore:         pred.CreditScore,
		Fallback:            pred.Fallback,
		FailureReason:       pred.FailureReason,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal prediction: %w", err)
	}
	return b, nil
}

type scheduleRow struct {
	Period           int             `json:"period"`
	DueDate          time.Time       `json:"due_date"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	Total            decimal.Decimal `json:"total"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

func toScheduleRows(entries []model.AmortizationEntry) []scheduleRow {
	out := make([]scheduleRow, 0, len(entries))
	for _, e := range entries {
		out = append(out, scheduleRow{
			Period:           e.Period,
			DueDate:          e.DueDate.UTC(),
			Principal:        e.Principal,
			Interest:         e.Interest,
			Total:            e.Total,
			RemainingBalance: e.RemainingBalance,
		})
	}
	return out
}

func fromScheduleRows(rows []scheduleRow) []model.AmortizationEntry {
	out := make([]model.AmortizationEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.AmortizationEntry{
			Period:           r.Period,
			DueDate:          r.DueDate,
			Principal:        r.Principal,
			Interest:         r.Interest,
			Total:            r.Total,
			RemainingBalance: r.RemainingBalance,
		})
	}
	return out
}

func nonNilWarnings(w []model.NormalizationWarning) []model.NormalizationWarning {
	if w == nil {
		return []model.NormalizationWarning{}
	}
	return w
}
