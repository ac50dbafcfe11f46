package service

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"github.com/shopspring/decimal"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/port"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// Evaluator – the evaluation pipeline
// ---------------------------------------------------------------------------

// Evaluator runs one applicant submission through normalization, scoring,
// decisioning, the optional predictor and factor extraction. It holds no
// per-request state and is safe for concurrent use.
type Evaluator struct {
	normalizer *ProfileNormalizer
	engine     *DecisionEngine
	predictor  *MLDecisionAdapter
	consult    bool
	extractor  *DecisionFactorExtractor
	logger     *slog.Logger
	now        func() time.Time
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*evaluatorOptions)

type evaluatorOptions struct {
	logger  *slog.Logger
	client  port.PredictionClient
	timeout time.Duration
	now     func() time.Time
}

// WithLogger sets the logger shared by every stage.
func WithLogger(logger *slog.Logger) EvaluatorOption {
	return func(o *evaluatorOptions) { o.logger = logger }
}

// WithPredictor makes the evaluator consult client on every evaluation.
func WithPredictor(client port.PredictionClient, timeout time.Duration) EvaluatorOption {
	return func(o *evaluatorOptions) {
		o.client = client
		o.timeout = timeout
	}
}

// WithClock overrides the clock used to date repayment schedules.
func WithClock(now func() time.Time) EvaluatorOption {
	return func(o *evaluatorOptions) { o.now = now }
}

// NewEvaluator creates an Evaluator. Without WithPredictor the predictor is
// only interpreted when prior evaluation data carries a prediction.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	o := evaluatorOptions{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	normalizer := NewProfileNormalizer(o.logger)
	normalizer.now = o.now

	return &Evaluator{
		normalizer: normalizer,
		engine:     NewDecisionEngine(),
		predictor:  NewMLDecisionAdapter(o.client, o.timeout, o.logger),
		consult:    o.client != nil,
		extractor:  NewDecisionFactorExtractor(o.logger),
		logger:     o.logger,
		now:        o.now,
	}
}

// Evaluate computes the full result for fields. prior is optional data from
// an earlier evaluation or predictor reply. The only error returned is
// *model.ProfileIncompleteError.
func (e *Evaluator) Evaluate(ctx context.Context, fields map[string]any, prior map[string]any) (model.CreditEvaluationResult, error) {
	_, result, err := e.EvaluateApplicant(ctx, fields, prior)
	return result, err
}

// EvaluateApplicant is Evaluate that also returns the normalized profile the
// result was computed from.
func (e *Evaluator) EvaluateApplicant(ctx context.Context, fields map[string]any, prior map[string]any) (model.ApplicantProfile, model.CreditEvaluationResult, error) {
	profile, warnings, err := e.normalizer.Normalize(fields)
	if err != nil {
		return model.ApplicantProfile{}, model.CreditEvaluationResult{}, err
	}
	return profile, e.evaluate(ctx, profile, warnings, fields, prior), nil
}

func (e *Evaluator) evaluate(ctx context.Context, profile model.ApplicantProfile, warnings []model.NormalizationWarning, fields, prior map[string]any) model.CreditEvaluationResult {
	creditScore := CreditScore(profile)
	dti := ProfileDTI(profile)
	eligibility := EligibilityScore(creditScore, dti, profile.PaymentHistory(), profile.MonthsEmployed())

	e.logger.DebugContext(ctx, "profile scored",
		"stage", "score",
		"credit_score", creditScore,
		"dti", dti.StringFixed(4),
		"eligibility", eligibility,
	)

	outcome := e.engine.Decide(profile, creditScore, dti)
	decision := outcome.Decision
	approved := outcome.ApprovedAmount
	rate := AdjustedRate(profile.LoanType(), creditScore, profile.TenureMonths())

	var prediction *model.Prediction
	if e.consult || hasPriorPrediction(prior) {
		pred := e.predictor.Decide(ctx, profile, creditScore, dti, prior)
		prediction = &pred
		decision, approved, rate = mergePrediction(outcome, pred, profile, rate)
	}

	e.logger.DebugContext(ctx, "decision reached",
		"stage", "decide",
		"decision", decision.String(),
		"reason", outcome.Reason,
		"restricted", outcome.Restricted,
		"predicted", prediction != nil,
	)

	emi := QuoteEMI(decision, approved, rate, profile.TenureMonths())
	var schedule []model.AmortizationEntry
	if emi.IsPositive() {
		schedule = model.GenerateAmortizationSchedule(approved, rate, profile.TenureMonths(), e.now())
	}

	factors := e.extractor.Extract(factorData(profile, creditScore, dti, fields, prior))

	return model.NewCreditEvaluationResult(model.CreditEvaluationResultParams{
		CreditScore:       creditScore,
		CreditScoreRating: CreditScoreRating(creditScore),
		DTI:               dti,
		DTIRating:         RateDTI(dti),
		EligibilityScore:  eligibility,
		Decision:          decision,
		ApprovedAmount:    approved,
		InterestRate:      rate,
		EMI:               emi,
		DecisionFactors:   factors,
		Schedule:          schedule,
		Prediction:        prediction,
		Warnings:          warnings,
	})
}

// mergePrediction folds a prediction into the local outcome. The restriction
// rule always stands, a fallback never overrides the local rules, and a
// decisive prediction replaces the decision, amount and (if given) rate.
func mergePrediction(outcome DecisionOutcome, pred model.Prediction, profile model.ApplicantProfile, rate decimal.Decimal) (valueobject.Decision, decimal.Decimal, decimal.Decimal) {
	if outcome.Restricted || pred.Fallback {
		return outcome.Decision, outcome.ApprovedAmount, rate
	}

	switch pred.Status {
	case model.PredictionApproved:
		amount := pred.ApprovedAmount
		if !amount.IsPositive() {
			amount = profile.LoanRequest()
		}
		if pred.InterestRate.Valid {
			rate = clampRate(pred.InterestRate.Decimal)
		}
		return valueobject.DecisionApproved, amount, rate
	case model.PredictionDenied:
		if pred.InterestRate.Valid {
			rate = clampRate(pred.InterestRate.Decimal)
		}
		return valueobject.DecisionDenied, decimal.Zero, rate
	default:
		return valueobject.DecisionReviewManually, decimal.Zero, rate
	}
}

func hasPriorPrediction(prior map[string]any) bool {
	_, _, ok := priorResponse(prior)
	return ok
}

// factorData lays the computed values over the prior data so that the
// extractor resolves local results first. Every payment history value of the
// submission is carried, not only the one the profile kept.
func factorData(profile model.ApplicantProfile, creditScore int, dti decimal.Decimal, fields, prior map[string]any) map[string]any {
	data := make(map[string]any, len(prior)+12)
	maps.Copy(data, prior)
	for _, a := range paymentHistoryKeys {
		if s, ok := fields[a.key].(string); ok {
			data[a.key] = s
		}
	}
	data["creditScore"] = creditScore
	data["dti"] = dti
	data["employmentStatus"] = profile.EmploymentStatus()
	data["monthsEmployed"] = profile.MonthsEmployed()
	data["paymentHistory"] = profile.PaymentHistoryText()
	data["usedCredit"] = profile.UsedCredit()
	data["creditLimit"] = profile.CreditLimit()
	if profile.SelfReportedScore() > 0 {
		if _, ok := data["selfReportedCreditScore"]; !ok {
			data["selfReportedCreditScore"] = profile.SelfReportedScore()
		}
	}
	return data
}
