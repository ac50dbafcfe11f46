package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/port"
)

const (
	// DefaultPredictionTimeout bounds a predictor call when none is configured.
	DefaultPredictionTimeout = 5 * time.Second

	predictionApprovalProbability = 0.70
	fallbackDefaultScore          = 650
	fallbackApprovedProbability   = 0.85
	fallbackDeniedProbability     = 0.30
	fallbackPrimeLimit            = 720
)

var (
	fallbackBaseRate      = decimal.RequireFromString("0.05")
	errNoPredictionClient = errors.New("no prediction client configured")
)

// MLDecisionAdapter consults the external predictor and, whenever it cannot,
// derives a deterministic decision from the local credit score. It never
// returns an error: a failed call always becomes a fallback prediction.
type MLDecisionAdapter struct {
	client  port.PredictionClient
	timeout time.Duration
	logger  *slog.Logger
}

// NewMLDecisionAdapter creates an adapter. A nil client makes every call
// take the fallback path; a non-positive timeout uses DefaultPredictionTimeout.
func NewMLDecisionAdapter(client port.PredictionClient, timeout time.Duration, logger *slog.Logger) *MLDecisionAdapter {
	if timeout <= 0 {
		timeout = DefaultPredictionTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MLDecisionAdapter{client: client, timeout: timeout, logger: logger}
}

// Decide calls the predictor once, bounded by the adapter timeout, and
// interprets its reply. creditScore is the locally computed score. A prior
// predictor response that already carries decision fields is interpreted
// as-is and no call is made.
func (a *MLDecisionAdapter) Decide(ctx context.Context, profile model.ApplicantProfile, creditScore int, dti decimal.Decimal, prior map[string]any) model.Prediction {
	if resp, fallback, ok := priorResponse(prior); ok {
		a.logger.DebugContext(ctx, "using prior prediction", "stage", "predict", "fallback", fallback)
		pred := a.Interpret(resp, profile, creditScore)
		pred.Fallback = fallback
		return pred
	}

	if a.client == nil {
		return a.Fallback(profile, creditScore, &model.PredictionUnavailableError{Cause: errNoPredictionClient})
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req := BuildPredictionRequest(profile, creditScore, dti)
	a.logger.DebugContext(ctx, "requesting prediction",
		"stage", "predict",
		"requested_amount", req.RequestedAmount,
		"payment_history", req.PaymentHistory,
	)

	resp, err := a.client.Predict(callCtx, req)
	if err == nil {
		err = validateResponse(resp)
	}
	if err != nil {
		var unavailable *model.PredictionUnavailableError
		if !errors.As(err, &unavailable) {
			err = &model.PredictionUnavailableError{Cause: err}
		}
		return a.Fallback(profile, creditScore, err)
	}

	return a.Interpret(resp, profile, creditScore)
}

// Interpret turns a predictor reply into a Prediction. The first decision
// field present decides: is_approved, then approval_probability (approved
// at 0.70 or above, denied below), then a credit score of 660 or above
// (predicted if given, else local). A reply with none of is_approved,
// approval_probability or predicted_credit_score needs review.
func (a *MLDecisionAdapter) Interpret(resp model.PredictionResponse, profile model.ApplicantProfile, creditScore int) model.Prediction {
	score := creditScore
	if resp.PredictedCreditScore != nil {
		score = min(max(int(math.Round(*resp.PredictedCreditScore)), MinCreditScore), MaxCreditScore)
	}

	var approved bool
	switch {
	case !resp.HasDecisionFields():
	case resp.IsApproved != nil:
		approved = *resp.IsApproved
	case resp.ApprovalProbability != nil:
		approved = *resp.ApprovalProbability >= predictionApprovalProbability
	default:
		approved = score >= ApprovalMinScore
	}

	status := model.PredictionReviewNeeded
	switch {
	case !resp.HasDecisionFields():
	case approved:
		status = model.PredictionApproved
	default:
		status = model.PredictionDenied
	}

	pred := model.Prediction{
		Status:         status,
		CreditScore:    score,
		ApprovedAmount: decimal.Zero,
	}
	if resp.ApprovalProbability != nil {
		pred.ApprovalProbability = *resp.ApprovalProbability
	}
	switch {
	case resp.ApprovedAmount != nil:
		pred.ApprovedAmount = decimal.NewFromFloat(math.Max(0, *resp.ApprovedAmount)).Round(2)
	case status == model.PredictionApproved:
		pred.ApprovedAmount = profile.LoanRequest()
	}
	if resp.InterestRate != nil {
		rate := decimal.NewFromFloat(*resp.InterestRate)
		if rate.GreaterThan(decimal.NewFromInt(1)) {
			rate = rate.Div(decimal.NewFromInt(100))
		}
		pred.InterestRate = decimal.NewNullDecimal(rate)
	}

	a.logger.Debug("prediction interpreted",
		"stage", "predict",
		"status", string(status),
		"credit_score", score,
		"probability", pred.ApprovalProbability,
	)
	return pred
}

// Fallback derives a decision from the best available score: the system
// score, else the self-reported one, else 650.
func (a *MLDecisionAdapter) Fallback(profile model.ApplicantProfile, systemScore int, cause error) model.Prediction {
	score := fallbackDefaultScore
	switch {
	case systemScore > 0:
		score = systemScore
	case profile.SelfReportedScore() > 0:
		score = profile.SelfReportedScore()
	}

	approved := score >= ApprovalMinScore
	rate := fallbackBaseRate
	switch {
	case score < ApprovalMinScore:
		rate = rate.Add(subprimePremium)
	case score < fallbackPrimeLimit:
		rate = rate.Add(nearPrimePremium)
	}

	pred := model.Prediction{
		Status:              model.PredictionDenied,
		ApprovalProbability: fallbackDeniedProbability,
		ApprovedAmount:      decimal.Zero,
		InterestRate:        decimal.NewNullDecimal(rate),
		CreditScore:         score,
		Fallback:            true,
	}
	if approved {
		pred.Status = model.PredictionApproved
		pred.ApprovalProbability = fallbackApprovedProbability
		pred.ApprovedAmount = profile.LoanRequest()
	}
	if cause != nil {
		pred.FailureReason = cause.Error()
	}

	a.logger.Warn("prediction unavailable, using fallback decision",
		"stage", "fallback",
		"error", cause,
		"credit_score", score,
		"approved", approved,
	)
	return pred
}

// BuildPredictionRequest maps a profile onto the predictor payload. DTI and
// utilization are sent in percent.
func BuildPredictionRequest(profile model.ApplicantProfile, creditScore int, dti decimal.Decimal) model.PredictionRequest {
	hundred := decimal.NewFromInt(100)
	req := model.PredictionRequest{
		Age:                  profile.Age(),
		Province:             profile.Province(),
		EmploymentStatus:     profile.EmploymentStatus(),
		MonthsEmployed:       profile.MonthsEmployed(),
		AnnualIncome:         profile.Income().Mul(monthsPerYear).InexactFloat64(),
		SelfReportedDebt:     profile.Debt().InexactFloat64(),
		SelfReportedExpenses: profile.Expenses().InexactFloat64(),
		TotalCreditLimit:     profile.CreditLimit().InexactFloat64(),
		CreditUtilization:    profile.Utilization().Mul(hundred).Round(2).InexactFloat64(),
		NumOpenAccounts:      len(profile.DebtTypes()),
		NumCreditInquiries:   profile.CreditInquiries(),
		MonthlyExpenses:      profile.Expenses().InexactFloat64(),
		DTI:                  dti.Mul(hundred).Round(2).InexactFloat64(),
		PaymentHistory:       profile.PaymentHistory().PredictionLabel(),
		RequestedAmount:      profile.LoanRequest().InexactFloat64(),
		EstimatedDebt:        profile.Debt().InexactFloat64(),
	}
	if req.NumOpenAccounts == 0 {
		req.NumOpenAccounts = profile.BankAccounts()
	}
	switch {
	case creditScore > 0:
		req.CreditScore = &creditScore
	case profile.SelfReportedScore() > 0:
		s := profile.SelfReportedScore()
		req.CreditScore = &s
	}
	return req
}

// priorResponse reads a predictor reply, or a previously rendered fallback
// response, out of loosely keyed prior evaluation data.
func priorResponse(prior map[string]any) (model.PredictionResponse, bool, bool) {
	if len(prior) == 0 {
		return model.PredictionResponse{}, false, false
	}
	var resp model.PredictionResponse
	if v, ok := prior["is_approved"].(bool); ok {
		resp.IsApproved = &v
	} else if v, ok := prior["isApproved"].(bool); ok {
		resp.IsApproved = &v
	}
	number := func(aliases []alias) *float64 {
		v, _, state := resolveDecimal(prior, aliases)
		if state != lookupFound && state != lookupZero {
			return nil
		}
		f := v.InexactFloat64()
		return &f
	}
	resp.ApprovalProbability = number(keys("approval_probability", "approvalProbability"))
	resp.PredictedCreditScore = number(keys("predicted_credit_score", "predictedCreditScore"))
	resp.ApprovedAmount = number(keys("approved_amount", "approvedAmount"))
	resp.InterestRate = number(keys("interest_rate", "interestRate"))
	if !resp.HasDecisionFields() || validateResponse(resp) != nil {
		return model.PredictionResponse{}, false, false
	}
	fallback, _ := prior["fallback"].(bool)
	return resp, fallback, true
}

func validateResponse(resp model.PredictionResponse) error {
	if p := resp.ApprovalProbability; p != nil && (math.IsNaN(*p) || *p < 0 || *p > 1) {
		return &model.PredictionUnavailableError{Cause: fmt.Errorf("approval_probability out of range: %v", *p)}
	}
	return nil
}
