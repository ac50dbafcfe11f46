package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// EvaluateRequest carries one applicant submission. Profile keys may use any
// of the accepted spellings; Prior optionally holds an earlier evaluation or
// predictor reply.
type EvaluateRequest struct {
	Profile map[string]any `json:"profile"`
	Prior   map[string]any `json:"prior,omitempty"`
}

// GetEvaluationRequest identifies an evaluation to retrieve.
type GetEvaluationRequest struct {
	EvaluationID string `json:"evaluation_id"`
}

// ListEvaluationsRequest selects the most recent evaluations of an applicant.
type ListEvaluationsRequest struct {
	ApplicantReference string `json:"applicant_reference"`
	Limit              int    `json:"limit"`
}

// BatchEvaluateRequest carries a workbook of applicants, one per row.
type BatchEvaluateRequest struct {
	Workbook   []byte        `json:"-"`
	Sheet      string        `json:"sheet,omitempty"`
	ReportName string        `json:"report_name,omitempty"`
	Upload     bool          `json:"upload"`
	LinkTTL    time.Duration `json:"link_ttl,omitempty"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// DecisionFactorResponse is one explained input of a decision.
type DecisionFactorResponse struct {
	Factor      string `json:"factor"`
	Impact      string `json:"impact"`
	Description string `json:"description"`
}

// AmortizationEntryResponse represents a single amortization schedule entry.
type AmortizationEntryResponse struct {
	Period           int             `json:"period"`
	DueDate          time.Time       `json:"due_date"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	Total            decimal.Decimal `json:"total"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// PredictionResponse summarises the predictor outcome of an evaluation.
type PredictionResponse struct {
	Status              string  `json:"status"`
	ApprovalProbability float64 `json:"approval_probability"`
	CreditScore         int     `json:"credit_score"`
	Fallback            bool    `json:"fallback"`
	FailureReason       string  `json:"failure_reason,omitempty"`
}

// WarningResponse reports a profile field that was replaced by a default.
type WarningResponse struct {
	Field   string `json:"field"`
	Reason  string `json:"reason"`
	Default string `json:"default"`
}

// EvaluationResponse is the external representation of a credit evaluation.
type EvaluationResponse struct {
	ID                 string                      `json:"id"`
	ApplicantReference string                      `json:"applicant_reference,omitempty"`
	LoanType           string                      `json:"loan_type"`
	RequestedAmount    decimal.Decimal             `json:"requested_amount"`
	TenureMonths       int                         `json:"tenure_months"`
	CreditScore        int                         `json:"credit_score"`
	CreditScoreRating  string                      `json:"credit_score_rating"`
	DTI                decimal.Decimal             `json:"dti"`
	DTIRating          string                      `json:"dti_rating"`
	EligibilityScore   int                         `json:"eligibility_score"`
	Decision           string                      `json:"decision"`
	ApprovedAmount     decimal.Decimal             `json:"approved_amount"`
	InterestRate       decimal.Decimal             `json:"interest_rate"`
	EMI                decimal.Decimal             `json:"emi"`
	DecisionFactors    []DecisionFactorResponse    `json:"decision_factors"`
	Schedule           []AmortizationEntryResponse `json:"schedule,omitempty"`
	Prediction         *PredictionResponse         `json:"prediction,omitempty"`
	Warnings           []WarningResponse           `json:"warnings,omitempty"`
	EvaluatedAt        time.Time                   `json:"evaluated_at"`
}

// ListEvaluationsResponse holds evaluations newest first.
type ListEvaluationsResponse struct {
	Evaluations []EvaluationResponse `json:"evaluations"`
}

// BatchEvaluateResponse summarises a batch run. Report holds the generated
// workbook; ReportKey and ReportURL are set once it has been uploaded.
type BatchEvaluateResponse struct {
	Total     int    `json:"total"`
	Evaluated int    `json:"evaluated"`
	Approved  int    `json:"approved"`
	Failed    int    `json:"failed"`
	Report    []byte `json:"-"`
	ReportKey string `json:"report_key,omitempty"`
	ReportURL string `json:"report_url,omitempty"`
}
