package model

import (
	"github.com/shopspring/decimal"
)

// PredictionStatus is the interpreted verdict of the external predictor.
type PredictionStatus string

const (
	PredictionApproved     PredictionStatus = "APPROVED"
	PredictionDenied       PredictionStatus = "DENIED"
	PredictionReviewNeeded PredictionStatus = "REVIEW_NEEDED"
)

// PredictionRequest is the payload POSTed to the prediction endpoint.
// DTI and credit utilization are expressed in percent.
type PredictionRequest struct {
	Age                  int     `json:"age"`
	Province             string  `json:"province"`
	EmploymentStatus     string  `json:"employment_status"`
	MonthsEmployed       int     `json:"months_employed"`
	AnnualIncome         float64 `json:"annual_income"`
	SelfReportedDebt     float64 `json:"self_reported_debt"`
	SelfReportedExpenses float64 `json:"self_reported_expenses"`
	TotalCreditLimit     float64 `json:"total_credit_limit"`
	CreditUtilization    float64 `json:"credit_utilization"`
	NumOpenAccounts      int     `json:"num_open_accounts"`
	NumCreditInquiries   int     `json:"num_credit_inquiries"`
	MonthlyExpenses      float64 `json:"monthly_expenses"`
	DTI                  float64 `json:"dti"`
	PaymentHistory       string  `json:"payment_history"`
	RequestedAmount      float64 `json:"requested_amount"`
	EstimatedDebt        float64 `json:"estimated_debt"`
	CreditScore          *int    `json:"credit_score,omitempty"`
}

// PredictionResponse is the decoded predictor reply. Every field is optional.
type PredictionResponse struct {
	IsApproved           *bool    `json:"is_approved,omitempty"`
	ApprovalProbability  *float64 `json:"approval_probability,omitempty"`
	PredictedCreditScore *float64 `json:"predicted_credit_score,omitempty"`
	ApprovedAmount       *float64 `json:"approved_amount,omitempty"`
	InterestRate         *float64 `json:"interest_rate,omitempty"`
}

// HasDecisionFields reports whether the response carries anything a decision
// can be derived from.
func (r PredictionResponse) HasDecisionFields() bool {
	return r.IsApproved != nil || r.ApprovalProbability != nil || r.PredictedCreditScore != nil
}

// Prediction is the interpreted outcome of the external predictor, or of the
// local fallback when the predictor could not be reached.
type Prediction struct {
	Status              PredictionStatus
	ApprovalProbability float64
	ApprovedAmount      decimal.Decimal
	InterestRate        decimal.NullDecimal
	CreditScore         int
	Fallback            bool
	FailureReason       string
}

// IsApproved reports whether the prediction grants credit.
func (p Prediction) IsApproved() bool { return p.Status == PredictionApproved }

// IsDecisive reports whether the prediction settled on approve or deny.
func (p Prediction) IsDecisive() bool {
	return p.Status == PredictionApproved || p.Status == PredictionDenied
}

// FallbackResponse renders a fallback prediction in the shape downstream
// consumers of predictor replies expect.
func (p Prediction) FallbackResponse() map[string]any {
	rate := 0.0
	if p.InterestRate.Valid {
		rate = p.InterestRate.Decimal.InexactFloat64()
	}
	return map[string]any{
		"fallback":             p.Fallback,
		"is_approved":          p.IsApproved(),
		"approval_probability": p.ApprovalProbability,
		"approved_amount":      p.ApprovedAmount.InexactFloat64(),
		"interest_rate":        rate,
		"creditScore":          p.CreditScore,
	}
}
