package event

import (
	"github.com/shopspring/decimal"

	"github.com/l3hautikpatel/credwise-sub000/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

const (
	// EventTypeEvaluationCompleted is emitted for every finished evaluation.
	EventTypeEvaluationCompleted = "credit.evaluation.completed"

	// EventTypeFallbackUsed is emitted when the predictor was unreachable and
	// the decision relied on the local fallback.
	EventTypeFallbackUsed = "credit.evaluation.fallback_used"

	aggregateType = "CreditEvaluation"
)

// ---------------------------------------------------------------------------
// Evaluation events
// ---------------------------------------------------------------------------

// CreditEvaluated is raised once an evaluation has been decided.
type CreditEvaluated struct {
	events.BaseEvent
	ApplicantReference string          `json:"applicant_reference"`
	LoanType           string          `json:"loan_type"`
	CreditScore        int             `json:"credit_score"`
	EligibilityScore   int             `json:"eligibility_score"`
	Decision           string          `json:"decision"`
	ApprovedAmount     decimal.Decimal `json:"approved_amount"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	Fallback           bool            `json:"fallback"`
}

func NewCreditEvaluated(
	evaluationID, applicantRef, loanType string,
	creditScore, eligibilityScore int,
	decision string,
	approvedAmount, interestRate decimal.Decimal,
	fallback bool,
) CreditEvaluated {
	return CreditEvaluated{
		BaseEvent:          events.NewBaseEvent(EventTypeEvaluationCompleted, evaluationID, aggregateType),
		ApplicantReference: applicantRef,
		LoanType:           loanType,
		CreditScore:        creditScore,
		EligibilityScore:   eligibilityScore,
		Decision:           decision,
		ApprovedAmount:     approvedAmount,
		InterestRate:       interestRate,
		Fallback:           fallback,
	}
}

// FallbackDecisionUsed is raised when the predictor could not be consulted.
type FallbackDecisionUsed struct {
	events.BaseEvent
	Reason      string `json:"reason"`
	CreditScore int    `json:"credit_score"`
	Approved    bool   `json:"approved"`
}

func NewFallbackDecisionUsed(evaluationID, reason string, creditScore int, approved bool) FallbackDecisionUsed {
	return FallbackDecisionUsed{
		BaseEvent:   events.NewBaseEvent(EventTypeFallbackUsed, evaluationID, aggregateType),
		Reason:      reason,
		CreditScore: creditScore,
		Approved:    approved,
	}
}
