package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/event"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/valueobject"
	"github.com/l3hautikpatel/credwise-sub000/pkg/events"
)

// ---------------------------------------------------------------------------
// CreditEvaluation aggregate root
// ---------------------------------------------------------------------------

// CreditEvaluation is the persisted record of one evaluated application.
type CreditEvaluation struct {
	id                 string
	applicantReference string
	loanType           valueobject.LoanType
	requestedAmount    decimal.Decimal
	tenureMonths       int
	result             CreditEvaluationResult
	evaluatedAt        time.Time
	collector          events.EventCollector
}

// NewCreditEvaluation records a freshly computed result and raises the
// evaluation events.
func NewCreditEvaluation(profile ApplicantProfile, result CreditEvaluationResult, now time.Time) (CreditEvaluation, error) {
	if result.Decision().IsZero() {
		return CreditEvaluation{}, errors.New("evaluation result has no decision")
	}

	e := CreditEvaluation{
		id:                 uuid.NewString(),
		applicantReference: profile.ApplicantReference(),
		loanType:           profile.LoanType(),
		requestedAmount:    profile.LoanRequest(),
		tenureMonths:       profile.TenureMonths(),
		result:             result,
		evaluatedAt:        now.UTC(),
	}

	e.collector.Record(event.NewCreditEvaluated(
		e.id, e.applicantReference, e.loanType.String(),
		result.CreditScore(), result.EligibilityScore(),
		result.Decision().String(),
		result.ApprovedAmount(), result.InterestRate(),
		result.UsedFallback(),
	))

	if pred, ok := result.Prediction(); ok && pred.Fallback {
		e.collector.Record(event.NewFallbackDecisionUsed(
			e.id, pred.FailureReason, pred.CreditScore, pred.IsApproved(),
		))
	}

	return e, nil
}

// ReconstructCreditEvaluation rebuilds an aggregate from persistence without side-effects.
func ReconstructCreditEvaluation(
	id, applicantReference string,
	loanType valueobject.LoanType,
	requestedAmount decimal.Decimal,
	tenureMonths int,
	result CreditEvaluationResult,
	evaluatedAt time.Time,
) CreditEvaluation {
	return CreditEvaluation{
		id:                 id,
		applicantReference: applicantReference,
		loanType:           loanType,
		requestedAmount:    requestedAmount,
		tenureMonths:       tenureMonths,
		result:             result,
		evaluatedAt:        evaluatedAt,
	}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (e CreditEvaluation) ID() string                         { return e.id }
func (e CreditEvaluation) ApplicantReference() string         { return e.applicantReference }
func (e CreditEvaluation) LoanType() valueobject.LoanType     { return e.loanType }
func (e CreditEvaluation) RequestedAmount() decimal.Decimal   { return e.requestedAmount }
func (e CreditEvaluation) TenureMonths() int                  { return e.tenureMonths }
func (e CreditEvaluation) Result() CreditEvaluationResult     { return e.result }
func (e CreditEvaluation) EvaluatedAt() time.Time             { return e.evaluatedAt }
func (e CreditEvaluation) DomainEvents() []event.DomainEvent  { return e.collector.Events() }
