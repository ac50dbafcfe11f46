package model

import (
	"github.com/shopspring/decimal"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/valueobject"
)

// CreditEvaluationResultParams carries the computed values of one evaluation.
type CreditEvaluationResultParams struct {
	CreditScore       int
	CreditScoreRating valueobject.CreditRating
	DTI               decimal.Decimal
	DTIRating         valueobject.Impact
	EligibilityScore  int
	Decision          valueobject.Decision
	ApprovedAmount    decimal.Decimal
	InterestRate      decimal.Decimal
	EMI               decimal.Decimal
	DecisionFactors   []DecisionFactor
	Schedule          []AmortizationEntry
	Prediction        *Prediction
	Warnings          []NormalizationWarning
}

// CreditEvaluationResult is the immutable outcome of evaluating one applicant
// profile. Factor and schedule slices are copied in and out so that no two
// results ever share them.
type CreditEvaluationResult struct {
	creditScore       int
	creditScoreRating valueobject.CreditRating
	dti               decimal.Decimal
	dtiRating         valueobject.Impact
	eligibilityScore  int
	decision          valueobject.Decision
	approvedAmount    decimal.Decimal
	interestRate      decimal.Decimal
	emi               decimal.Decimal
	decisionFactors   []DecisionFactor
	schedule          []AmortizationEntry
	prediction        *Prediction
	warnings          []NormalizationWarning
}

// NewCreditEvaluationResult builds a result. A non-approved decision always
// carries a zero approved amount and a zero EMI.
func NewCreditEvaluationResult(p CreditEvaluationResultParams) CreditEvaluationResult {
	r := CreditEvaluationResult{
		creditScore:       p.CreditScore,
		creditScoreRating: p.CreditScoreRating,
		dti:               p.DTI,
		dtiRating:         p.DTIRating,
		eligibilityScore:  p.EligibilityScore,
		decision:          p.Decision,
		approvedAmount:    p.ApprovedAmount,
		interestRate:      p.InterestRate,
		emi:               p.EMI,
		decisionFactors:   append([]DecisionFactor(nil), p.DecisionFactors...),
		schedule:          append([]AmortizationEntry(nil), p.Schedule...),
		warnings:          append([]NormalizationWarning(nil), p.Warnings...),
	}
	if p.Prediction != nil {
		pred := *p.Prediction
		r.prediction = &pred
	}
	if !r.decision.IsApproved() {
		r.approvedAmount = decimal.Zero
		r.emi = decimal.Zero
		r.schedule = nil
	}
	return r
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (r CreditEvaluationResult) CreditScore() int { return r.creditScore }
func (r CreditEvaluationResult) CreditScoreRating() valueobject.CreditRating {
	return r.creditScoreRating
}
func (r CreditEvaluationResult) DTI() decimal.Decimal              { return r.dti }
func (r CreditEvaluationResult) DTIRating() valueobject.Impact     { return r.dtiRating }
func (r CreditEvaluationResult) EligibilityScore() int             { return r.eligibilityScore }
func (r CreditEvaluationResult) Decision() valueobject.Decision    { return r.decision }
func (r CreditEvaluationResult) ApprovedAmount() decimal.Decimal   { return r.approvedAmount }
func (r CreditEvaluationResult) InterestRate() decimal.Decimal     { return r.interestRate }
func (r CreditEvaluationResult) EMI() decimal.Decimal              { return r.emi }
func (r CreditEvaluationResult) UsedFallback() bool                { return r.prediction != nil && r.prediction.Fallback }

// DecisionFactors returns a copy of the ordered factor list.
func (r CreditEvaluationResult) DecisionFactors() []DecisionFactor {
	return append([]DecisionFactor(nil), r.decisionFactors...)
}

// Schedule returns a copy of the repayment schedule of an approved loan.
func (r CreditEvaluationResult) Schedule() []AmortizationEntry {
	return append([]AmortizationEntry(nil), r.schedule...)
}

// Warnings returns a copy of the normalization warnings.
func (r CreditEvaluationResult) Warnings() []NormalizationWarning {
	return append([]NormalizationWarning(nil), r.warnings...)
}

// Prediction returns the predictor outcome, if one was consulted.
func (r CreditEvaluationResult) Prediction() (Prediction, bool) {
	if r.prediction == nil {
		return Prediction{}, false
	}
	return *r.prediction, true
}
