package service

import (
	"github.com/shopspring/decimal"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// DecisionEngine – stateless domain service
// ---------------------------------------------------------------------------

// Decision thresholds.
const (
	ApprovalMinScore = 660
	DenialMaxScore   = 500
)

var (
	approvalMaxDTI     = decimal.RequireFromString("0.40")
	denialMinDTI       = decimal.RequireFromString("0.50")
	denialMinUtilRatio = decimal.RequireFromString("0.80")

	// restrictedForStudents are the products a recently employed student may
	// not take out.
	restrictedForStudents = []valueobject.LoanType{
		valueobject.LoanTypeMortgage,
		valueobject.LoanTypeCarLoan,
		valueobject.LoanTypePersonalLoan,
	}
)

// Outcome reasons.
const (
	ReasonRestrictedProduct = "restricted product for student applicant"
	ReasonMeetsThresholds   = "meets approval thresholds"
	ReasonBelowMinimum      = "credit profile below minimum thresholds"
	ReasonManualReview      = "requires manual review"
)

// DecisionOutcome is the result of applying the decision rules.
type DecisionOutcome struct {
	Decision       valueobject.Decision
	ApprovedAmount decimal.Decimal
	Restricted     bool
	Reason         string
}

// DecisionEngine applies the restriction rule and the score thresholds.
type DecisionEngine struct{}

// NewDecisionEngine creates a new DecisionEngine.
func NewDecisionEngine() *DecisionEngine {
	return &DecisionEngine{}
}

// Decide evaluates the rules in order: restricted product, approval
// thresholds, denial thresholds, and manual review for everything else.
func (e *DecisionEngine) Decide(profile model.ApplicantProfile, creditScore int, dti decimal.Decimal) DecisionOutcome {
	if IsRestricted(profile) {
		return DecisionOutcome{
			Decision:       valueobject.DecisionDenied,
			ApprovedAmount: decimal.Zero,
			Restricted:     true,
			Reason:         ReasonRestrictedProduct,
		}
	}

	if creditScore >= ApprovalMinScore &&
		dti.LessThanOrEqual(approvalMaxDTI) &&
		profile.PaymentHistory().IsOnTime() {
		return DecisionOutcome{
			Decision:       valueobject.DecisionApproved,
			ApprovedAmount: profile.LoanRequest(),
			Reason:         ReasonMeetsThresholds,
		}
	}

	if creditScore < DenialMaxScore ||
		dti.GreaterThan(denialMinDTI) ||
		profile.Utilization().GreaterThan(denialMinUtilRatio) {
		return DecisionOutcome{
			Decision:       valueobject.DecisionDenied,
			ApprovedAmount: decimal.Zero,
			Reason:         ReasonBelowMinimum,
		}
	}

	return DecisionOutcome{
		Decision:       valueobject.DecisionReviewManually,
		ApprovedAmount: decimal.Zero,
		Reason:         ReasonManualReview,
	}
}

// IsRestricted reports whether a student employed for under a year is asking
// for a mortgage, car loan or personal loan.
func IsRestricted(profile model.ApplicantProfile) bool {
	if !profile.IsStudent() || profile.MonthsEmployed() >= 12 {
		return false
	}
	for _, lt := range restrictedForStudents {
		if profile.LoanType().Equal(lt) {
			return true
		}
	}
	return false
}
