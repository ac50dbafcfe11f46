package service

import (
	"github.com/shopspring/decimal"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/valueobject"
)

var (
	// loanSurchargeRate is the one-time share of the requested principal
	// added to the monthly obligations.
	loanSurchargeRate = decimal.NewFromFloat(0.03)

	// DTIPositiveLimit is the ratio below which DTI rates Positive.
	DTIPositiveLimit = decimal.NewFromFloat(0.40)

	monthsPerYear = decimal.NewFromInt(12)
)

// DTI computes (expenses + debt + 0.03·loanRequest) / (income × 12).
// Expenses, debt and income are monthly. The ratio is 1.0 when income is
// not positive.
func DTI(income, expenses, debt, loanRequest decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.NewFromInt(1)
	}
	numerator := expenses.Add(debt).Add(loanSurchargeRate.Mul(loanRequest))
	return numerator.Div(income.Mul(monthsPerYear))
}

// ProfileDTI computes the DTI of profile.
func ProfileDTI(p model.ApplicantProfile) decimal.Decimal {
	return DTI(p.Income(), p.Expenses(), p.Debt(), p.LoanRequest())
}

// RateDTI returns Positive below 0.40 and Negative otherwise.
func RateDTI(dti decimal.Decimal) valueobject.Impact {
	if dti.LessThan(DTIPositiveLimit) {
		return valueobject.ImpactPositive
	}
	return valueobject.ImpactNegative
}
