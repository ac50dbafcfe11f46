package service

import (
	"github.com/shopspring/decimal"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/valueobject"
)

var (
	baseRates = map[valueobject.LoanType]decimal.Decimal{
		valueobject.LoanTypeMortgage:     decimal.RequireFromString("0.065"),
		valueobject.LoanTypeCarLoan:      decimal.RequireFromString("0.08"),
		valueobject.LoanTypePersonalLoan: decimal.RequireFromString("0.10"),
		valueobject.LoanTypeStudentLoan:  decimal.RequireFromString("0.05"),
		valueobject.LoanTypeCreditCard:   decimal.RequireFromString("0.1999"),
	}
	defaultBaseRate = decimal.RequireFromString("0.10")

	subprimePremium     = decimal.RequireFromString("0.02")
	nearPrimePremium    = decimal.RequireFromString("0.01")
	longTermPremium     = decimal.RequireFromString("0.005")
	MinInterestRate     = decimal.RequireFromString("0.03")
	MaxInterestRate     = decimal.RequireFromString("0.25")
	minFinancedAmount   = decimal.NewFromInt(100)
	longTermMonthsLimit = 60
)

// BaseRate returns the annual base rate of a loan product.
func BaseRate(loanType valueobject.LoanType) decimal.Decimal {
	if r, ok := baseRates[loanType]; ok {
		return r
	}
	return defaultBaseRate
}

// AdjustedRate applies credit and term premiums to the base rate and clamps
// the result to [3%, 25%].
func AdjustedRate(loanType valueobject.LoanType, creditScore, tenureMonths int) decimal.Decimal {
	rate := BaseRate(loanType)
	switch {
	case creditScore < 600:
		rate = rate.Add(subprimePremium)
	case creditScore < 660:
		rate = rate.Add(nearPrimePremium)
	}
	if tenureMonths > longTermMonthsLimit {
		rate = rate.Add(longTermPremium)
	}
	return clampRate(rate)
}

// EMI returns the equated monthly installment of principal at annualRate.
func EMI(principal, annualRate decimal.Decimal, months int) decimal.Decimal {
	return model.MonthlyPayment(principal, annualRate, months)
}

// QuoteEMI returns the installment of an approved loan of at least 100, and
// zero in every other case.
func QuoteEMI(decision valueobject.Decision, approvedAmount, annualRate decimal.Decimal, months int) decimal.Decimal {
	if !decision.IsApproved() || approvedAmount.LessThan(minFinancedAmount) {
		return decimal.Zero
	}
	return EMI(approvedAmount, annualRate, months)
}

func clampRate(rate decimal.Decimal) decimal.Decimal {
	if rate.LessThan(MinInterestRate) {
		return MinInterestRate
	}
	if rate.GreaterThan(MaxInterestRate) {
		return MaxInterestRate
	}
	return rate
}
