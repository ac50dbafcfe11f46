package valueobject

import (
	"strings"
)

// ---------------------------------------------------------------------------
// LoanType – immutable value object
// ---------------------------------------------------------------------------

// LoanType identifies the credit product an applicant is asking for.
type LoanType struct {
	value string
}

const (
	loanTypeMortgage     = "MORTGAGE"
	loanTypeCarLoan      = "CAR_LOAN"
	loanTypePersonalLoan = "PERSONAL_LOAN"
	loanTypeStudentLoan  = "STUDENT_LOAN"
	loanTypeCreditCard   = "CREDIT_CARD"
	loanTypeOther        = "OTHER"
)

var (
	LoanTypeMortgage     = LoanType{value: loanTypeMortgage}
	LoanTypeCarLoan      = LoanType{value: loanTypeCarLoan}
	LoanTypePersonalLoan = LoanType{value: loanTypePersonalLoan}
	LoanTypeStudentLoan  = LoanType{value: loanTypeStudentLoan}
	LoanTypeCreditCard   = LoanType{value: loanTypeCreditCard}
	LoanTypeOther        = LoanType{value: loanTypeOther}
)

// loanTypeSpellings maps a squashed, lower-cased spelling to its loan type.
var loanTypeSpellings = map[string]LoanType{
	"mortgage":     LoanTypeMortgage,
	"homeloan":     LoanTypeMortgage,
	"carloan":      LoanTypeCarLoan,
	"autoloan":     LoanTypeCarLoan,
	"auto":         LoanTypeCarLoan,
	"car":          LoanTypeCarLoan,
	"personalloan": LoanTypePersonalLoan,
	"personal":     LoanTypePersonalLoan,
	"studentloan":  LoanTypeStudentLoan,
	"student":      LoanTypeStudentLoan,
	"creditcard":   LoanTypeCreditCard,
	"card":         LoanTypeCreditCard,
	"other":        LoanTypeOther,
}

// ParseLoanType resolves free-form product names ("Car Loan", "car_loan",
// "CAR_LOAN") to a LoanType. Unknown names map to LoanTypeOther.
func ParseLoanType(s string) LoanType {
	if lt, ok := loanTypeSpellings[squash(s)]; ok {
		return lt
	}
	return LoanTypeOther
}

// String returns the canonical code of the loan type.
func (l LoanType) String() string { return l.value }

// DisplayName returns the product label used in reports and factor text.
func (l LoanType) DisplayName() string {
	switch l.value {
	case loanTypeMortgage:
		return "Mortgage"
	case loanTypeCarLoan:
		return "Car Loan"
	case loanTypePersonalLoan:
		return "Personal Loan"
	case loanTypeStudentLoan:
		return "Student Loan"
	case loanTypeCreditCard:
		return "Credit Card"
	default:
		return "Other"
	}
}

// IsZero returns true if the loan type has not been initialised.
func (l LoanType) IsZero() bool { return l.value == "" }

// Equal returns true when both loan types carry the same value.
func (l LoanType) Equal(other LoanType) bool { return l.value == other.value }

// squash lower-cases s and drops spaces, hyphens and underscores.
func squash(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '-', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
