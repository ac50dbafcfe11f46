package model

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/valueobject"
)

// MinCreditLimit is substituted when a submission carries no usable limit.
var MinCreditLimit = decimal.NewFromInt(1000)

// DefaultDebtType is inferred when an applicant reports debt without types.
const DefaultDebtType = "Personal Loan"

// ApplicantProfileParams carries the resolved values used to build an
// ApplicantProfile. Monetary amounts are monthly unless noted.
type ApplicantProfileParams struct {
	LoanType           valueobject.LoanType
	Income             decimal.Decimal
	Expenses           decimal.Decimal
	Debt               decimal.Decimal
	LoanRequest        decimal.Decimal
	TenureMonths       int
	PaymentHistory     string
	UsedCredit         decimal.Decimal
	CreditLimit        decimal.Decimal
	EmploymentStatus   string
	MonthsEmployed     int
	TotalAssets        decimal.Decimal
	BankAccounts       int
	DebtTypes          []string
	Age                int
	Province           string
	CreditInquiries    int
	SelfReportedScore  int
	ApplicantReference string
}

// ApplicantProfile is the canonical, immutable view of one applicant
// submission. All decimal fields are non-negative, the credit limit and the
// tenure are strictly positive.
type ApplicantProfile struct {
	loanType           valueobject.LoanType
	income             decimal.Decimal
	expenses           decimal.Decimal
	debt               decimal.Decimal
	loanRequest        decimal.Decimal
	tenureMonths       int
	paymentHistoryText string
	paymentHistory     valueobject.PaymentHistory
	usedCredit         decimal.Decimal
	creditLimit        decimal.Decimal
	employmentStatus   string
	monthsEmployed     int
	totalAssets        decimal.Decimal
	bankAccounts       int
	debtTypes          []string
	age                int
	province           string
	creditInquiries    int
	selfReportedScore  int
	applicantReference string
}

// NewApplicantProfile builds a profile, clamping values that would break the
// profile invariants.
func NewApplicantProfile(p ApplicantProfileParams) ApplicantProfile {
	loanType := p.LoanType
	if loanType.IsZero() {
		loanType = valueobject.LoanTypeOther
	}

	creditLimit := nonNegative(p.CreditLimit)
	if creditLimit.IsZero() {
		creditLimit = MinCreditLimit
	}

	tenure := p.TenureMonths
	if tenure <= 0 {
		tenure = 12
	}

	debt := nonNegative(p.Debt)
	debtTypes := dedupe(p.DebtTypes)
	if len(debtTypes) == 0 && debt.IsPositive() {
		debtTypes = []string{DefaultDebtType}
	}

	return ApplicantProfile{
		loanType:           loanType,
		income:             nonNegative(p.Income),
		expenses:           nonNegative(p.Expenses),
		debt:               debt,
		loanRequest:        nonNegative(p.LoanRequest),
		tenureMonths:       tenure,
		paymentHistoryText: strings.TrimSpace(p.PaymentHistory),
		paymentHistory:     valueobject.ParsePaymentHistory(p.PaymentHistory),
		usedCredit:         nonNegative(p.UsedCredit),
		creditLimit:        creditLimit,
		employmentStatus:   strings.TrimSpace(p.EmploymentStatus),
		monthsEmployed:     max(p.MonthsEmployed, 0),
		totalAssets:        nonNegative(p.TotalAssets),
		bankAccounts:       max(p.BankAccounts, 0),
		debtTypes:          debtTypes,
		age:                max(p.Age, 0),
		province:           strings.TrimSpace(p.Province),
		creditInquiries:    max(p.CreditInquiries, 0),
		selfReportedScore:  max(p.SelfReportedScore, 0),
		applicantReference: strings.TrimSpace(p.ApplicantReference),
	}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (a ApplicantProfile) LoanType() valueobject.LoanType { return a.loanType }
func (a ApplicantProfile) Income() decimal.Decimal        { return a.income }
func (a ApplicantProfile) Expenses() decimal.Decimal      { return a.expenses }
func (a ApplicantProfile) Debt() decimal.Decimal          { return a.debt }
func (a ApplicantProfile) LoanRequest() decimal.Decimal   { return a.loanRequest }
func (a ApplicantProfile) TenureMonths() int              { return a.tenureMonths }
func (a ApplicantProfile) PaymentHistoryText() string     { return a.paymentHistoryText }
func (a ApplicantProfile) PaymentHistory() valueobject.PaymentHistory {
	return a.paymentHistory
}
func (a ApplicantProfile) UsedCredit() decimal.Decimal  { return a.usedCredit }
func (a ApplicantProfile) CreditLimit() decimal.Decimal { return a.creditLimit }
func (a ApplicantProfile) EmploymentStatus() string     { return a.employmentStatus }
func (a ApplicantProfile) MonthsEmployed() int          { return a.monthsEmployed }
func (a ApplicantProfile) TotalAssets() decimal.Decimal { return a.totalAssets }
func (a ApplicantProfile) BankAccounts() int            { return a.bankAccounts }
func (a ApplicantProfile) Age() int                     { return a.age }
func (a ApplicantProfile) Province() string             { return a.province }
func (a ApplicantProfile) CreditInquiries() int         { return a.creditInquiries }
func (a ApplicantProfile) SelfReportedScore() int       { return a.selfReportedScore }
func (a ApplicantProfile) ApplicantReference() string   { return a.applicantReference }

// DebtTypes returns a copy of the applicant's debt types.
func (a ApplicantProfile) DebtTypes() []string {
	out := make([]string, len(a.debtTypes))
	copy(out, a.debtTypes)
	return out
}

// Utilization returns usedCredit / creditLimit.
func (a ApplicantProfile) Utilization() decimal.Decimal {
	return a.usedCredit.Div(a.creditLimit)
}

// IsFullTime reports whether the employment status reads as full-time work.
func (a ApplicantProfile) IsFullTime() bool {
	s := strings.NewReplacer("-", "", " ", "", "_", "").Replace(strings.ToLower(a.employmentStatus))
	return s == "fulltime"
}

// IsStudent reports whether the applicant declared student status.
func (a ApplicantProfile) IsStudent() bool {
	return strings.EqualFold(a.employmentStatus, "student")
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
