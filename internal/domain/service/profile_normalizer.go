package service

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// Alias table
// ---------------------------------------------------------------------------

// Each canonical field lists its source keys in resolution order. The first
// key is the canonical spelling.
var (
	loanTypeKeys       = keys("loanType", "productType", "loan_type", "product_type")
	incomeKeys         = []alias{{key: "income"}, {key: "monthlyIncome"}, {key: "monthly_income"}, {key: "annualIncome", divisor: 12}, {key: "annual_income", divisor: 12}}
	expensesKeys       = keys("expenses", "monthlyExpenses", "monthly_expenses", "selfReportedExpenses", "self_reported_expenses")
	debtKeys           = keys("debt", "estimatedDebts", "totalDebt", "monthlyDebt", "self_reported_debt", "estimated_debt")
	loanRequestKeys    = keys("loanRequest", "requestedAmount", "loanAmount", "requested_amount")
	tenureKeys         = keys("tenure", "tenureMonths", "requestedTermMonths", "loanTerm", "term_months")
	paymentHistoryKeys = keys("paymentHistory", "payment_history", "paymentHistoryRating", "payment_history_rating")
	usedCreditKeys     = keys("usedCredit", "creditTotalUsage", "currentCreditUsage", "credit_used")
	creditLimitKeys    = keys("creditLimit", "currentCreditLimit", "totalCreditLimit", "total_credit_limit")
	employmentKeys     = keys("employmentStatus", "employment_status", "employmentType")
	monthsEmployedKeys = keys("monthsEmployed", "months_employed", "employmentDurationMonths")
	assetsKeys         = keys("totalAssets", "assets", "assetValue", "total_assets")
	bankAccountsKeys   = keys("bankAccounts", "bankAccountCount", "num_bank_accounts")
	debtTypesKeys      = keys("debtTypes", "debt_types", "existingDebtTypes")
	ageKeys            = keys("age")
	birthDateKeys      = keys("dateOfBirth", "date_of_birth", "birthDate")
	provinceKeys       = keys("province", "state", "region")
	inquiriesKeys      = keys("numCreditInquiries", "num_credit_inquiries", "creditInquiries")
	selfScoreKeys      = keys("selfReportedCreditScore", "self_reported_credit_score", "userCreditScore", "creditScore", "credit_score")
	referenceKeys      = keys("applicantReference", "applicantId", "applicationId", "id")
)

// requiredField is a numeric field the engine can evaluate without, by
// substituting a documented default.
type requiredField struct {
	name     string
	aliases  []alias
	fallback decimal.Decimal
	// zeroIsMissing treats a resolved zero as absent.
	zeroIsMissing bool
}

var (
	fieldIncome         = requiredField{name: "income", aliases: incomeKeys, fallback: decimal.NewFromInt(3000)}
	fieldExpenses       = requiredField{name: "expenses", aliases: expensesKeys, fallback: decimal.NewFromInt(1500)}
	fieldDebt           = requiredField{name: "debt", aliases: debtKeys, fallback: decimal.Zero}
	fieldLoanRequest    = requiredField{name: "loanRequest", aliases: loanRequestKeys, fallback: decimal.NewFromInt(10000), zeroIsMissing: true}
	fieldCreditLimit    = requiredField{name: "creditLimit", aliases: creditLimitKeys, fallback: model.MinCreditLimit, zeroIsMissing: true}
	fieldMonthsEmployed = requiredField{name: "monthsEmployed", aliases: monthsEmployedKeys, fallback: decimal.NewFromInt(12)}

	requiredFields = []requiredField{
		fieldIncome, fieldExpenses, fieldDebt, fieldLoanRequest, fieldCreditLimit, fieldMonthsEmployed,
	}
)

const (
	defaultTenureMonths   = 12
	defaultPaymentHistory = "On-time"
)

// ---------------------------------------------------------------------------
// ProfileNormalizer
// ---------------------------------------------------------------------------

// ProfileNormalizer resolves loosely keyed submissions into ApplicantProfile
// values. It holds no state besides its logger and clock.
type ProfileNormalizer struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewProfileNormalizer creates a normalizer. A nil logger uses slog.Default().
func NewProfileNormalizer(logger *slog.Logger) *ProfileNormalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileNormalizer{logger: logger, now: time.Now}
}

// Normalize resolves fields into a profile. Unresolvable values are replaced
// by defaults and reported as warnings; only a submission lacking every
// required field fails, with *model.ProfileIncompleteError.
func (n *ProfileNormalizer) Normalize(fields map[string]any) (model.ApplicantProfile, []model.NormalizationWarning, error) {
	if missing := missingRequired(fields); len(missing) == len(requiredFields) {
		n.logger.Warn("applicant profile unusable", "stage", "normalize", "missing", missing)
		return model.ApplicantProfile{}, nil, &model.ProfileIncompleteError{Missing: missing}
	}

	var warnings []model.NormalizationWarning
	warn := func(field, reason, def string) {
		warnings = append(warnings, model.NormalizationWarning{Field: field, Reason: reason, Default: def})
	}
	required := func(f requiredField) decimal.Decimal {
		v, _, state := resolveDecimal(fields, f.aliases)
		switch {
		case state == lookupFound && v.IsNegative():
			warn(f.name, "negative value", f.fallback.String())
			return f.fallback
		case state == lookupFound:
			return v
		case state == lookupZero && !f.zeroIsMissing:
			return decimal.Zero
		case state == lookupInvalid:
			warn(f.name, "unparseable value", f.fallback.String())
		default:
			warn(f.name, "missing", f.fallback.String())
		}
		return f.fallback
	}
	optional := func(name string, aliases []alias) decimal.Decimal {
		v, _, state := resolveDecimal(fields, aliases)
		switch {
		case state == lookupInvalid:
			warn(name, "unparseable value", "0")
		case v.IsNegative():
			warn(name, "negative value", "0")
			return decimal.Zero
		}
		return v
	}

	params := model.ApplicantProfileParams{
		Income:         required(fieldIncome),
		Expenses:       required(fieldExpenses),
		Debt:           required(fieldDebt),
		LoanRequest:    required(fieldLoanRequest),
		CreditLimit:    required(fieldCreditLimit),
		MonthsEmployed: int(required(fieldMonthsEmployed).IntPart()),
		UsedCredit:     optional("usedCredit", usedCreditKeys),
		TotalAssets:    optional("totalAssets", assetsKeys),
		BankAccounts:   int(optional("bankAccounts", bankAccountsKeys).IntPart()),
	}

	if s, _, ok := resolveString(fields, loanTypeKeys); ok {
		params.LoanType = valueobject.ParseLoanType(s)
	} else {
		params.LoanType = valueobject.LoanTypeOther
		warn("loanType", "missing", valueobject.LoanTypeOther.DisplayName())
	}

	tenure, _, state := resolveDecimal(fields, tenureKeys)
	if state == lookupFound && tenure.IsPositive() {
		params.TenureMonths = int(tenure.IntPart())
	} else {
		params.TenureMonths = defaultTenureMonths
		warn("tenure", "missing", strconv.Itoa(defaultTenureMonths))
	}

	if s, _, ok := resolveString(fields, paymentHistoryKeys); ok {
		params.PaymentHistory = s
	} else {
		params.PaymentHistory = defaultPaymentHistory
		warn("paymentHistory", "missing", defaultPaymentHistory)
	}

	params.EmploymentStatus, _, _ = resolveString(fields, employmentKeys)
	params.DebtTypes, _ = resolveStringList(fields, debtTypesKeys)
	params.Province, _, _ = resolveString(fields, provinceKeys)
	params.ApplicantReference, _, _ = resolveString(fields, referenceKeys)
	params.Age = n.resolveAge(fields)

	if v, _, state := resolveDecimal(fields, inquiriesKeys); state == lookupFound {
		params.CreditInquiries = int(v.IntPart())
	}
	if v, _, state := resolveDecimal(fields, selfScoreKeys); state == lookupFound {
		params.SelfReportedScore = int(v.IntPart())
	}

	for _, w := range warnings {
		n.logger.Warn("profile field defaulted",
			"stage", "normalize",
			"field", w.Field,
			"reason", w.Reason,
			"default", w.Default,
		)
	}

	profile := model.NewApplicantProfile(params)
	n.logger.Debug("profile normalized",
		"stage", "normalize",
		"loan_type", profile.LoanType().String(),
		"payment_history", profile.PaymentHistory().String(),
		"warnings", len(warnings),
	)
	return profile, warnings, nil
}

func (n *ProfileNormalizer) resolveAge(fields map[string]any) int {
	if v, _, state := resolveDecimal(fields, ageKeys); state == lookupFound {
		return int(v.IntPart())
	}
	s, _, ok := resolveString(fields, birthDateKeys)
	if !ok {
		return 0
	}
	dob, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return 0
	}
	now := n.now()
	age := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		age--
	}
	return age
}

// missingRequired lists required fields with no key present at all.
func missingRequired(fields map[string]any) []string {
	var missing []string
	for _, f := range requiredFields {
		present := false
		for _, a := range f.aliases {
			if v, ok := fields[a.key]; ok && v != nil {
				present = true
				break
			}
		}
		if !present {
			missing = append(missing, f.name)
		}
	}
	return missing
}
