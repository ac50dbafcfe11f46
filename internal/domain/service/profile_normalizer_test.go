package service_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/service"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/valueobject"
)

func referenceFields() map[string]any {
	return map[string]any{
		"loanType":         "Personal Loan",
		"income":           5000,
		"expenses":         1500,
		"debt":             300,
		"loanRequest":      10000,
		"tenure":           36,
		"paymentHistory":   "On-time",
		"usedCredit":       1000,
		"creditLimit":      5000,
		"employmentStatus": "Full-time",
		"monthsEmployed":   24,
		"totalAssets":      2000,
		"bankAccounts":     2,
		"debtTypes":        []string{"Credit Card"},
	}
}

func warningFields(ws []model.NormalizationWarning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Field)
	}
	return out
}

func TestProfileNormalizer_CanonicalKeys(t *testing.T) {
	n := service.NewProfileNormalizer(nil)

	p, warnings, err := n.Normalize(referenceFields())

	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.True(t, p.LoanType().Equal(valueobject.LoanTypePersonalLoan))
	assert.True(t, p.Income().Equal(decimal.NewFromInt(5000)))
	assert.True(t, p.LoanRequest().Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, 36, p.TenureMonths())
	assert.True(t, p.PaymentHistory().IsOnTime())
	assert.Equal(t, 24, p.MonthsEmployed())
	assert.Equal(t, 2, p.BankAccounts())
	assert.Equal(t, []string{"Credit Card"}, p.DebtTypes())
}

func TestProfileNormalizer_Aliases(t *testing.T) {
	n := service.NewProfileNormalizer(nil)

	t.Run("alias spellings", func(t *testing.T) {
		p, _, err := n.Normalize(map[string]any{
			"productType":        "car_loan",
			"monthlyIncome":      "4,000",
			"estimatedDebts":     200.5,
			"loanAmount":         "$8000",
			"creditTotalUsage":   500,
			"currentCreditLimit": 2000,
			"employment_status":  "Part-time",
			"months_employed":    "30",
			"debt_types":         "Car Loan, Credit Card",
		})
		require.NoError(t, err)
		assert.True(t, p.LoanType().Equal(valueobject.LoanTypeCarLoan))
		assert.True(t, p.Income().Equal(decimal.NewFromInt(4000)))
		assert.True(t, p.Debt().Equal(decimal.RequireFromString("200.5")))
		assert.True(t, p.LoanRequest().Equal(decimal.NewFromInt(8000)))
		assert.True(t, p.UsedCredit().Equal(decimal.NewFromInt(500)))
		assert.True(t, p.CreditLimit().Equal(decimal.NewFromInt(2000)))
		assert.Equal(t, "Part-time", p.EmploymentStatus())
		assert.Equal(t, 30, p.MonthsEmployed())
		assert.Equal(t, []string{"Car Loan", "Credit Card"}, p.DebtTypes())
	})

	t.Run("annual income is divided by twelve", func(t *testing.T) {
		p, _, err := n.Normalize(map[string]any{"annualIncome": 60000, "expenses": 1000})
		require.NoError(t, err)
		assert.True(t, p.Income().Equal(decimal.NewFromInt(5000)))
	})

	t.Run("zero canonical value falls through to the next alias", func(t *testing.T) {
		p, _, err := n.Normalize(map[string]any{"income": 0, "monthlyIncome": 4500})
		require.NoError(t, err)
		assert.True(t, p.Income().Equal(decimal.NewFromInt(4500)))
	})

	t.Run("zero everywhere is kept for income", func(t *testing.T) {
		p, warnings, err := n.Normalize(map[string]any{"income": 0, "expenses": 100})
		require.NoError(t, err)
		assert.True(t, p.Income().IsZero())
		assert.NotContains(t, warningFields(warnings), "income")
	})

	t.Run("zero credit limit takes the floor", func(t *testing.T) {
		p, _, err := n.Normalize(map[string]any{"income": 3000, "creditLimit": 0})
		require.NoError(t, err)
		assert.True(t, p.CreditLimit().Equal(model.MinCreditLimit))
	})
}

func TestProfileNormalizer_Defaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	n := service.NewProfileNormalizer(logger)

	p, warnings, err := n.Normalize(map[string]any{"income": 5000})

	require.NoError(t, err)
	assert.True(t, p.Expenses().Equal(decimal.NewFromInt(1500)))
	assert.True(t, p.Debt().IsZero())
	assert.True(t, p.LoanRequest().Equal(decimal.NewFromInt(10000)))
	assert.True(t, p.CreditLimit().Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 12, p.MonthsEmployed())
	assert.Equal(t, 12, p.TenureMonths())
	assert.True(t, p.PaymentHistory().IsOnTime())
	assert.True(t, p.LoanType().Equal(valueobject.LoanTypeOther))
	assert.Empty(t, p.DebtTypes())

	fields := warningFields(warnings)
	for _, f := range []string{"expenses", "debt", "loanRequest", "creditLimit", "monthsEmployed", "loanType", "tenure", "paymentHistory"} {
		assert.Contains(t, fields, f)
	}
	assert.NotContains(t, fields, "income")
	assert.Contains(t, buf.String(), `"stage":"normalize"`)
}

func TestProfileNormalizer_InvalidValues(t *testing.T) {
	n := service.NewProfileNormalizer(nil)

	p, warnings, err := n.Normalize(map[string]any{
		"income":   "lots",
		"expenses": -50,
		"debt":     400,
	})

	require.NoError(t, err)
	assert.True(t, p.Income().Equal(decimal.NewFromInt(3000)))
	assert.True(t, p.Expenses().Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, []string{model.DefaultDebtType}, p.DebtTypes())

	byField := map[string]model.NormalizationWarning{}
	for _, w := range warnings {
		byField[w.Field] = w
	}
	assert.Equal(t, "unparseable value", byField["income"].Reason)
	assert.Equal(t, "negative value", byField["expenses"].Reason)
}

func TestProfileNormalizer_Incomplete(t *testing.T) {
	n := service.NewProfileNormalizer(nil)

	_, _, err := n.Normalize(map[string]any{"loanType": "Mortgage", "paymentHistory": "On-time"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrProfileIncomplete))
	var incomplete *model.ProfileIncompleteError
	require.True(t, errors.As(err, &incomplete))
	assert.Len(t, incomplete.Missing, 6)
}

func TestProfileNormalizer_OptionalFields(t *testing.T) {
	n := service.NewProfileNormalizer(nil)

	fields := referenceFields()
	fields["age"] = 34
	fields["province"] = "ON"
	fields["num_credit_inquiries"] = 2
	fields["selfReportedCreditScore"] = 720
	fields["applicantId"] = "app-42"

	p, _, err := n.Normalize(fields)

	require.NoError(t, err)
	assert.Equal(t, 34, p.Age())
	assert.Equal(t, "ON", p.Province())
	assert.Equal(t, 2, p.CreditInquiries())
	assert.Equal(t, 720, p.SelfReportedScore())
	assert.Equal(t, "app-42", p.ApplicantReference())
}
