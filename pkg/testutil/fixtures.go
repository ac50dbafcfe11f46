package testutil

// ApplicantReference is the reference carried by ApplicantFields profiles.
const ApplicantReference = "applicant-0001"

// ApplicantFields returns a complete, creditworthy applicant submission:
// a full-time employee with on-time payments asking for a 36 month
// personal loan. Callers may mutate the returned map.
func ApplicantFields(reference string) map[string]any {
	return map[string]any{
		"applicantReference": reference,
		"loanType":           "Personal Loan",
		"income":             5000,
		"expenses":           1500,
		"debt":               300,
		"loanRequest":        10000,
		"tenure":             36,
		"paymentHistory":     "On-time",
		"usedCredit":         1000,
		"creditLimit":        5000,
		"employmentStatus":   "Full-time",
		"monthsEmployed":     24,
		"totalAssets":        2000,
		"bankAccounts":       2,
		"debtTypes":          []string{"Credit Card"},
		"age":                34,
		"province":           "ON",
	}
}
