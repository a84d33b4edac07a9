package domain

import "github.com/shopspring/decimal"

// EntrySide indicates whether a GL line is a Debit or a Credit.
type EntrySide string

const (
	Debit  EntrySide = "DEBIT"
	Credit EntrySide = "CREDIT"
)

// LineCategory classifies a business line-item before posting.
type LineCategory string

const (
	CategoryBase            LineCategory = "BASE"
	CategoryOvertime        LineCategory = "OVERTIME"
	CategoryBonus           LineCategory = "BONUS"
	CategoryCommission      LineCategory = "COMMISSION"
	CategoryAllowance       LineCategory = "ALLOWANCE"
	CategoryWithholding     LineCategory = "WITHHOLDING"
	CategoryLiabilityPayout LineCategory = "LIABILITY_PAYOUT"
)

// KnownCategory reports whether c is one of the supported line categories.
// Unknown categories are rejected explicitly rather than defaulted.
func KnownCategory(c LineCategory) bool {
	switch c {
	case CategoryBase, CategoryOvertime, CategoryBonus, CategoryCommission,
		CategoryAllowance, CategoryWithholding, CategoryLiabilityPayout:
		return true
	}
	return false
}

// LineItem represents one component of a business event before posting.
// NetAmount ≈ GrossAmount − WithheldAmount is the caller's responsibility;
// both NetAmount and GrossAmount must be strictly positive.
type LineItem struct {
	SubjectID      string          `json:"subjectID"`
	SubjectLabel   string          `json:"subjectLabel"`
	Category       LineCategory    `json:"category"`
	GrossAmount    decimal.Decimal `json:"grossAmount"`
	WithheldAmount decimal.Decimal `json:"withheldAmount"`
	NetAmount      decimal.Decimal `json:"netAmount"`
}

// GLLine is a single debit- or credit-side posting within a balanced entry.
type GLLine struct {
	Sequence     int             `json:"sequence"` // 1-based ordering within the posting
	AccountCode  string          `json:"accountCode"`
	AccountName  string          `json:"accountName"` // Denormalized for display without a join
	Side         EntrySide       `json:"side"`
	Amount       decimal.Decimal `json:"amount"` // Always strictly positive
	CurrencyCode string          `json:"currencyCode"`
	Memo         string          `json:"memo"`
}

// BalanceTolerance is the maximum absolute difference between debit and
// credit totals that still counts as balanced, per currency.
var BalanceTolerance = decimal.NewFromFloat(0.01)
