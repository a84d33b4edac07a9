package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// AccountEntry is one row of the chart of accounts. Reference data: defined at
// process start, never mutated at runtime.
type AccountEntry struct {
	Code           string      `json:"code"` // Unique key, e.g. "6300"
	Name           string      `json:"name"`
	Type           AccountType `json:"type"`
	NormalBalance  EntrySide   `json:"normalBalance"`
	GovernanceCode string      `json:"governanceCode"`
}

// PaymentMethod is an external payment method token. The set is fixed and
// case-sensitive; anything else must be treated as a validation error.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCard         PaymentMethod = "CARD"
	PaymentCheque       PaymentMethod = "CHEQUE"
)
