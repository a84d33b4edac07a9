package erp

import (
	"testing"
	"time"

	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedAmount(t *testing.T) {
	amount := decimal.RequireFromString("150.25")

	debit := domain.GLLine{Side: domain.Debit, Amount: amount}
	credit := domain.GLLine{Side: domain.Credit, Amount: amount}

	assert.True(t, SignedAmount(debit).Equal(amount))
	assert.True(t, SignedAmount(credit).Equal(amount.Neg()))
}

func TestIndicatorFor(t *testing.T) {
	assert.Equal(t, "S", IndicatorFor(domain.Debit))
	assert.Equal(t, "H", IndicatorFor(domain.Credit))
}

func TestDocumentTypeFor(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"HERA.FIN.GL.ACCOUNT.EXPENSE.SALARY.v1", DocTypeJournalEntry},
		{"HERA.SALON.PAYROLL.RUN.MONTHLY.v2", DocTypeJournalEntry},
		{"HERA.FIN.AP.INVOICE.SUPPLIER.v1", DocTypeVendorInvoice},
		{"HERA.FIN.AR.INVOICE.CUSTOMER.v1", DocTypeCustomerInvoice},
		{"HERA.FIN.AP_PAYMENT.RUN.WEEKLY.v1", DocTypeVendorPayment},
		{"HERA.FIN.AR_PAYMENT.RECEIPT.CARD.v1", DocTypeCustomerPayment},
		// Unknown domain segments post as generic journal entries.
		{"HERA.FIN.INVENTORY.MOVE.ISSUE.v1", DocTypeJournalEntry},
		{"short", DocTypeJournalEntry},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, DocumentTypeFor(tc.code), "code %s", tc.code)
	}
}

func TestMapLines_CarriesSignAndIndicator(t *testing.T) {
	lines := []domain.GLLine{
		{Sequence: 1, AccountCode: "6300", Side: domain.Debit, Amount: decimal.RequireFromString("5000"), CurrencyCode: "AED", Memo: "Payroll earnings"},
		{Sequence: 2, AccountCode: "1110", Side: domain.Credit, Amount: decimal.RequireFromString("5000"), CurrencyCode: "AED", Memo: "Net settlement"},
	}

	mapped := mapLines(lines)

	require.Len(t, mapped, 2)
	assert.Equal(t, 1, mapped[0].ItemNumber)
	assert.Equal(t, "6300", mapped[0].GLAccount)
	assert.Equal(t, "S", mapped[0].DebitCreditIndicator)
	assert.True(t, mapped[0].AmountInCurrency.Equal(decimal.RequireFromString("5000")))

	assert.Equal(t, "H", mapped[1].DebitCreditIndicator)
	assert.True(t, mapped[1].AmountInCurrency.Equal(decimal.RequireFromString("-5000")))
}

func TestFiscalPeriodKey(t *testing.T) {
	doc := PostingDocument{PostingDate: time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "2026-03", FiscalPeriodKey(doc))

	doc.PostingDate = time.Date(2025, time.December, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2025-12", FiscalPeriodKey(doc))
}
