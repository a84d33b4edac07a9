package erp

import (
	"fmt"
	"strings"

	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// External document types, SAP convention.
const (
	DocTypeJournalEntry    = "SA"
	DocTypeVendorInvoice   = "KR"
	DocTypeCustomerInvoice = "DR"
	DocTypeVendorPayment   = "KZ"
	DocTypeCustomerPayment = "DZ"
)

// documentTypeBySegment maps the domain segment of a governance code to an
// external document type. The domain segment is the third dot-separated
// segment, e.g. "AP" in HERA.FIN.AP.INVOICE.SUPPLIER.v1.
var documentTypeBySegment = map[string]string{
	"GL":         DocTypeJournalEntry,
	"PAYROLL":    DocTypeJournalEntry,
	"AP":         DocTypeVendorInvoice,
	"AR":         DocTypeCustomerInvoice,
	"AP_PAYMENT": DocTypeVendorPayment,
	"AR_PAYMENT": DocTypeCustomerPayment,
}

// DocumentTypeFor selects the external document type for a governance code.
// Codes with no mapped domain segment post as generic journal entries.
func DocumentTypeFor(governanceCode string) string {
	segments := strings.Split(governanceCode, ".")
	if len(segments) > 2 {
		if docType, ok := documentTypeBySegment[segments[2]]; ok {
			return docType
		}
	}
	return DocTypeJournalEntry
}

// Debit/credit indicators, SAP convention: S (Soll) for debit, H (Haben)
// for credit.
const (
	IndicatorDebit  = "S"
	IndicatorCredit = "H"
)

// externalLine is the system-neutral wire shape of one document line.
type externalLine struct {
	ItemNumber           int             `json:"itemNumber"`
	GLAccount            string          `json:"glAccount"`
	AmountInCurrency     decimal.Decimal `json:"amountInTransactionCurrency"`
	DebitCreditIndicator string          `json:"debitCreditCode"`
	CurrencyCode         string          `json:"currencyCode"`
	ItemText             string          `json:"itemText"`
}

// SignedAmount encodes the posting sign convention: DEBIT is a positive
// signed amount, CREDIT its negation. This convention is the single most
// common source of silent posting errors, so it lives in exactly one place
// and is covered by dedicated tests.
func SignedAmount(line domain.GLLine) decimal.Decimal {
	if line.Side == domain.Credit {
		return line.Amount.Neg()
	}
	return line.Amount
}

// IndicatorFor returns the debit/credit indicator for a line side.
func IndicatorFor(side domain.EntrySide) string {
	if side == domain.Credit {
		return IndicatorCredit
	}
	return IndicatorDebit
}

// mapLines converts GL lines to external line items, carrying both the
// signed amount and the explicit indicator so either convention can be
// consumed downstream.
func mapLines(lines []domain.GLLine) []externalLine {
	out := make([]externalLine, len(lines))
	for i, line := range lines {
		out[i] = externalLine{
			ItemNumber:           line.Sequence,
			GLAccount:            line.AccountCode,
			AmountInCurrency:     SignedAmount(line),
			DebitCreditIndicator: IndicatorFor(line.Side),
			CurrencyCode:         line.CurrencyCode,
			ItemText:             line.Memo,
		}
	}
	return out
}

// FiscalPeriodKey derives the fiscal period key from a posting date,
// calendar-year fiscal variant.
func FiscalPeriodKey(doc PostingDocument) string {
	return fmt.Sprintf("%04d-%02d", doc.PostingDate.Year(), int(doc.PostingDate.Month()))
}
