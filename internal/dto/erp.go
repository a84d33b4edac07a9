package dto

import (
	"time"

	"github.com/heraops/ledger-integrity-engine/internal/adapters/erp"
	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
)

// PostDocumentRequest asks the tenant's connector to post (or park) a
// balanced document.
type PostDocumentRequest struct {
	Reference      string          `json:"reference" binding:"required"`
	GovernanceCode string          `json:"governanceCode" binding:"required,governancecode"`
	PostingDate    time.Time       `json:"postingDate" binding:"required"`
	CurrencyCode   string          `json:"currencyCode" binding:"required"`
	HeaderText     string          `json:"headerText"`
	Lines          []domain.GLLine `json:"lines" binding:"required"`
}

// ToPostingDocument maps the request onto the connector input.
func (r PostDocumentRequest) ToPostingDocument() erp.PostingDocument {
	return erp.PostingDocument{
		Reference:      r.Reference,
		GovernanceCode: r.GovernanceCode,
		PostingDate:    r.PostingDate,
		CurrencyCode:   r.CurrencyCode,
		HeaderText:     r.HeaderText,
		Lines:          r.Lines,
	}
}

// ReverseDocumentRequest asks for the reversal of a posted document.
type ReverseDocumentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ExternalErrorResponse surfaces a classified connector failure. Retry
// policy belongs to the caller, so the classification is part of the
// response contract.
type ExternalErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}
