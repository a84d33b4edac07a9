package dto

import (
	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LineItemRequest is one business line-item in a posting request.
type LineItemRequest struct {
	SubjectID      string          `json:"subjectID" binding:"required"`
	SubjectLabel   string          `json:"subjectLabel" binding:"required"`
	Category       string          `json:"category" binding:"required"`
	GrossAmount    decimal.Decimal `json:"grossAmount" binding:"required"`
	WithheldAmount decimal.Decimal `json:"withheldAmount"`
	NetAmount      decimal.Decimal `json:"netAmount" binding:"required"`
}

// GeneratePostingRequest asks for a balanced GL posting over line-items.
type GeneratePostingRequest struct {
	PaymentMethod           string            `json:"paymentMethod" binding:"required"`
	IncludesLiabilityPayout bool              `json:"includesLiabilityPayout"`
	LineItems               []LineItemRequest `json:"lineItems" binding:"required,dive"`
}

// ToDomainLineItems maps the request items onto domain line-items.
func (r GeneratePostingRequest) ToDomainLineItems() []domain.LineItem {
	items := make([]domain.LineItem, len(r.LineItems))
	for i, li := range r.LineItems {
		items[i] = domain.LineItem{
			SubjectID:      li.SubjectID,
			SubjectLabel:   li.SubjectLabel,
			Category:       domain.LineCategory(li.Category),
			GrossAmount:    li.GrossAmount,
			WithheldAmount: li.WithheldAmount,
			NetAmount:      li.NetAmount,
		}
	}
	return items
}

// PostingResponse returns the generated lines with their totals.
type PostingResponse struct {
	Lines        []domain.GLLine `json:"lines"`
	TotalDebits  decimal.Decimal `json:"totalDebits"`
	TotalCredits decimal.Decimal `json:"totalCredits"`
}

// ToPostingResponse assembles the response, recomputing the side totals for
// display.
func ToPostingResponse(lines []domain.GLLine) PostingResponse {
	debits, credits := decimal.Zero, decimal.Zero
	for _, line := range lines {
		if line.Side == domain.Debit {
			debits = debits.Add(line.Amount)
		} else {
			credits = credits.Add(line.Amount)
		}
	}
	return PostingResponse{Lines: lines, TotalDebits: debits, TotalCredits: credits}
}

// ReversePostingRequest asks for the mirror-image of previously generated lines.
type ReversePostingRequest struct {
	Lines []domain.GLLine `json:"lines" binding:"required"`
}
