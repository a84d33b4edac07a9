package services

import (
	"context"

	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
)

// PostingSvcFacade converts business line-items into balanced GL postings.
// Pure: callers persist the resulting lines themselves.
type PostingSvcFacade interface {
	// GenerateLines turns line-items plus a payment method into a set of GL
	// lines guaranteed to balance per currency. Fails fast with a validation
	// error before any line is produced on bad input.
	GenerateLines(ctx context.Context, items []domain.LineItem, method domain.PaymentMethod, includesLiabilityPayout bool) ([]domain.GLLine, error)

	// ReverseLines produces the mirror-image posting of previously generated
	// lines: same amounts and accounts, flipped sides.
	ReverseLines(ctx context.Context, lines []domain.GLLine) ([]domain.GLLine, error)
}

// RegistrySvcFacade exposes the chart-of-accounts reference data.
type RegistrySvcFacade interface {
	// Lookup resolves a canonical account code.
	Lookup(code string) (domain.AccountEntry, error)

	// Entries lists the full registry in stable code order.
	Entries() []domain.AccountEntry

	// ResolvePaymentMethod maps a payment method token to the asset account
	// where funds move. Unknown tokens are a validation error, never a
	// silent fallback.
	ResolvePaymentMethod(method domain.PaymentMethod) (domain.AccountEntry, error)
}
