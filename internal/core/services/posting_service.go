package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heraops/ledger-integrity-engine/internal/apperrors"
	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
	portssvc "github.com/heraops/ledger-integrity-engine/internal/core/ports/services"
	"github.com/heraops/ledger-integrity-engine/internal/middleware"
	"github.com/shopspring/decimal"
)

// LedgerImbalanceError reports a generated posting whose debit and credit
// totals differ beyond tolerance. Always fatal: it indicates a logic defect,
// never a transient condition, and must not be suppressed.
type LedgerImbalanceError struct {
	Debits       decimal.Decimal
	Credits      decimal.Decimal
	CurrencyCode string
}

func (e *LedgerImbalanceError) Error() string {
	return fmt.Sprintf("generated ledger lines do not balance: debits %s, credits %s (%s)",
		e.Debits.String(), e.Credits.String(), e.CurrencyCode)
}

// PostingAccounts names the fixed account roles the generator posts against.
type PostingAccounts struct {
	Expense         string // Earnings debit side, e.g. Salaries and Wages
	Withholding     string // Withholding liability credit side
	LiabilityPayout string // Liability reduced when paying out amounts already owed
}

// DefaultPostingAccounts returns the role mapping over the built-in chart.
func DefaultPostingAccounts() PostingAccounts {
	return PostingAccounts{
		Expense:         AccountSalariesExpense,
		Withholding:     AccountWithholdings,
		LiabilityPayout: AccountSalariesPayable,
	}
}

// postingService implements the Balanced Line Generator. Pure and
// thread-safe by construction: no shared mutable state.
type postingService struct {
	registry portssvc.RegistrySvcFacade
	accounts PostingAccounts
	currency string
}

var _ portssvc.PostingSvcFacade = (*postingService)(nil)

// NewPostingService creates a PostingService over the given registry. The
// account roles must resolve in the registry; a bad role mapping is a
// configuration error.
func NewPostingService(registry portssvc.RegistrySvcFacade, accounts PostingAccounts, currencyCode string) (portssvc.PostingSvcFacade, error) {
	for _, code := range []string{accounts.Expense, accounts.Withholding, accounts.LiabilityPayout} {
		if _, err := registry.Lookup(code); err != nil {
			return nil, fmt.Errorf("posting account role does not resolve: %w", err)
		}
	}
	if currencyCode == "" {
		return nil, fmt.Errorf("%w: currency code is required", apperrors.ErrValidation)
	}
	return &postingService{registry: registry, accounts: accounts, currency: currencyCode}, nil
}

// validateLineItems rejects the whole operation before any line is produced.
func (s *postingService) validateLineItems(items []domain.LineItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: line-item list is empty", apperrors.ErrValidation)
	}
	for i, item := range items {
		if item.SubjectID == "" {
			return fmt.Errorf("%w: line item %d has a blank subject id", apperrors.ErrValidation, i+1)
		}
		if item.SubjectLabel == "" {
			return fmt.Errorf("%w: line item %d has a blank subject label", apperrors.ErrValidation, i+1)
		}
		if !domain.KnownCategory(item.Category) {
			return fmt.Errorf("%w: line item %d has unknown category %q", apperrors.ErrValidation, i+1, string(item.Category))
		}
		if item.GrossAmount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: line item %d gross amount must be positive, got %s", apperrors.ErrValidation, i+1, item.GrossAmount.String())
		}
		if item.NetAmount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: line item %d net amount must be positive, got %s", apperrors.ErrValidation, i+1, item.NetAmount.String())
		}
		if item.WithheldAmount.IsNegative() {
			return fmt.Errorf("%w: line item %d withheld amount must not be negative, got %s", apperrors.ErrValidation, i+1, item.WithheldAmount.String())
		}
	}
	return nil
}

// GenerateLines converts line-items plus a payment method into a balanced
// set of GL lines. Steps 2-5 are algebraically balanced by construction; the
// final recomputation guards against future edits to the algorithm.
func (s *postingService) GenerateLines(ctx context.Context, items []domain.LineItem, method domain.PaymentMethod, includesLiabilityPayout bool) ([]domain.GLLine, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.validateLineItems(items); err != nil {
		return nil, err
	}

	settlementAccount, err := s.registry.ResolvePaymentMethod(method)
	if err != nil {
		return nil, fmt.Errorf("%w: payment method %q does not resolve", apperrors.ErrValidation, string(method))
	}

	// Partition the input: earnings, withholding, liability payout, net settlement.
	earningsSum := decimal.Zero
	withholdingSum := decimal.Zero
	payoutSum := decimal.Zero
	netSum := decimal.Zero
	earningsCount := 0
	for _, item := range items {
		if item.Category == domain.CategoryLiabilityPayout {
			payoutSum = payoutSum.Add(item.GrossAmount)
		} else {
			earningsSum = earningsSum.Add(item.GrossAmount)
			earningsCount++
		}
		withholdingSum = withholdingSum.Add(item.WithheldAmount)
		netSum = netSum.Add(item.NetAmount)
	}

	var lines []domain.GLLine
	appendLine := func(accountCode string, side domain.EntrySide, amount decimal.Decimal, memo string) error {
		account, err := s.registry.Lookup(accountCode)
		if err != nil {
			return err
		}
		lines = append(lines, domain.GLLine{
			Sequence:     len(lines) + 1,
			AccountCode:  account.Code,
			AccountName:  account.Name,
			Side:         side,
			Amount:       amount,
			CurrencyCode: s.currency,
			Memo:         memo,
		})
		return nil
	}

	if earningsSum.GreaterThan(decimal.Zero) {
		memo := fmt.Sprintf("Payroll earnings for %d line item(s)", earningsCount)
		if err := appendLine(s.accounts.Expense, domain.Debit, earningsSum, memo); err != nil {
			return nil, err
		}
	}

	// The cash/bank/card outflow is always present.
	if err := appendLine(settlementAccount.Code, domain.Credit, netSum, fmt.Sprintf("Net settlement via %s", string(method))); err != nil {
		return nil, err
	}

	if withholdingSum.GreaterThan(decimal.Zero) {
		if err := appendLine(s.accounts.Withholding, domain.Credit, withholdingSum, "Employee withholdings"); err != nil {
			return nil, err
		}
	}

	// Paying out an amount already owed reduces the liability, hence a debit.
	if includesLiabilityPayout && payoutSum.GreaterThan(decimal.Zero) {
		if err := appendLine(s.accounts.LiabilityPayout, domain.Debit, payoutSum, "Liability payout settlement"); err != nil {
			return nil, err
		}
	}

	debits, credits := sumSides(lines)
	if debits.Sub(credits).Abs().GreaterThan(domain.BalanceTolerance) {
		err := &LedgerImbalanceError{Debits: debits, Credits: credits, CurrencyCode: s.currency}
		logger.Error("Generated posting failed balance check",
			slog.String("debits", debits.String()),
			slog.String("credits", credits.String()))
		return nil, err
	}

	return lines, nil
}

// ReverseLines produces the mirror-image posting of the given lines: flipped
// sides, same accounts and amounts, resequenced.
func (s *postingService) ReverseLines(ctx context.Context, lines []domain.GLLine) ([]domain.GLLine, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no lines to reverse", apperrors.ErrValidation)
	}

	reversed := make([]domain.GLLine, len(lines))
	for i, line := range lines {
		side := domain.Credit
		if line.Side == domain.Credit {
			side = domain.Debit
		}
		reversed[i] = domain.GLLine{
			Sequence:     i + 1,
			AccountCode:  line.AccountCode,
			AccountName:  line.AccountName,
			Side:         side,
			Amount:       line.Amount,
			CurrencyCode: line.CurrencyCode,
			Memo:         fmt.Sprintf("Reversal of: %s", line.Memo),
		}
	}

	debits, credits := sumSides(reversed)
	if debits.Sub(credits).Abs().GreaterThan(domain.BalanceTolerance) {
		return nil, &LedgerImbalanceError{Debits: debits, Credits: credits, CurrencyCode: lines[0].CurrencyCode}
	}
	return reversed, nil
}

// sumSides totals debit and credit amounts across the lines.
func sumSides(lines []domain.GLLine) (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, line := range lines {
		if line.Side == domain.Debit {
			debits = debits.Add(line.Amount)
		} else {
			credits = credits.Add(line.Amount)
		}
	}
	return debits, credits
}
