package services

import (
	"fmt"
	"sort"

	"github.com/heraops/ledger-integrity-engine/internal/apperrors"
	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
	portssvc "github.com/heraops/ledger-integrity-engine/internal/core/ports/services"
)

// Canonical account codes referenced by the posting engine.
const (
	AccountCashOnHand        = "1100"
	AccountBank              = "1110"
	AccountCardClearing      = "1120"
	AccountChequesInTransit  = "1130"
	AccountSalariesPayable   = "2200"
	AccountWithholdings      = "2250"
	AccountOwnerCapital      = "3100"
	AccountServiceRevenue    = "4100"
	AccountSalariesExpense   = "6300"
	AccountCommissionExpense = "6310"
)

// registryService is an in-memory, immutable account registry plus the
// payment-method resolver over it.
type registryService struct {
	byCode  map[string]domain.AccountEntry
	methods map[domain.PaymentMethod]string
}

var _ portssvc.RegistrySvcFacade = (*registryService)(nil)

// NewAccountRegistry builds a registry from the given entries. Duplicate
// codes are a configuration error and fail the load.
func NewAccountRegistry(entries []domain.AccountEntry) (portssvc.RegistrySvcFacade, error) {
	byCode := make(map[string]domain.AccountEntry, len(entries))
	for _, e := range entries {
		if _, exists := byCode[e.Code]; exists {
			return nil, fmt.Errorf("%w: account code %s defined twice", apperrors.ErrDuplicate, e.Code)
		}
		byCode[e.Code] = e
	}

	methods := map[domain.PaymentMethod]string{
		domain.PaymentCash:         AccountCashOnHand,
		domain.PaymentBankTransfer: AccountBank,
		domain.PaymentCard:         AccountCardClearing,
		domain.PaymentCheque:       AccountChequesInTransit,
	}

	return &registryService{byCode: byCode, methods: methods}, nil
}

// DefaultAccountEntries is the built-in chart of accounts used when no
// external configuration overrides it.
func DefaultAccountEntries() []domain.AccountEntry {
	return []domain.AccountEntry{
		{Code: AccountCashOnHand, Name: "Cash on Hand", Type: domain.Asset, NormalBalance: domain.Debit, GovernanceCode: "HERA.FIN.GL.ACCOUNT.ASSET.CASH.v1"},
		{Code: AccountBank, Name: "Bank Account", Type: domain.Asset, NormalBalance: domain.Debit, GovernanceCode: "HERA.FIN.GL.ACCOUNT.ASSET.BANK.v1"},
		{Code: AccountCardClearing, Name: "Card Clearing Account", Type: domain.Asset, NormalBalance: domain.Debit, GovernanceCode: "HERA.FIN.GL.ACCOUNT.ASSET.CARD_CLEARING.v1"},
		{Code: AccountChequesInTransit, Name: "Cheques in Transit", Type: domain.Asset, NormalBalance: domain.Debit, GovernanceCode: "HERA.FIN.GL.ACCOUNT.ASSET.CHEQUE.v1"},
		{Code: AccountSalariesPayable, Name: "Accrued Salaries Payable", Type: domain.Liability, NormalBalance: domain.Credit, GovernanceCode: "HERA.FIN.GL.ACCOUNT.LIABILITY.SALARIES_PAYABLE.v1"},
		{Code: AccountWithholdings, Name: "Employee Withholdings Payable", Type: domain.Liability, NormalBalance: domain.Credit, GovernanceCode: "HERA.FIN.GL.ACCOUNT.LIABILITY.WITHHOLDING.v1"},
		{Code: AccountOwnerCapital, Name: "Owner Capital", Type: domain.Equity, NormalBalance: domain.Credit, GovernanceCode: "HERA.FIN.GL.ACCOUNT.EQUITY.OWNER_CAPITAL.v1"},
		{Code: AccountServiceRevenue, Name: "Service Revenue", Type: domain.Revenue, NormalBalance: domain.Credit, GovernanceCode: "HERA.FIN.GL.ACCOUNT.REVENUE.SERVICE.v1"},
		{Code: AccountSalariesExpense, Name: "Salaries and Wages", Type: domain.Expense, NormalBalance: domain.Debit, GovernanceCode: "HERA.FIN.GL.ACCOUNT.EXPENSE.SALARY.v1"},
		{Code: AccountCommissionExpense, Name: "Commission Expense", Type: domain.Expense, NormalBalance: domain.Debit, GovernanceCode: "HERA.FIN.GL.ACCOUNT.EXPENSE.COMMISSION.v1"},
	}
}

// Lookup resolves a canonical account code.
func (r *registryService) Lookup(code string) (domain.AccountEntry, error) {
	entry, ok := r.byCode[code]
	if !ok {
		return domain.AccountEntry{}, fmt.Errorf("%w: account code %s", apperrors.ErrNotFound, code)
	}
	return entry, nil
}

// Entries lists the registry sorted by account code.
func (r *registryService) Entries() []domain.AccountEntry {
	out := make([]domain.AccountEntry, 0, len(r.byCode))
	for _, e := range r.byCode {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ResolvePaymentMethod maps a payment method token to its asset account.
// Unknown tokens return not-found; callers must treat that as a validation
// error rather than defaulting to a fallback account, which would
// misclassify cash flow.
func (r *registryService) ResolvePaymentMethod(method domain.PaymentMethod) (domain.AccountEntry, error) {
	code, ok := r.methods[method]
	if !ok {
		return domain.AccountEntry{}, fmt.Errorf("%w: payment method %q", apperrors.ErrNotFound, string(method))
	}
	return r.Lookup(code)
}
