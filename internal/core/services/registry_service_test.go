package services_test

import (
	"testing"

	"github.com/heraops/ledger-integrity-engine/internal/apperrors"
	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
	"github.com/heraops/ledger-integrity-engine/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccountRegistry_RejectsDuplicateCodes(t *testing.T) {
	entries := []domain.AccountEntry{
		{Code: "1100", Name: "Cash on Hand", Type: domain.Asset, NormalBalance: domain.Debit},
		{Code: "1100", Name: "Cash Again", Type: domain.Asset, NormalBalance: domain.Debit},
	}

	registry, err := services.NewAccountRegistry(entries)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	assert.Nil(t, registry)
}

func TestRegistry_Lookup(t *testing.T) {
	registry, err := services.NewAccountRegistry(services.DefaultAccountEntries())
	require.NoError(t, err)

	entry, err := registry.Lookup(services.AccountSalariesExpense)
	require.NoError(t, err)
	assert.Equal(t, "Salaries and Wages", entry.Name)
	assert.Equal(t, domain.Expense, entry.Type)
	assert.Equal(t, domain.Debit, entry.NormalBalance)

	_, err = registry.Lookup("9999")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRegistry_EntriesSortedByCode(t *testing.T) {
	registry, err := services.NewAccountRegistry(services.DefaultAccountEntries())
	require.NoError(t, err)

	entries := registry.Entries()
	require.Len(t, entries, 10)
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Code, entries[i].Code)
	}
}

func TestRegistry_DefaultGovernanceCodesAreValid(t *testing.T) {
	for _, entry := range services.DefaultAccountEntries() {
		assert.True(t, domain.ValidGovernanceCode(entry.GovernanceCode),
			"account %s has malformed governance code %s", entry.Code, entry.GovernanceCode)
	}
}

func TestRegistry_ResolvePaymentMethod(t *testing.T) {
	registry, err := services.NewAccountRegistry(services.DefaultAccountEntries())
	require.NoError(t, err)

	tests := []struct {
		method       domain.PaymentMethod
		expectedCode string
	}{
		{domain.PaymentCash, services.AccountCashOnHand},
		{domain.PaymentBankTransfer, services.AccountBank},
		{domain.PaymentCard, services.AccountCardClearing},
		{domain.PaymentCheque, services.AccountChequesInTransit},
	}

	for _, tc := range tests {
		entry, err := registry.ResolvePaymentMethod(tc.method)
		require.NoError(t, err, "method %s", tc.method)
		assert.Equal(t, tc.expectedCode, entry.Code)
		assert.Equal(t, domain.Asset, entry.Type)
	}
}

func TestRegistry_ResolvePaymentMethod_UnknownTokenFails(t *testing.T) {
	registry, err := services.NewAccountRegistry(services.DefaultAccountEntries())
	require.NoError(t, err)

	_, err = registry.ResolvePaymentMethod(domain.PaymentMethod("CRYPTO"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
