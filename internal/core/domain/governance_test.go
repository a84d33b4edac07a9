package domain_test

import (
	"testing"

	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestValidGovernanceCode(t *testing.T) {
	testCases := []struct {
		name  string
		code  string
		valid bool
	}{
		{"full salon payroll code", "HERA.SALON.FINANCE.GL.ACCOUNT.EXPENSE.SALARY.v1", true},
		{"minimum segments", "HERA.FIN.GL.ACCOUNT.ASSET.CASH.v1", true},
		{"underscore and digits in segments", "HERA.FIN.GL.ACCOUNT.ASSET.CARD_CLEARING2.v12", true},
		{"lowercase segments", "hera.salon.gl.v1", false},
		{"too few segments", "HERA.AB.v1", false},
		{"first segment too short", "HERA.AB.GL.ACCOUNT.ASSET.CASH.v1", false},
		{"uppercase version tag", "HERA.SALON.FINANCE.GL.ACCOUNT.EXPENSE.SALARY.V1", false},
		{"missing version tag", "HERA.SALON.FINANCE.GL.ACCOUNT.EXPENSE.SALARY", false},
		{"wrong prefix", "XERA.SALON.FINANCE.GL.ACCOUNT.EXPENSE.SALARY.v1", false},
		{"trailing garbage", "HERA.SALON.FINANCE.GL.ACCOUNT.EXPENSE.SALARY.v1 ", false},
		{"leading garbage", "xHERA.SALON.FINANCE.GL.ACCOUNT.EXPENSE.SALARY.v1", false},
		{"too many segments", "HERA.SALON.A1.B2.C3.D4.E5.F6.G7.H8.I9.J0.v1", false},
		{"empty string", "", false},
		{"segment with lowercase char", "HERA.SALON.FINANCE.GL.ACCOUNT.EXPENSE.SALARy.v1", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, domain.ValidGovernanceCode(tc.code), "code: %q", tc.code)
		})
	}
}
