package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
	portsrepo "github.com/heraops/ledger-integrity-engine/internal/core/ports/repositories"
	portssvc "github.com/heraops/ledger-integrity-engine/internal/core/ports/services"
	"github.com/heraops/ledger-integrity-engine/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockRecordStore is a mock type for the RecordStore interface
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) QueryRecords(ctx context.Context, collection string, filter portsrepo.RecordFilter) ([]portsrepo.Record, error) {
	args := m.Called(ctx, collection, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]portsrepo.Record), args.Error(1)
}

func (m *MockRecordStore) CountRecordsSince(ctx context.Context, collection string, filter portsrepo.RecordFilter, since time.Time) (int, error) {
	args := m.Called(ctx, collection, filter, since)
	return args.Int(0), args.Error(1)
}

// --- Test Suite Setup ---

type AuditServiceTestSuite struct {
	suite.Suite
	mockStore *MockRecordStore
	service   portssvc.AuditSvcFacade
}

func (suite *AuditServiceTestSuite) SetupTest() {
	suite.mockStore = new(MockRecordStore)
	suite.service = services.NewAuditService(suite.mockStore)
}

func cleanRecord(id string) portsrepo.Record {
	now := time.Now().UTC()
	return portsrepo.Record{
		portsrepo.FieldID:             id,
		portsrepo.FieldCreatedBy:      "actor-1",
		portsrepo.FieldUpdatedBy:      "actor-1",
		portsrepo.FieldCreatedAt:      now,
		portsrepo.FieldUpdatedAt:      now,
		portsrepo.FieldGovernanceCode: "HERA.SALON.FINANCE.GL.ACCOUNT.EXPENSE.SALARY.v1",
	}
}

func ledgerLine(txnID, side, amount string) portsrepo.Record {
	rec := cleanRecord("line-" + txnID + "-" + side + "-" + amount)
	rec[portsrepo.FieldIsLedger] = true
	rec[portsrepo.FieldTransactionID] = txnID
	rec[portsrepo.FieldCurrencyCode] = "AED"
	rec[portsrepo.FieldSide] = side
	rec[portsrepo.FieldAmount] = amount
	return rec
}

// stubCollections wires every collection sweep and activity count so that a
// test only overrides the collections it cares about (Once expectations take
// precedence over these catch-alls).
func (suite *AuditServiceTestSuite) stubCollections() {
	suite.mockStore.On("QueryRecords", mock.Anything, portsrepo.CollectionActors, mock.Anything).
		Return([]portsrepo.Record{cleanRecord("actor-1")}, nil).Maybe()
	for _, collection := range []string{
		portsrepo.CollectionEntities,
		portsrepo.CollectionTransactions,
		portsrepo.CollectionTransactionLines,
		portsrepo.CollectionRelationships,
		portsrepo.CollectionDynamicData,
	} {
		suite.mockStore.On("QueryRecords", mock.Anything, collection, mock.Anything).
			Return([]portsrepo.Record{}, nil).Maybe()
	}
	suite.mockStore.On("CountRecordsSince", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(0, nil).Maybe()
}

// --- Test Cases ---

func (suite *AuditServiceTestSuite) TestRun_EmptyTenantPasses() {
	suite.stubCollections()

	report, err := suite.service.Run(context.Background(), portssvc.AuditConfig{OrganizationID: "org-1"})

	suite.Require().NoError(err)
	suite.True(report.Passed)
	suite.Equal(0, report.CriticalCount())
	for _, check := range report.Checks() {
		suite.True(check.Enabled)
		suite.True(check.DataAvailable)
		suite.InDelta(100.0, check.CoveragePct, 0.001)
	}
}

func (suite *AuditServiceTestSuite) TestRun_SkippedChecksStayDisabled() {
	suite.stubCollections()

	report, err := suite.service.Run(context.Background(), portssvc.AuditConfig{
		SkipBalanceIntegrity:     true,
		SkipGovernanceCompliance: true,
	})

	suite.Require().NoError(err)
	suite.True(report.Passed)
	suite.False(report.BalanceIntegrity.Enabled)
	suite.False(report.GovernanceCompliance.Enabled)
	suite.True(report.ActorCoverage.Enabled)
	suite.True(report.AuditFieldCoverage.Enabled)
}

func (suite *AuditServiceTestSuite) TestRun_OrphanedCreatorIsCritical() {
	orphan := cleanRecord("ent-1")
	orphan[portsrepo.FieldCreatedBy] = "ghost-actor"

	suite.mockStore.On("QueryRecords", mock.Anything, portsrepo.CollectionEntities, mock.Anything).
		Return([]portsrepo.Record{orphan}, nil)
	suite.stubCollections()

	report, err := suite.service.Run(context.Background(), portssvc.AuditConfig{})

	suite.Require().NoError(err)
	suite.False(report.Passed)
	suite.Require().Len(report.ActorCoverage.CriticalFindings(), 1)
	suite.Contains(report.ActorCoverage.CriticalFindings()[0].Description, "ghost-actor")
	// Coverage counts only missing references, so the orphan alone does not
	// drag it below threshold; the critical finding still fails the run.
	suite.False(report.ActorCoverage.Passed)
}

func (suite *AuditServiceTestSuite) TestRun_ActorCoverageThreshold() {
	// 19 of 20 records carry actors: 95% coverage, exactly at threshold.
	records := make([]portsrepo.Record, 0, 20)
	for i := 0; i < 19; i++ {
		records = append(records, cleanRecord(fmt.Sprintf("ent-%d", i)))
	}
	bare := cleanRecord("ent-bare")
	bare[portsrepo.FieldCreatedBy] = ""
	records = append(records, bare)

	suite.mockStore.On("QueryRecords", mock.Anything, portsrepo.CollectionEntities, mock.Anything).
		Return(records, nil)
	suite.stubCollections()

	report, err := suite.service.Run(context.Background(), portssvc.AuditConfig{})

	suite.Require().NoError(err)
	suite.InDelta(95.0, report.ActorCoverage.CoveragePct, 0.001)
	suite.True(report.ActorCoverage.Passed)
	suite.Equal(1, report.ActorCoverage.Issues)
}

func (suite *AuditServiceTestSuite) TestRun_BalanceIntegritySeverityGrading() {
	lines := []portsrepo.Record{
		// Balanced within tolerance.
		ledgerLine("txn-ok", "DEBIT", "100.00"),
		ledgerLine("txn-ok", "CREDIT", "100.005"),
		// Small variance: warning.
		ledgerLine("txn-warn", "DEBIT", "100.50"),
		ledgerLine("txn-warn", "CREDIT", "100.00"),
		// Large variance: critical.
		ledgerLine("txn-crit", "DEBIT", "500.00"),
		ledgerLine("txn-crit", "CREDIT", "100.00"),
	}
	suite.mockStore.On("QueryRecords", mock.Anything, portsrepo.CollectionTransactionLines, mock.Anything).
		Return(lines, nil)
	suite.stubCollections()

	report, err := suite.service.Run(context.Background(), portssvc.AuditConfig{})

	suite.Require().NoError(err)
	check := report.BalanceIntegrity
	suite.Equal(3, check.Total)
	suite.Equal(2, check.Issues)
	suite.False(check.Passed)
	suite.Require().Len(check.Findings, 2)

	bySeverity := map[string]domain.FindingSeverity{}
	for _, f := range check.Findings {
		bySeverity[f.RecordID] = f.Severity
	}
	suite.Equal(domain.SeverityWarning, bySeverity["txn-warn"])
	suite.Equal(domain.SeverityCritical, bySeverity["txn-crit"])
}

func (suite *AuditServiceTestSuite) TestRun_NonLedgerLinesIgnored() {
	draft := ledgerLine("txn-draft", "DEBIT", "999.00")
	draft[portsrepo.FieldIsLedger] = false

	suite.mockStore.On("QueryRecords", mock.Anything, portsrepo.CollectionTransactionLines, mock.Anything).
		Return([]portsrepo.Record{draft}, nil)
	suite.stubCollections()

	report, err := suite.service.Run(context.Background(), portssvc.AuditConfig{})

	suite.Require().NoError(err)
	suite.Equal(0, report.BalanceIntegrity.Total)
	suite.True(report.BalanceIntegrity.Passed)
}

func (suite *AuditServiceTestSuite) TestRun_GovernanceComplianceCriticals() {
	missing := cleanRecord("ent-missing")
	delete(missing, portsrepo.FieldGovernanceCode)
	malformed := cleanRecord("ent-bad")
	malformed[portsrepo.FieldGovernanceCode] = "hera.salon.gl.v1"

	suite.mockStore.On("QueryRecords", mock.Anything, portsrepo.CollectionEntities, mock.Anything).
		Return([]portsrepo.Record{cleanRecord("ent-ok"), missing, malformed}, nil)
	suite.stubCollections()

	report, err := suite.service.Run(context.Background(), portssvc.AuditConfig{})

	suite.Require().NoError(err)
	check := report.GovernanceCompliance
	suite.Equal(3, check.Total)
	suite.Equal(2, check.Issues)
	suite.False(check.Passed)
	suite.Len(check.CriticalFindings(), 2)
	suite.False(report.Passed)
}

func (suite *AuditServiceTestSuite) TestRun_AuditFieldCoverage() {
	gappy := cleanRecord("rel-1")
	gappy[portsrepo.FieldUpdatedBy] = ""
	delete(gappy, portsrepo.FieldUpdatedAt)

	suite.mockStore.On("QueryRecords", mock.Anything, portsrepo.CollectionRelationships, mock.Anything).
		Return([]portsrepo.Record{gappy, cleanRecord("rel-2")}, nil)
	suite.stubCollections()

	report, err := suite.service.Run(context.Background(), portssvc.AuditConfig{})

	suite.Require().NoError(err)
	check := report.AuditFieldCoverage
	suite.Equal(2, check.Total)
	suite.Equal(2, check.Issues)
	// 2 records x 4 fields, 2 gaps: 75%, below the 98% threshold.
	suite.InDelta(75.0, check.CoveragePct, 0.001)
	suite.False(check.Passed)
}

func (suite *AuditServiceTestSuite) TestRun_QueryFailureIsContained() {
	suite.mockStore.On("QueryRecords", mock.Anything, portsrepo.CollectionTransactionLines, mock.Anything).
		Return(nil, fmt.Errorf("connection refused"))
	suite.stubCollections()

	report, err := suite.service.Run(context.Background(), portssvc.AuditConfig{})

	suite.Require().NoError(err)
	check := report.BalanceIntegrity
	suite.True(check.Enabled)
	suite.False(check.DataAvailable)
	suite.InDelta(100.0, check.CoveragePct, 0.001)
	suite.True(check.Passed)
	suite.Empty(check.Findings)

	// The other checks are unaffected.
	suite.True(report.ActorCoverage.DataAvailable)
	suite.True(report.Passed)
}

func (suite *AuditServiceTestSuite) TestRun_ActivityCountFailureOnlyLogged() {
	suite.mockStore.ExpectedCalls = nil
	suite.mockStore.On("QueryRecords", mock.Anything, mock.Anything, mock.Anything).
		Return([]portsrepo.Record{}, nil)
	suite.mockStore.On("CountRecordsSince", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(0, fmt.Errorf("timeout"))

	report, err := suite.service.Run(context.Background(), portssvc.AuditConfig{})

	suite.Require().NoError(err)
	suite.True(report.AuditFieldCoverage.Passed)
	suite.True(report.AuditFieldCoverage.DataAvailable)
	suite.Empty(report.AuditFieldCoverage.Activity)
}

func (suite *AuditServiceTestSuite) TestRun_FindingsCappedWithAggregate() {
	records := make([]portsrepo.Record, 0, 150)
	for i := 0; i < 150; i++ {
		rec := cleanRecord(fmt.Sprintf("ent-%03d", i))
		rec[portsrepo.FieldGovernanceCode] = "not-a-code"
		records = append(records, rec)
	}
	suite.mockStore.On("QueryRecords", mock.Anything, portsrepo.CollectionEntities, mock.Anything).
		Return(records, nil)
	suite.stubCollections()

	report, err := suite.service.Run(context.Background(), portssvc.AuditConfig{})

	suite.Require().NoError(err)
	findings := report.GovernanceCompliance.Findings
	suite.Require().Len(findings, 101)
	aggregate := findings[100]
	suite.Equal("multiple", aggregate.RecordID)
	suite.Contains(aggregate.Description, "50 further")
	suite.Equal(domain.SeverityCritical, aggregate.Severity)
}

func (suite *AuditServiceTestSuite) TestRender_DeterministicForSameReport() {
	suite.stubCollections()

	report, err := suite.service.Run(context.Background(), portssvc.AuditConfig{OrganizationID: "org-1"})
	suite.Require().NoError(err)

	first := suite.service.Render(report)
	second := suite.service.Render(report)
	suite.Equal(first, second)
	suite.Contains(first, "org-1")
	suite.Contains(first, "PASSED")
}

func (suite *AuditServiceTestSuite) TestRender_ListsCriticalsAndCaps() {
	report := &domain.AuditReport{GeneratedAt: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
	report.GovernanceCompliance = domain.CheckResult{
		Name:          services.CheckGovernanceCompliance,
		Enabled:       true,
		DataAvailable: true,
		Total:         30,
		Issues:        30,
	}
	for i := 0; i < 30; i++ {
		report.GovernanceCompliance.Findings = append(report.GovernanceCompliance.Findings, domain.AuditFinding{
			Collection:  portsrepo.CollectionEntities,
			RecordID:    fmt.Sprintf("ent-%02d", i),
			Description: "missing governance code",
			Severity:    domain.SeverityCritical,
		})
	}

	out := suite.service.Render(report)

	suite.Contains(out, "ent-00")
	suite.Contains(out, "ent-19")
	suite.NotContains(out, "ent-20")
	suite.Contains(out, "and 10 more")
}

func TestAuditServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuditServiceTestSuite))
}
