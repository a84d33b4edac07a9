package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
	portsrepo "github.com/heraops/ledger-integrity-engine/internal/core/ports/repositories"
	portssvc "github.com/heraops/ledger-integrity-engine/internal/core/ports/services"
	"github.com/heraops/ledger-integrity-engine/internal/middleware"
	"github.com/heraops/ledger-integrity-engine/internal/platform/metrics"
	"github.com/shopspring/decimal"
)

// Check names as they appear in reports and metrics.
const (
	CheckActorCoverage        = "actor_coverage"
	CheckBalanceIntegrity     = "balance_integrity"
	CheckAuditFieldCoverage   = "audit_field_coverage"
	CheckGovernanceCompliance = "governance_compliance"
)

// Pass thresholds, fixed by contract.
const (
	actorCoverageThreshold = 95.0
	auditFieldThreshold    = 98.0
	governanceThreshold    = 95.0

	// maxFindingsPerCheck bounds per-record findings on large tenants; the
	// remainder is rolled into one aggregate finding with record id "multiple".
	maxFindingsPerCheck = 100
)

// criticalVariance is the absolute imbalance above which an unbalanced
// transaction is graded critical rather than warning.
var criticalVariance = decimal.NewFromFloat(1.0)

// auditFieldCollections is the fixed set of core collections swept by the
// audit-field coverage check.
var auditFieldCollections = []string{
	portsrepo.CollectionEntities,
	portsrepo.CollectionTransactions,
	portsrepo.CollectionTransactionLines,
	portsrepo.CollectionRelationships,
	portsrepo.CollectionDynamicData,
}

// auditService sweeps a tenant's persisted data for actor traceability,
// balance correctness and code-governance compliance.
type auditService struct {
	store portsrepo.RecordStore
	now   func() time.Time
}

var _ portssvc.AuditSvcFacade = (*auditService)(nil)

// NewAuditService creates an AuditService over the given record store.
func NewAuditService(store portsrepo.RecordStore) portssvc.AuditSvcFacade {
	return &auditService{store: store, now: time.Now}
}

// Run executes the enabled checks concurrently and assembles the report once
// all four complete. A single slow or failing check never blocks or corrupts
// the others.
func (s *auditService) Run(ctx context.Context, cfg portssvc.AuditConfig) (*domain.AuditReport, error) {
	filter := portsrepo.RecordFilter{
		OrganizationID: cfg.OrganizationID,
		From:           cfg.From,
		To:             cfg.To,
	}

	report := &domain.AuditReport{
		OrganizationID: cfg.OrganizationID,
		GeneratedAt:    s.now().UTC(),
		From:           cfg.From,
		To:             cfg.To,
	}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		report.ActorCoverage = s.runCheck(ctx, CheckActorCoverage, !cfg.SkipActorCoverage, filter, s.checkActorCoverage)
	}()
	go func() {
		defer wg.Done()
		report.BalanceIntegrity = s.runCheck(ctx, CheckBalanceIntegrity, !cfg.SkipBalanceIntegrity, filter, s.checkBalanceIntegrity)
	}()
	go func() {
		defer wg.Done()
		report.AuditFieldCoverage = s.runCheck(ctx, CheckAuditFieldCoverage, !cfg.SkipAuditFieldCoverage, filter, s.checkAuditFieldCoverage)
	}()
	go func() {
		defer wg.Done()
		report.GovernanceCompliance = s.runCheck(ctx, CheckGovernanceCompliance, !cfg.SkipGovernanceCompliance, filter, s.checkGovernanceCompliance)
	}()
	wg.Wait()

	passed := report.CriticalCount() == 0
	for _, c := range report.Checks() {
		if c.Enabled && !c.Passed {
			passed = false
		}
	}
	report.Passed = passed

	result := "passed"
	if !report.Passed {
		result = "failed"
	}
	metrics.AuditRuns.WithLabelValues(result).Inc()

	middleware.GetLoggerFromCtx(ctx).Info("Audit run completed",
		slog.String("organization_id", cfg.OrganizationID),
		slog.Bool("passed", report.Passed),
		slog.Int("critical_findings", report.CriticalCount()))
	return report, nil
}

// runCheck isolates one check: a query failure is contained locally and the
// check's counters default to the safest value (coverage 100%, zero
// findings) with DataAvailable=false, so a degraded backend never aborts the
// other three checks.
func (s *auditService) runCheck(ctx context.Context, name string, enabled bool, filter portsrepo.RecordFilter, fn func(ctx context.Context, filter portsrepo.RecordFilter) (domain.CheckResult, error)) domain.CheckResult {
	if !enabled {
		return domain.CheckResult{Name: name, Enabled: false, CoveragePct: 100, Passed: true}
	}

	result, err := fn(ctx, filter)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Audit check query failed, applying safe defaults",
			slog.String("check", name), slog.String("error", err.Error()))
		metrics.AuditCheckFailures.WithLabelValues(name).Inc()
		return domain.CheckResult{Name: name, Enabled: true, DataAvailable: false, CoveragePct: 100, Passed: true}
	}

	result.Name = name
	result.Enabled = true
	result.DataAvailable = true
	for _, f := range result.Findings {
		metrics.AuditFindings.WithLabelValues(name, string(f.Severity)).Inc()
	}
	return result
}

// checkActorCoverage verifies that every entity and transaction record
// carries creator and updater actor references, and that creator references
// resolve to existing actors. Unresolvable references are orphaned and
// always critical.
func (s *auditService) checkActorCoverage(ctx context.Context, filter portsrepo.RecordFilter) (domain.CheckResult, error) {
	actorFilter := portsrepo.RecordFilter{OrganizationID: filter.OrganizationID}
	actors, err := s.store.QueryRecords(ctx, portsrepo.CollectionActors, actorFilter)
	if err != nil {
		return domain.CheckResult{}, fmt.Errorf("query actors: %w", err)
	}
	actorIDs := make(map[string]struct{}, len(actors))
	for _, a := range actors {
		if id := a.StringField(portsrepo.FieldID); id != "" {
			actorIDs[id] = struct{}{}
		}
	}

	var findings []domain.AuditFinding
	total := 0
	missing := 0

	for _, collection := range []string{portsrepo.CollectionEntities, portsrepo.CollectionTransactions} {
		records, err := s.store.QueryRecords(ctx, collection, filter)
		if err != nil {
			return domain.CheckResult{}, fmt.Errorf("query %s: %w", collection, err)
		}
		total += len(records)
		for _, rec := range records {
			id := rec.StringField(portsrepo.FieldID)
			creator := rec.StringField(portsrepo.FieldCreatedBy)
			updater := rec.StringField(portsrepo.FieldUpdatedBy)

			if creator == "" || updater == "" {
				missing++
				findings = append(findings, domain.AuditFinding{
					Collection:  collection,
					RecordID:    id,
					Description: "missing creator or updater actor reference",
					Severity:    domain.SeverityWarning,
				})
				continue
			}
			if _, ok := actorIDs[creator]; !ok {
				findings = append(findings, domain.AuditFinding{
					Collection:  collection,
					RecordID:    id,
					Description: fmt.Sprintf("orphaned creator actor reference %s", creator),
					Severity:    domain.SeverityCritical,
				})
			}
		}
	}

	coverage := coveragePct(total, missing)
	result := domain.CheckResult{
		Total:       total,
		Issues:      missing,
		CoveragePct: coverage,
		Findings:    capFindings(findings, "actor reference issues"),
	}
	result.Passed = coverage >= actorCoverageThreshold && len(result.CriticalFindings()) == 0
	return result, nil
}

// checkBalanceIntegrity groups ledger-flagged transaction lines by
// (transaction, currency) and flags any group whose debit and credit totals
// diverge beyond tolerance. Variance above one currency unit is critical.
func (s *auditService) checkBalanceIntegrity(ctx context.Context, filter portsrepo.RecordFilter) (domain.CheckResult, error) {
	lines, err := s.store.QueryRecords(ctx, portsrepo.CollectionTransactionLines, filter)
	if err != nil {
		return domain.CheckResult{}, fmt.Errorf("query transaction lines: %w", err)
	}

	type group struct {
		txnID    string
		currency string
		debits   decimal.Decimal
		credits  decimal.Decimal
	}
	groups := make(map[string]*group)
	for _, line := range lines {
		if !line.BoolField(portsrepo.FieldIsLedger) {
			continue
		}
		txnID := line.StringField(portsrepo.FieldTransactionID)
		currency := line.StringField(portsrepo.FieldCurrencyCode)
		key := txnID + "|" + currency
		g, ok := groups[key]
		if !ok {
			g = &group{txnID: txnID, currency: currency, debits: decimal.Zero, credits: decimal.Zero}
			groups[key] = g
		}
		amount := line.DecimalField(portsrepo.FieldAmount)
		if line.StringField(portsrepo.FieldSide) == string(domain.Debit) {
			g.debits = g.debits.Add(amount)
		} else {
			g.credits = g.credits.Add(amount)
		}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var findings []domain.AuditFinding
	unbalanced := 0
	for _, k := range keys {
		g := groups[k]
		variance := g.debits.Sub(g.credits)
		if variance.Abs().LessThanOrEqual(domain.BalanceTolerance) {
			continue
		}
		unbalanced++
		severity := domain.SeverityWarning
		if variance.Abs().GreaterThan(criticalVariance) {
			severity = domain.SeverityCritical
		}
		findings = append(findings, domain.AuditFinding{
			Collection:  portsrepo.CollectionTransactions,
			RecordID:    g.txnID,
			Description: fmt.Sprintf("unbalanced by %s %s (debits %s, credits %s)", variance.String(), g.currency, g.debits.String(), g.credits.String()),
			Severity:    severity,
		})
	}

	result := domain.CheckResult{
		Total:       len(groups),
		Issues:      unbalanced,
		CoveragePct: coveragePct(len(groups), unbalanced),
		Findings:    capFindings(findings, "unbalanced transactions"),
	}
	result.Passed = unbalanced == 0
	return result, nil
}

// checkAuditFieldCoverage verifies creator, updater and both timestamps on
// every record of the fixed core collections; coverage is computed over
// records x 4 fields. Rolling 24-hour creation counts are reported as an
// informational activity signal, not scored.
func (s *auditService) checkAuditFieldCoverage(ctx context.Context, filter portsrepo.RecordFilter) (domain.CheckResult, error) {
	var findings []domain.AuditFinding
	records := 0
	missingFields := 0
	activity := make(map[string]int, len(auditFieldCollections))
	since := s.now().UTC().Add(-24 * time.Hour)

	for _, collection := range auditFieldCollections {
		rows, err := s.store.QueryRecords(ctx, collection, filter)
		if err != nil {
			return domain.CheckResult{}, fmt.Errorf("query %s: %w", collection, err)
		}
		records += len(rows)
		for _, rec := range rows {
			var missing []string
			if rec.StringField(portsrepo.FieldCreatedBy) == "" {
				missing = append(missing, portsrepo.FieldCreatedBy)
			}
			if rec.StringField(portsrepo.FieldUpdatedBy) == "" {
				missing = append(missing, portsrepo.FieldUpdatedBy)
			}
			if _, ok := rec.TimeField(portsrepo.FieldCreatedAt); !ok {
				missing = append(missing, portsrepo.FieldCreatedAt)
			}
			if _, ok := rec.TimeField(portsrepo.FieldUpdatedAt); !ok {
				missing = append(missing, portsrepo.FieldUpdatedAt)
			}
			if len(missing) > 0 {
				missingFields += len(missing)
				findings = append(findings, domain.AuditFinding{
					Collection:  collection,
					RecordID:    rec.StringField(portsrepo.FieldID),
					Description: fmt.Sprintf("missing audit fields: %v", missing),
					Severity:    domain.SeverityWarning,
				})
			}
		}

		count, err := s.store.CountRecordsSince(ctx, collection, filter, since)
		if err != nil {
			// Informational only; a failed activity count never fails the check.
			middleware.GetLoggerFromCtx(ctx).Warn("Activity count failed",
				slog.String("collection", collection), slog.String("error", err.Error()))
			continue
		}
		activity[collection] = count
	}

	coverage := coveragePct(records*4, missingFields)
	result := domain.CheckResult{
		Total:       records,
		Issues:      missingFields,
		CoveragePct: coverage,
		Findings:    capFindings(findings, "audit field gaps"),
		Activity:    activity,
	}
	result.Passed = coverage >= auditFieldThreshold
	return result, nil
}

// checkGovernanceCompliance validates every non-null governance code on
// entity and transaction records against the governance grammar. Missing
// and malformed codes are both critical.
func (s *auditService) checkGovernanceCompliance(ctx context.Context, filter portsrepo.RecordFilter) (domain.CheckResult, error) {
	var findings []domain.AuditFinding
	total := 0
	missing := 0
	invalid := 0

	for _, collection := range []string{portsrepo.CollectionEntities, portsrepo.CollectionTransactions} {
		records, err := s.store.QueryRecords(ctx, collection, filter)
		if err != nil {
			return domain.CheckResult{}, fmt.Errorf("query %s: %w", collection, err)
		}
		total += len(records)
		for _, rec := range records {
			id := rec.StringField(portsrepo.FieldID)
			code := rec.StringField(portsrepo.FieldGovernanceCode)
			switch {
			case code == "":
				missing++
				findings = append(findings, domain.AuditFinding{
					Collection:  collection,
					RecordID:    id,
					Description: "missing governance code",
					Severity:    domain.SeverityCritical,
				})
			case !domain.ValidGovernanceCode(code):
				invalid++
				findings = append(findings, domain.AuditFinding{
					Collection:  collection,
					RecordID:    id,
					Description: fmt.Sprintf("malformed governance code %q", code),
					Severity:    domain.SeverityCritical,
				})
			}
		}
	}

	coverage := coveragePct(total, missing+invalid)
	result := domain.CheckResult{
		Total:       total,
		Issues:      missing + invalid,
		CoveragePct: coverage,
		Findings:    capFindings(findings, "governance code issues"),
	}
	result.Passed = coverage >= governanceThreshold && missing+invalid == 0
	return result, nil
}

// coveragePct computes (total-issues)/total as a percentage, treating an
// empty sweep as full coverage per the no-data-no-penalty policy.
func coveragePct(total, issues int) float64 {
	if total == 0 {
		return 100
	}
	return float64(total-issues) / float64(total) * 100
}

// capFindings bounds the per-record findings list, rolling the overflow into
// one aggregate finding keyed "multiple". The overflow severity is critical
// if any rolled-up finding was critical.
func capFindings(findings []domain.AuditFinding, what string) []domain.AuditFinding {
	if len(findings) <= maxFindingsPerCheck {
		return findings
	}
	overflow := findings[maxFindingsPerCheck:]
	severity := domain.SeverityWarning
	for _, f := range overflow {
		if f.Severity == domain.SeverityCritical {
			severity = domain.SeverityCritical
			break
		}
	}
	capped := make([]domain.AuditFinding, maxFindingsPerCheck, maxFindingsPerCheck+1)
	copy(capped, findings[:maxFindingsPerCheck])
	return append(capped, domain.AuditFinding{
		Collection:  overflow[0].Collection,
		RecordID:    "multiple",
		Description: fmt.Sprintf("%d further %s not listed individually", len(overflow), what),
		Severity:    severity,
	})
}
