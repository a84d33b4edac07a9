package services

import (
	"context"
	"time"

	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
)

// AuditConfig scopes and toggles an audit run. The zero value of each enable
// flag means "run the check"; callers disable checks explicitly.
type AuditConfig struct {
	OrganizationID string
	From           *time.Time
	To             *time.Time

	SkipActorCoverage        bool
	SkipBalanceIntegrity     bool
	SkipAuditFieldCoverage   bool
	SkipGovernanceCompliance bool
}

// AuditSvcFacade sweeps a tenant's persisted data and produces an AuditReport.
type AuditSvcFacade interface {
	// Run executes the enabled checks concurrently and assembles the report
	// once all complete. A failing check never aborts the others.
	Run(ctx context.Context, cfg AuditConfig) (*domain.AuditReport, error)

	// Render produces a deterministic human-readable summary of the report.
	Render(report *domain.AuditReport) string
}
