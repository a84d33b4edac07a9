package domain

import "time"

// FindingSeverity grades a detected audit issue.
type FindingSeverity string

const (
	SeverityCritical FindingSeverity = "CRITICAL"
	SeverityWarning  FindingSeverity = "WARNING"
)

// AuditFinding is one detected issue, surfaced to the report renderer and
// never persisted by this core.
type AuditFinding struct {
	Collection  string          `json:"collection"`
	RecordID    string          `json:"recordID"` // "multiple" for aggregate findings
	Description string          `json:"description"`
	Severity    FindingSeverity `json:"severity"`
}

// CheckResult holds the outcome of one audit check. DataAvailable
// distinguishes "clean" from "could not verify": when a check's query fails
// or returns nothing, coverage defaults to 100% with zero findings.
type CheckResult struct {
	Name          string         `json:"name"`
	Enabled       bool           `json:"enabled"`
	DataAvailable bool           `json:"dataAvailable"`
	Total         int            `json:"total"`
	Issues        int            `json:"issues"`
	CoveragePct   float64        `json:"coveragePct"`
	Findings      []AuditFinding `json:"findings"`
	Activity      map[string]int `json:"activity,omitempty"` // Informational 24h creation counts
	Passed        bool           `json:"passed"`
}

// CriticalFindings returns the critical subset of the check's findings.
func (c CheckResult) CriticalFindings() []AuditFinding {
	var out []AuditFinding
	for _, f := range c.Findings {
		if f.Severity == SeverityCritical {
			out = append(out, f)
		}
	}
	return out
}

// AuditReport aggregates the four check results for one audit run.
// Immutable once returned.
type AuditReport struct {
	OrganizationID       string      `json:"organizationID,omitempty"`
	GeneratedAt          time.Time   `json:"generatedAt"`
	From                 *time.Time  `json:"from,omitempty"`
	To                   *time.Time  `json:"to,omitempty"`
	ActorCoverage        CheckResult `json:"actorCoverage"`
	BalanceIntegrity     CheckResult `json:"balanceIntegrity"`
	AuditFieldCoverage   CheckResult `json:"auditFieldCoverage"`
	GovernanceCompliance CheckResult `json:"governanceCompliance"`
	Passed               bool        `json:"passed"`
}

// Checks returns the four check results in their fixed report order.
func (r *AuditReport) Checks() []CheckResult {
	return []CheckResult{r.ActorCoverage, r.BalanceIntegrity, r.AuditFieldCoverage, r.GovernanceCompliance}
}

// CriticalCount counts critical findings across all checks.
func (r *AuditReport) CriticalCount() int {
	n := 0
	for _, c := range r.Checks() {
		n += len(c.CriticalFindings())
	}
	return n
}
