package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
)

// maxRenderedCriticals caps the critical-finding list in rendered reports.
const maxRenderedCriticals = 20

// Render produces a deterministic, section-ordered text summary of the
// report. Given the same report it always yields the same output: no
// timestamps beyond the report's own generation time, no random ordering.
func (s *auditService) Render(report *domain.AuditReport) string {
	var b strings.Builder

	b.WriteString("==============================================\n")
	b.WriteString(" LEDGER INTEGRITY AUDIT REPORT\n")
	b.WriteString("==============================================\n")
	fmt.Fprintf(&b, "Generated: %s\n", report.GeneratedAt.UTC().Format(time.RFC3339))
	org := report.OrganizationID
	if org == "" {
		org = "all organizations"
	}
	fmt.Fprintf(&b, "Scope: %s\n", org)
	if report.From != nil || report.To != nil {
		fmt.Fprintf(&b, "Range: %s .. %s\n", renderTimeBound(report.From), renderTimeBound(report.To))
	}
	fmt.Fprintf(&b, "Overall: %s\n", passLabel(report.Passed))
	fmt.Fprintf(&b, "Critical findings: %d\n", report.CriticalCount())

	titles := map[string]string{
		CheckActorCoverage:        "Actor Coverage",
		CheckBalanceIntegrity:     "Balance Integrity",
		CheckAuditFieldCoverage:   "Audit Field Coverage",
		CheckGovernanceCompliance: "Governance Compliance",
	}

	for _, check := range report.Checks() {
		fmt.Fprintf(&b, "\n-- %s --\n", titles[check.Name])
		switch {
		case !check.Enabled:
			b.WriteString("skipped\n")
			continue
		case !check.DataAvailable:
			b.WriteString("check could not run (no data available)\n")
			continue
		}
		fmt.Fprintf(&b, "%s: coverage %.1f%%, %d record(s) swept, %d issue(s)\n",
			passLabel(check.Passed), check.CoveragePct, check.Total, check.Issues)

		if len(check.Activity) > 0 {
			collections := make([]string, 0, len(check.Activity))
			for c := range check.Activity {
				collections = append(collections, c)
			}
			sort.Strings(collections)
			b.WriteString("24h activity:\n")
			for _, c := range collections {
				fmt.Fprintf(&b, "  %s: %d created\n", c, check.Activity[c])
			}
		}
	}

	criticals := collectCriticals(report)
	if len(criticals) > 0 {
		fmt.Fprintf(&b, "\n-- Critical Findings (showing up to %d) --\n", maxRenderedCriticals)
		shown := criticals
		if len(shown) > maxRenderedCriticals {
			shown = shown[:maxRenderedCriticals]
		}
		for _, f := range shown {
			fmt.Fprintf(&b, " - [%s/%s] %s\n", f.Collection, f.RecordID, f.Description)
		}
		if rest := len(criticals) - len(shown); rest > 0 {
			fmt.Fprintf(&b, " ... and %d more\n", rest)
		}
	}

	return b.String()
}

// collectCriticals gathers critical findings across checks in a fixed,
// sorted order so renders are repeatable.
func collectCriticals(report *domain.AuditReport) []domain.AuditFinding {
	var out []domain.AuditFinding
	for _, check := range report.Checks() {
		out = append(out, check.CriticalFindings()...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Collection != out[j].Collection {
			return out[i].Collection < out[j].Collection
		}
		if out[i].RecordID != out[j].RecordID {
			return out[i].RecordID < out[j].RecordID
		}
		return out[i].Description < out[j].Description
	})
	return out
}

func passLabel(passed bool) string {
	if passed {
		return "PASSED"
	}
	return "FAILED"
}

func renderTimeBound(t *time.Time) string {
	if t == nil {
		return "open"
	}
	return t.UTC().Format(time.RFC3339)
}
