package dto

import (
	"time"

	portssvc "github.com/heraops/ledger-integrity-engine/internal/core/ports/services"
)

// RunAuditRequest scopes and toggles one audit run. All checks run unless
// disabled individually.
type RunAuditRequest struct {
	OrganizationID string     `json:"organizationID"`
	From           *time.Time `json:"from"`
	To             *time.Time `json:"to"`

	SkipActorCoverage        bool `json:"skipActorCoverage"`
	SkipBalanceIntegrity     bool `json:"skipBalanceIntegrity"`
	SkipAuditFieldCoverage   bool `json:"skipAuditFieldCoverage"`
	SkipGovernanceCompliance bool `json:"skipGovernanceCompliance"`
}

// ToAuditConfig maps the request onto the service config.
func (r RunAuditRequest) ToAuditConfig() portssvc.AuditConfig {
	return portssvc.AuditConfig{
		OrganizationID:           r.OrganizationID,
		From:                     r.From,
		To:                       r.To,
		SkipActorCoverage:        r.SkipActorCoverage,
		SkipBalanceIntegrity:     r.SkipBalanceIntegrity,
		SkipAuditFieldCoverage:   r.SkipAuditFieldCoverage,
		SkipGovernanceCompliance: r.SkipGovernanceCompliance,
	}
}

// GovernanceValidationResponse reports one governance code check.
type GovernanceValidationResponse struct {
	Code  string `json:"code"`
	Valid bool   `json:"valid"`
}
