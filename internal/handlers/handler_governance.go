package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
	"github.com/heraops/ledger-integrity-engine/internal/dto"
)

// governanceHandler answers governance-code grammar checks.
type governanceHandler struct{}

func newGovernanceHandler() *governanceHandler {
	return &governanceHandler{}
}

// validateCode reports whether a single code conforms to the governance
// grammar. Validation is pure, so the handler never fails server-side.
func (h *governanceHandler) validateCode(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: code"})
		return
	}

	c.JSON(http.StatusOK, dto.GovernanceValidationResponse{
		Code:  code,
		Valid: domain.ValidGovernanceCode(code),
	})
}
