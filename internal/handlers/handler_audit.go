package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/heraops/ledger-integrity-engine/internal/core/ports/services"
	"github.com/heraops/ledger-integrity-engine/internal/dto"
	"github.com/heraops/ledger-integrity-engine/internal/middleware"
)

// auditHandler handles HTTP requests for integrity audit runs.
type auditHandler struct {
	auditSvc portssvc.AuditSvcFacade
}

func newAuditHandler(auditSvc portssvc.AuditSvcFacade) *auditHandler {
	return &auditHandler{auditSvc: auditSvc}
}

// runAudit executes the enabled checks and returns the structured report.
func (h *auditHandler) runAudit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RunAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for runAudit", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	report, err := h.auditSvc.Run(c.Request.Context(), req.ToAuditConfig())
	if err != nil {
		logger.Error("Audit run failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run audit"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// runAuditReport executes the checks and returns the rendered text summary.
func (h *auditHandler) runAuditReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RunAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for runAuditReport", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	report, err := h.auditSvc.Run(c.Request.Context(), req.ToAuditConfig())
	if err != nil {
		logger.Error("Audit run failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run audit"})
		return
	}

	c.String(http.StatusOK, h.auditSvc.Render(report))
}
