// Package handlers wires the HTTP surface: posting generation, audit runs,
// governance checks, and the per-tenant external posting connector.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/heraops/ledger-integrity-engine/internal/adapters/erp"
	portssvc "github.com/heraops/ledger-integrity-engine/internal/core/ports/services"
	"github.com/heraops/ledger-integrity-engine/internal/platform/metrics"
)

// ServiceContainer carries the service interfaces the routes depend on.
type ServiceContainer struct {
	Posting  portssvc.PostingSvcFacade
	Registry portssvc.RegistrySvcFacade
	Audit    portssvc.AuditSvcFacade
	ERP      *erp.Factory
}

// RegisterRoutes sets up all application routes, injecting dependencies
// using interfaces.
func RegisterRoutes(r *gin.Engine, services *ServiceContainer) {
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")

	registerPostingRoutes(v1, services.Posting, services.Registry)
	registerAuditRoutes(v1, services.Audit)
	registerGovernanceRoutes(v1)
	registerERPRoutes(v1, services.ERP)
}

func registerPostingRoutes(rg *gin.RouterGroup, postingSvc portssvc.PostingSvcFacade, registrySvc portssvc.RegistrySvcFacade) {
	h := newPostingHandler(postingSvc, registrySvc)

	postings := rg.Group("/postings")
	{
		postings.POST("", h.generatePosting)
		postings.POST("/reverse", h.reversePosting)
	}
	rg.GET("/ledger/accounts", h.listAccounts)
}

func registerAuditRoutes(rg *gin.RouterGroup, auditSvc portssvc.AuditSvcFacade) {
	h := newAuditHandler(auditSvc)

	audit := rg.Group("/audit")
	{
		audit.POST("", h.runAudit)
		audit.POST("/report", h.runAuditReport)
	}
}

func registerGovernanceRoutes(rg *gin.RouterGroup) {
	h := newGovernanceHandler()

	rg.GET("/governance/validate", h.validateCode)
}

func registerERPRoutes(rg *gin.RouterGroup, factory *erp.Factory) {
	h := newERPHandler(factory)

	tenant := rg.Group("/erp/:tenantID")
	{
		tenant.POST("/documents", h.postDocument)
		tenant.POST("/documents/park", h.parkDocument)
		tenant.POST("/documents/:documentNumber/reverse", h.reverseDocument)
		tenant.GET("/documents/:documentNumber", h.getDocument)
		tenant.GET("/accounts/:accountCode/balance", h.getBalance)
		tenant.GET("/open-items", h.getOpenItems)
		tenant.POST("/master-data/:entityType/sync", h.syncMasterData)
		tenant.GET("/master-data/:entityType/:key", h.getMasterData)
		tenant.GET("/info", h.getSystemInfo)
		tenant.DELETE("/connector", h.invalidateConnector)
	}
}
