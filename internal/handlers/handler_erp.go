package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/heraops/ledger-integrity-engine/internal/adapters/erp"
	"github.com/heraops/ledger-integrity-engine/internal/apperrors"
	"github.com/heraops/ledger-integrity-engine/internal/dto"
	"github.com/heraops/ledger-integrity-engine/internal/middleware"
)

// erpHandler exposes the external posting connector per tenant.
type erpHandler struct {
	factory *erp.Factory
}

func newERPHandler(factory *erp.Factory) *erpHandler {
	return &erpHandler{factory: factory}
}

// connector resolves the tenant's connector or writes the error response and
// returns nil.
func (h *erpHandler) connector(c *gin.Context) erp.Connector {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")

	conn, err := h.factory.Connector(c.Request.Context(), tenantID)
	if err != nil {
		if errors.Is(err, erp.ErrFamilyNotSupported) {
			c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
			return nil
		}
		logger.Error("Failed to resolve connector",
			slog.String("tenantID", tenantID), slog.String("error", err.Error()))
		writeExternalError(c, err, "Failed to connect to external system")
		return nil
	}
	return conn
}

// writeExternalError maps a connector failure onto the response. Classified
// upstream failures keep their code and retryable flag; anything else is an
// opaque bad gateway.
func writeExternalError(c *gin.Context, err error, fallback string) {
	var extErr *erp.ExternalSystemError
	if errors.As(err, &extErr) {
		status := http.StatusBadGateway
		if extErr.StatusCode == http.StatusNotFound {
			status = http.StatusNotFound
		}
		c.JSON(status, dto.ExternalErrorResponse{
			Error:     extErr.Message,
			Code:      extErr.Code,
			Retryable: extErr.Retryable,
		})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": fallback})
}

func (h *erpHandler) postDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.PostDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	conn := h.connector(c)
	if conn == nil {
		return
	}

	doc, err := conn.PostDocument(c.Request.Context(), req.ToPostingDocument())
	if err != nil {
		logger.Error("External posting failed", slog.String("error", err.Error()))
		writeExternalError(c, err, "Failed to post document")
		return
	}

	c.JSON(http.StatusCreated, doc)
}

func (h *erpHandler) reverseDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ReverseDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	conn := h.connector(c)
	if conn == nil {
		return
	}

	doc, err := conn.ReverseDocument(c.Request.Context(), c.Param("documentNumber"), req.Reason)
	if err != nil {
		logger.Error("External reversal failed", slog.String("error", err.Error()))
		writeExternalError(c, err, "Failed to reverse document")
		return
	}

	c.JSON(http.StatusCreated, doc)
}

func (h *erpHandler) parkDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.PostDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	conn := h.connector(c)
	if conn == nil {
		return
	}

	doc, err := conn.ParkDocument(c.Request.Context(), req.ToPostingDocument())
	if err != nil {
		logger.Error("External parking failed", slog.String("error", err.Error()))
		writeExternalError(c, err, "Failed to park document")
		return
	}

	c.JSON(http.StatusCreated, doc)
}

func (h *erpHandler) getDocument(c *gin.Context) {
	conn := h.connector(c)
	if conn == nil {
		return
	}

	doc, err := conn.GetDocument(c.Request.Context(), c.Param("documentNumber"), c.Query("fiscalYear"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		writeExternalError(c, err, "Failed to fetch document")
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *erpHandler) getBalance(c *gin.Context) {
	conn := h.connector(c)
	if conn == nil {
		return
	}

	balance, err := conn.GetBalance(c.Request.Context(), c.Param("accountCode"), c.Query("period"))
	if err != nil {
		writeExternalError(c, err, "Failed to fetch balance")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accountCode": c.Param("accountCode"),
		"period":      c.Query("period"),
		"balance":     balance,
	})
}

func (h *erpHandler) getOpenItems(c *gin.Context) {
	conn := h.connector(c)
	if conn == nil {
		return
	}

	items, err := conn.GetOpenItems(c.Request.Context(), c.Query("accountType"), c.Query("accountID"))
	if err != nil {
		writeExternalError(c, err, "Failed to fetch open items")
		return
	}

	c.JSON(http.StatusOK, gin.H{"openItems": items})
}

func (h *erpHandler) syncMasterData(c *gin.Context) {
	conn := h.connector(c)
	if conn == nil {
		return
	}

	count, err := conn.SyncMasterData(c.Request.Context(), c.Param("entityType"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotSupported) {
			c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
			return
		}
		writeExternalError(c, err, "Failed to sync master data")
		return
	}

	c.JSON(http.StatusOK, gin.H{"entityType": c.Param("entityType"), "synced": count})
}

func (h *erpHandler) getMasterData(c *gin.Context) {
	conn := h.connector(c)
	if conn == nil {
		return
	}

	record, err := conn.GetMasterData(c.Request.Context(), c.Param("entityType"), c.Param("key"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Master record not found"})
			return
		}
		if errors.Is(err, apperrors.ErrNotSupported) {
			c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
			return
		}
		writeExternalError(c, err, "Failed to fetch master data")
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *erpHandler) getSystemInfo(c *gin.Context) {
	conn := h.connector(c)
	if conn == nil {
		return
	}

	info, err := conn.GetSystemInfo(c.Request.Context())
	if err != nil {
		writeExternalError(c, err, "Failed to fetch system info")
		return
	}

	c.JSON(http.StatusOK, info)
}

// invalidateConnector drops the cached connector so the next call
// reconstructs it with fresh configuration.
func (h *erpHandler) invalidateConnector(c *gin.Context) {
	h.factory.Invalidate(c.Param("tenantID"))
	c.Status(http.StatusNoContent)
}
