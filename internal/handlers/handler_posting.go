package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/heraops/ledger-integrity-engine/internal/apperrors"
	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
	portssvc "github.com/heraops/ledger-integrity-engine/internal/core/ports/services"
	"github.com/heraops/ledger-integrity-engine/internal/core/services"
	"github.com/heraops/ledger-integrity-engine/internal/dto"
	"github.com/heraops/ledger-integrity-engine/internal/middleware"
)

// postingHandler handles HTTP requests for balanced posting generation.
type postingHandler struct {
	postingSvc  portssvc.PostingSvcFacade
	registrySvc portssvc.RegistrySvcFacade
}

func newPostingHandler(postingSvc portssvc.PostingSvcFacade, registrySvc portssvc.RegistrySvcFacade) *postingHandler {
	return &postingHandler{postingSvc: postingSvc, registrySvc: registrySvc}
}

// generatePosting converts line-items plus a payment method into balanced GL lines.
func (h *postingHandler) generatePosting(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.GeneratePostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for generatePosting", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	lines, err := h.postingSvc.GenerateLines(c.Request.Context(), req.ToDomainLineItems(), domain.PaymentMethod(req.PaymentMethod), req.IncludesLiabilityPayout)
	if err != nil {
		var imbalance *services.LedgerImbalanceError
		switch {
		case errors.As(err, &imbalance):
			// A logic defect, never suppressed and never a 4xx.
			logger.Error("Ledger imbalance during posting generation", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   imbalance.Error(),
				"debits":  imbalance.Debits.String(),
				"credits": imbalance.Credits.String(),
			})
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error generating posting", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to generate posting", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate posting"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToPostingResponse(lines))
}

// reversePosting produces the mirror-image lines of a previous posting.
func (h *postingHandler) reversePosting(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ReversePostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for reversePosting", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	lines, err := h.postingSvc.ReverseLines(c.Request.Context(), req.Lines)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to reverse posting", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reverse posting"})
		return
	}

	c.JSON(http.StatusOK, dto.ToPostingResponse(lines))
}

// listAccounts exposes the chart-of-accounts reference data.
func (h *postingHandler) listAccounts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"accounts": h.registrySvc.Entries()})
}
