package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/patient"
	"github.com/hims/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// AdvanceReader is the application service surface the advance handler
// depends on
type AdvanceReader interface {
	GetBalance(ctx context.Context, patientID uuid.UUID) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, patientID uuid.UUID) ([]*patient.AdvanceTransaction, error)
}

// AdvanceHandler handles advance wallet API endpoints
type AdvanceHandler struct {
	BaseHandler
	advances AdvanceReader
}

// NewAdvanceHandler creates a new AdvanceHandler
func NewAdvanceHandler(advances AdvanceReader) *AdvanceHandler {
	return &AdvanceHandler{advances: advances}
}

// RegisterRoutes registers advance wallet routes
func (h *AdvanceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	patients := rg.Group("/patients")
	{
		patients.GET("/:id/advance-balance", h.GetAdvanceBalance)
		patients.GET("/:id/advance-transactions", h.ListAdvanceTransactions)
	}
}

// GetAdvanceBalance returns the patient's wallet balance, zero when no
// wallet exists yet
func (h *AdvanceHandler) GetAdvanceBalance(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid patient id")
		return
	}

	balance, err := h.advances.GetBalance(c.Request.Context(), patientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.AdvanceBalanceResponse{
		PatientID: patientID.String(),
		Balance:   balance,
	})
}

// ListAdvanceTransactions returns the patient's wallet ledger, newest first
func (h *AdvanceHandler) ListAdvanceTransactions(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid patient id")
		return
	}

	txs, err := h.advances.ListTransactions(c.Request.Context(), patientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.AdvanceTransactionListResponseFromDomain(txs))
}
