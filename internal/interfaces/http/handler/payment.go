package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appbilling "github.com/hims/backend/internal/application/billing"
	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// PaymentProcessor is the application service surface the payment handler
// depends on
type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, req appbilling.PaymentRequest) (*appbilling.PaymentResult, error)
	ProcessBillPayment(ctx context.Context, billType billing.BillType, billID string, req appbilling.PaymentRequest) (*appbilling.PaymentResult, error)
	ProcessAdvancePayment(ctx context.Context, req appbilling.PaymentRequest) (*appbilling.PaymentResult, error)
	ApplyAdvanceBalance(ctx context.Context, billType billing.BillType, billID string, amount decimal.Decimal, actor uuid.UUID) (*appbilling.ApplyAdvanceResult, error)
	RefundPayment(ctx context.Context, paymentID uuid.UUID, amount *decimal.Decimal, reason string, actor uuid.UUID) (*appbilling.RefundResult, error)
	UpdateBillingStatus(ctx context.Context, billType billing.BillType, billID string) (*appbilling.StatusResult, error)
	GetBill(ctx context.Context, billType billing.BillType, billID string) (*billing.Bill, string, error)
	ListBillPayments(ctx context.Context, billType billing.BillType, billID string) ([]*billing.Payment, error)
}

// PaymentHandler handles payment API endpoints
type PaymentHandler struct {
	BaseHandler
	payments PaymentProcessor
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentProcessor) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// RegisterRoutes registers payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("", h.CreatePayment)
		payments.POST("/:id/refund", h.RefundPayment)
	}

	bills := rg.Group("/bills")
	{
		bills.GET("/:type/:id", h.GetBill)
		bills.GET("/:type/:id/payments", h.ListBillPayments)
		bills.POST("/:type/:id/payments", h.CreateBillPayment)
		bills.POST("/:type/:id/apply-advance", h.ApplyAdvance)
		bills.PUT("/:type/:id/status", h.UpdateBillingStatus)
	}

	patients := rg.Group("/patients")
	{
		patients.POST("/:id/advance-payments", h.CreateAdvancePayment)
	}
}

// CreatePayment records a payment. With a bill reference in the body the
// payment is taken against that bill; without one it is an advance deposit.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "X-User-ID header is required")
		return
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		h.BadRequest(c, "invalid patient id")
		return
	}

	appReq := appbilling.PaymentRequest{
		PatientID:      patientID,
		PaymentType:    billing.PaymentType(req.PaymentType),
		PaymentMethod:  billing.PaymentMethod(req.PaymentMethod),
		Amount:         decimal.NewFromFloat(req.Amount),
		TransactionID:  req.TransactionID,
		BankName:       req.BankName,
		ChequeNumber:   req.ChequeNumber,
		ChequeDate:     req.ChequeDate,
		Remark:         req.Remark,
		ReceivedBy:     actor,
		IdempotencyKey: getIdempotencyKey(c),
	}
	if req.BillType != "" {
		bt := billing.BillType(req.BillType)
		appReq.BillType = &bt
	}
	if req.BillID != "" {
		id := req.BillID
		appReq.BillID = &id
	}

	result, err := h.payments.ProcessPayment(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// CreateBillPayment records a payment against the bill named in the path
func (h *PaymentHandler) CreateBillPayment(c *gin.Context) {
	billType, billID, ok := h.billParams(c)
	if !ok {
		return
	}

	var req dto.CreateBillPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "X-User-ID header is required")
		return
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		h.BadRequest(c, "invalid patient id")
		return
	}

	appReq := appbilling.PaymentRequest{
		PatientID:      patientID,
		PaymentMethod:  billing.PaymentMethod(req.PaymentMethod),
		Amount:         decimal.NewFromFloat(req.Amount),
		TransactionID:  req.TransactionID,
		BankName:       req.BankName,
		ChequeNumber:   req.ChequeNumber,
		ChequeDate:     req.ChequeDate,
		Remark:         req.Remark,
		ReceivedBy:     actor,
		IdempotencyKey: getIdempotencyKey(c),
	}

	result, err := h.payments.ProcessBillPayment(c.Request.Context(), billType, billID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// CreateAdvancePayment records a wallet deposit for the patient in the path
func (h *PaymentHandler) CreateAdvancePayment(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid patient id")
		return
	}

	var req dto.CreateAdvancePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "X-User-ID header is required")
		return
	}

	appReq := appbilling.PaymentRequest{
		PatientID:      patientID,
		PaymentMethod:  billing.PaymentMethod(req.PaymentMethod),
		Amount:         decimal.NewFromFloat(req.Amount),
		TransactionID:  req.TransactionID,
		BankName:       req.BankName,
		ChequeNumber:   req.ChequeNumber,
		ChequeDate:     req.ChequeDate,
		Remark:         req.Remark,
		ReceivedBy:     actor,
		IdempotencyKey: getIdempotencyKey(c),
	}

	result, err := h.payments.ProcessAdvancePayment(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ApplyAdvance applies wallet balance to the bill named in the path
func (h *PaymentHandler) ApplyAdvance(c *gin.Context) {
	billType, billID, ok := h.billParams(c)
	if !ok {
		return
	}

	var req dto.ApplyAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "X-User-ID header is required")
		return
	}

	result, err := h.payments.ApplyAdvanceBalance(c.Request.Context(), billType, billID,
		decimal.NewFromFloat(req.Amount), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RefundPayment refunds the payment named in the path
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid payment id")
		return
	}

	var req dto.RefundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "X-User-ID header is required")
		return
	}

	var amount *decimal.Decimal
	if req.Amount != nil {
		d := decimal.NewFromFloat(*req.Amount)
		amount = &d
	}

	result, err := h.payments.RefundPayment(c.Request.Context(), paymentID, amount, req.Reason, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// UpdateBillingStatus recomputes the bill's paid/due/status from its
// payment ledger
func (h *PaymentHandler) UpdateBillingStatus(c *gin.Context) {
	billType, billID, ok := h.billParams(c)
	if !ok {
		return
	}

	result, err := h.payments.UpdateBillingStatus(c.Request.Context(), billType, billID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetBill returns the bill named in the path, resolving legacy admission
// ids for IPD bills
func (h *PaymentHandler) GetBill(c *gin.Context) {
	billType, billID, ok := h.billParams(c)
	if !ok {
		return
	}

	bill, canonicalID, err := h.payments.GetBill(c.Request.Context(), billType, billID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.BillResponseFromDomain(bill, canonicalID))
}

// ListBillPayments returns the payments recorded against the bill's
// canonical identifier
func (h *PaymentHandler) ListBillPayments(c *gin.Context) {
	billType, billID, ok := h.billParams(c)
	if !ok {
		return
	}

	payments, err := h.payments.ListBillPayments(c.Request.Context(), billType, billID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.PaymentListResponseFromDomain(payments))
}

// billParams extracts and validates the bill type and id path parameters
func (h *PaymentHandler) billParams(c *gin.Context) (billing.BillType, string, bool) {
	billType := billing.BillType(c.Param("type"))
	if !billType.IsValid() {
		h.Error(c, 400, "INVALID_BILL_TYPE", "Unknown bill type")
		return "", "", false
	}
	billID := c.Param("id")
	if billID == "" {
		h.BadRequest(c, "bill id is required")
		return "", "", false
	}
	return billType, billID, true
}
