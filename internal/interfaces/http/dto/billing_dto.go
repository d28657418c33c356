package dto

import (
	"time"

	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/domain/patient"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest is the body for recording a payment. When bill_type
// and bill_id are present the payment is taken against that bill; otherwise
// it is an advance deposit to the patient's wallet.
type CreatePaymentRequest struct {
	PatientID     string     `json:"patient_id" binding:"required,uuid"`
	BillType      string     `json:"bill_type" binding:"required_with=BillID,omitempty,billtype"`
	BillID        string     `json:"bill_id" binding:"required_with=BillType,omitempty"`
	PaymentType   string     `json:"payment_type" binding:"omitempty"`
	PaymentMethod string     `json:"payment_method" binding:"required,paymentmethod"`
	Amount        float64    `json:"amount" binding:"required"`
	TransactionID string     `json:"transaction_id" binding:"omitempty,max=100"`
	BankName      string     `json:"bank_name" binding:"omitempty,max=100"`
	ChequeNumber  string     `json:"cheque_number" binding:"omitempty,max=50"`
	ChequeDate    *time.Time `json:"cheque_date" binding:"omitempty"`
	Remark        string     `json:"remark" binding:"omitempty,max=500"`
}

// CreateBillPaymentRequest is the body for recording a payment against the
// bill named in the path
type CreateBillPaymentRequest struct {
	PaymentMethod string     `json:"payment_method" binding:"required,paymentmethod"`
	Amount        float64    `json:"amount" binding:"required"`
	TransactionID string     `json:"transaction_id" binding:"omitempty,max=100"`
	BankName      string     `json:"bank_name" binding:"omitempty,max=100"`
	ChequeNumber  string     `json:"cheque_number" binding:"omitempty,max=50"`
	ChequeDate    *time.Time `json:"cheque_date" binding:"omitempty"`
	Remark        string     `json:"remark" binding:"omitempty,max=500"`
	PatientID     string     `json:"patient_id" binding:"required,uuid"`
}

// CreateAdvancePaymentRequest is the body for a wallet deposit
type CreateAdvancePaymentRequest struct {
	PaymentMethod string     `json:"payment_method" binding:"required,paymentmethod"`
	Amount        float64    `json:"amount" binding:"required"`
	TransactionID string     `json:"transaction_id" binding:"omitempty,max=100"`
	BankName      string     `json:"bank_name" binding:"omitempty,max=100"`
	ChequeNumber  string     `json:"cheque_number" binding:"omitempty,max=50"`
	ChequeDate    *time.Time `json:"cheque_date" binding:"omitempty"`
	Remark        string     `json:"remark" binding:"omitempty,max=500"`
}

// ApplyAdvanceRequest is the body for applying wallet balance to a bill
type ApplyAdvanceRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// RefundPaymentRequest is the body for refunding a payment. Amount is
// optional; a missing amount refunds the full original.
type RefundPaymentRequest struct {
	Amount *float64 `json:"amount" binding:"omitempty"`
	Reason string   `json:"reason" binding:"required,max=500"`
}

// BillResponse represents a bill in API responses
type BillResponse struct {
	ID               string          `json:"id"`
	BillNumber       string          `json:"bill_number"`
	BillType         string          `json:"bill_type"`
	PatientID        string          `json:"patient_id"`
	AdmissionID      *string         `json:"admission_id,omitempty"`
	CanonicalID      string          `json:"canonical_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	AdvanceApplied   decimal.Decimal `json:"advance_applied"`
	InsuranceCovered decimal.Decimal `json:"insurance_covered"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	DueAmount        decimal.Decimal `json:"due_amount"`
	PaymentStatus    string          `json:"payment_status"`
	Remark           string          `json:"remark,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// BillResponseFromDomain builds a BillResponse
func BillResponseFromDomain(b *billing.Bill, canonicalID string) BillResponse {
	return BillResponse{
		ID:               b.GetID().String(),
		BillNumber:       b.BillNumber,
		BillType:         b.BillType.String(),
		PatientID:        b.PatientID.String(),
		AdmissionID:      b.AdmissionID,
		CanonicalID:      canonicalID,
		TotalAmount:      b.TotalAmount,
		AdvanceApplied:   b.AdvanceApplied,
		InsuranceCovered: b.InsuranceCovered,
		PaidAmount:       b.PaidAmount,
		DueAmount:        b.DueAmount,
		PaymentStatus:    b.PaymentStatus.String(),
		Remark:           b.Remark,
		PaidAt:           b.PaidAt,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID            string          `json:"id"`
	PaymentNumber string          `json:"payment_number"`
	PatientID     string          `json:"patient_id"`
	BillType      *string         `json:"bill_type,omitempty"`
	BillID        *string         `json:"bill_id,omitempty"`
	PaymentType   string          `json:"payment_type"`
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	RefundOfID    *string         `json:"refund_of_id,omitempty"`
	RefundReason  string          `json:"refund_reason,omitempty"`
	RefundedAt    *time.Time      `json:"refunded_at,omitempty"`
	Remark        string          `json:"remark,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PaymentResponseFromDomain builds a PaymentResponse
func PaymentResponseFromDomain(p *billing.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:            p.GetID().String(),
		PaymentNumber: p.PaymentNumber,
		PatientID:     p.PatientID.String(),
		BillID:        p.BillID,
		PaymentType:   p.PaymentType.String(),
		PaymentMethod: p.PaymentMethod.String(),
		Amount:        p.Amount,
		Status:        string(p.Status),
		RefundReason:  p.RefundReason,
		RefundedAt:    p.RefundedAt,
		Remark:        p.Remark,
		CreatedAt:     p.CreatedAt,
	}
	if p.BillType != nil {
		bt := p.BillType.String()
		resp.BillType = &bt
	}
	if p.RefundOfID != nil {
		id := p.RefundOfID.String()
		resp.RefundOfID = &id
	}
	return resp
}

// PaymentListResponse represents a list of payments for a bill
type PaymentListResponse struct {
	Payments []PaymentResponse `json:"payments"`
}

// PaymentListResponseFromDomain builds a PaymentListResponse
func PaymentListResponseFromDomain(payments []*billing.Payment) PaymentListResponse {
	resp := PaymentListResponse{Payments: make([]PaymentResponse, len(payments))}
	for i, p := range payments {
		resp.Payments[i] = PaymentResponseFromDomain(p)
	}
	return resp
}

// AdvanceBalanceResponse represents a patient's wallet balance
type AdvanceBalanceResponse struct {
	PatientID string          `json:"patient_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// AdvanceTransactionResponse represents a wallet ledger entry
type AdvanceTransactionResponse struct {
	ID              string          `json:"id"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceBefore   decimal.Decimal `json:"balance_before"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	SourceType      string          `json:"source_type"`
	SourceID        *string         `json:"source_id,omitempty"`
	Remark          string          `json:"remark,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// AdvanceTransactionListResponse represents a patient's wallet ledger
type AdvanceTransactionListResponse struct {
	Transactions []AdvanceTransactionResponse `json:"transactions"`
}

// AdvanceTransactionListResponseFromDomain builds the ledger response
func AdvanceTransactionListResponseFromDomain(txs []*patient.AdvanceTransaction) AdvanceTransactionListResponse {
	resp := AdvanceTransactionListResponse{Transactions: make([]AdvanceTransactionResponse, len(txs))}
	for i, tx := range txs {
		resp.Transactions[i] = AdvanceTransactionResponse{
			ID:              tx.GetID().String(),
			TransactionType: tx.TransactionType.String(),
			Amount:          tx.Amount,
			BalanceBefore:   tx.BalanceBefore,
			BalanceAfter:    tx.BalanceAfter,
			SourceType:      string(tx.SourceType),
			SourceID:        tx.SourceID,
			Remark:          tx.Remark,
			TransactionDate: tx.TransactionDate,
		}
	}
	return resp
}
