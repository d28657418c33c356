package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentType classifies what a payment is for
type PaymentType string

const (
	PaymentTypeAdvance PaymentType = "advance" // Wallet deposit, no bill required
	PaymentTypePartial PaymentType = "partial" // Covers part of a bill's due
	PaymentTypeFull    PaymentType = "full"    // Clears a bill's due
	PaymentTypeRefund  PaymentType = "refund"  // Compensating entry for a refunded payment
)

// IsValid checks if the payment type is valid
func (t PaymentType) IsValid() bool {
	switch t {
	case PaymentTypeAdvance, PaymentTypePartial, PaymentTypeFull, PaymentTypeRefund:
		return true
	}
	return false
}

// String returns the string representation of PaymentType
func (t PaymentType) String() string {
	return string(t)
}

// PaymentMethod represents how money changed hands
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheque       PaymentMethod = "cheque"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCheque:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// RequiresTransactionID returns true for electronic methods that must carry
// a gateway/bank reference
func (m PaymentMethod) RequiresTransactionID() bool {
	return m == PaymentMethodCard || m == PaymentMethodBankTransfer
}

// PaymentStatus represents the lifecycle state of a payment record
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusRefunded
}

// MethodDetails carries the method-specific fields of a payment
type MethodDetails struct {
	TransactionID string     `json:"transaction_id,omitempty"` // card / bank_transfer reference
	BankName      string     `json:"bank_name,omitempty"`
	ChequeNumber  string     `json:"cheque_number,omitempty"`
	ChequeDate    *time.Time `json:"cheque_date,omitempty"`
}

// Payment represents money received from (or returned to) a patient.
// Immutable after creation except for the status flip to refunded; a refund
// never deletes the original record.
type Payment struct {
	shared.BaseAggregateRoot
	PaymentNumber string          `json:"payment_number"`
	PatientID     uuid.UUID       `json:"patient_id"`
	BillType      *BillType       `json:"bill_type"` // nil for pure advance deposits
	BillID        *string         `json:"bill_id"`   // canonical bill identifier, may be a legacy admission id
	PaymentType   PaymentType     `json:"payment_type"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	Details       MethodDetails   `json:"details"`
	Status        PaymentStatus   `json:"status"`
	RefundOfID    *uuid.UUID      `json:"refund_of_id"` // set on refund-type payments
	RefundReason  string          `json:"refund_reason,omitempty"`
	ReceivedBy    uuid.UUID       `json:"received_by"`
	RefundedAt    *time.Time      `json:"refunded_at"`
	Remark        string          `json:"remark,omitempty"`
}

// NewPayment creates a new completed payment record
func NewPayment(
	paymentNumber string,
	patientID uuid.UUID,
	billType *BillType,
	billID *string,
	paymentType PaymentType,
	method PaymentMethod,
	amount valueobject.Money,
	details MethodDetails,
	receivedBy uuid.UUID,
) (*Payment, error) {
	if paymentNumber == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("MISSING_PATIENT", "Patient ID cannot be empty")
	}
	if !paymentType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_TYPE", fmt.Sprintf("Unknown payment type: %s", paymentType))
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", fmt.Sprintf("Unknown payment method: %s", method))
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if billType != nil && !billType.IsValid() {
		return nil, shared.NewDomainError("INVALID_BILL_TYPE", fmt.Sprintf("Unknown bill type: %s", *billType))
	}

	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PaymentNumber:     paymentNumber,
		PatientID:         patientID,
		BillType:          billType,
		BillID:            billID,
		PaymentType:       paymentType,
		PaymentMethod:     method,
		Amount:            amount.Amount(),
		Details:           details,
		Status:            PaymentStatusCompleted,
		ReceivedBy:        receivedBy,
	}

	p.AddDomainEvent(NewPaymentReceivedEvent(p))

	return p, nil
}

// NewRefundPayment creates the compensating refund entry for an existing
// payment. The original must be flipped via MarkRefunded by the caller.
func NewRefundPayment(
	paymentNumber string,
	original *Payment,
	amount valueobject.Money,
	reason string,
	processedBy uuid.UUID,
) (*Payment, error) {
	if original == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Original payment is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Refund amount must be positive")
	}
	if amount.Amount().GreaterThan(original.Amount) {
		return nil, shared.NewDomainError("REFUND_EXCEEDS_ORIGINAL",
			fmt.Sprintf("Refund amount %s exceeds original payment amount %s",
				amount.Amount().StringFixed(2), original.Amount.StringFixed(2)))
	}

	originalID := original.GetID()
	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PaymentNumber:     paymentNumber,
		PatientID:         original.PatientID,
		BillType:          original.BillType,
		BillID:            original.BillID,
		PaymentType:       PaymentTypeRefund,
		PaymentMethod:     original.PaymentMethod,
		Amount:            amount.Amount(),
		Details:           original.Details,
		Status:            PaymentStatusCompleted,
		RefundOfID:        &originalID,
		RefundReason:      reason,
		ReceivedBy:        processedBy,
	}

	p.AddDomainEvent(NewPaymentRefundedEvent(p, original))

	return p, nil
}

// MarkRefunded flips the payment to refunded. Fails if already refunded.
func (p *Payment) MarkRefunded(reason string) error {
	if p.Status == PaymentStatusRefunded {
		return shared.ErrAlreadyRefunded
	}
	if p.PaymentType == PaymentTypeRefund {
		return shared.NewDomainError("INVALID_STATE", "A refund entry cannot itself be refunded")
	}

	now := time.Now()
	p.Status = PaymentStatusRefunded
	p.RefundReason = reason
	p.RefundedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	return nil
}

// IsRefunded returns true if the payment has been refunded
func (p *Payment) IsRefunded() bool {
	return p.Status == PaymentStatusRefunded
}

// CountsTowardPaid returns true if this payment adds to a bill's paid
// amount. Refund entries subtract instead, and a refunded original keeps
// counting; its paired refund entry carries the subtraction, which is what
// keeps partial refunds exact.
func (p *Payment) CountsTowardPaid() bool {
	return p.BillID != nil && p.PaymentType != PaymentTypeRefund
}

// IsAdvanceDeposit returns true for wallet deposits
func (p *Payment) IsAdvanceDeposit() bool {
	return p.PaymentType == PaymentTypeAdvance
}

// GetAmountMoney returns the payment amount as Money
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(p.Amount)
}
