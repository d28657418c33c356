package billing

import (
	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the payment aggregate
const (
	EventTypePaymentReceived = "billing.payment.received"
	EventTypePaymentRefunded = "billing.payment.refunded"
)

// PaymentReceivedEvent is raised when a payment is recorded
type PaymentReceivedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string          `json:"payment_number"`
	PatientID     uuid.UUID       `json:"patient_id"`
	BillID        *string         `json:"bill_id,omitempty"`
	PaymentType   PaymentType     `json:"payment_type"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	ReceivedBy    uuid.UUID       `json:"received_by"`
}

// NewPaymentReceivedEvent creates a new PaymentReceivedEvent
func NewPaymentReceivedEvent(p *Payment) *PaymentReceivedEvent {
	return &PaymentReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReceived, "Payment", p.GetID()),
		PaymentNumber:   p.PaymentNumber,
		PatientID:       p.PatientID,
		BillID:          p.BillID,
		PaymentType:     p.PaymentType,
		PaymentMethod:   p.PaymentMethod,
		Amount:          p.Amount,
		ReceivedBy:      p.ReceivedBy,
	}
}

// PaymentRefundedEvent is raised when a refund entry is created for a payment
type PaymentRefundedEvent struct {
	shared.BaseDomainEvent
	OriginalPaymentID uuid.UUID       `json:"original_payment_id"`
	PatientID         uuid.UUID       `json:"patient_id"`
	BillID            *string         `json:"bill_id,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Reason            string          `json:"reason"`
	ProcessedBy       uuid.UUID       `json:"processed_by"`
}

// NewPaymentRefundedEvent creates a new PaymentRefundedEvent
func NewPaymentRefundedEvent(refund *Payment, original *Payment) *PaymentRefundedEvent {
	return &PaymentRefundedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypePaymentRefunded, "Payment", refund.GetID()),
		OriginalPaymentID: original.GetID(),
		PatientID:         refund.PatientID,
		BillID:            refund.BillID,
		Amount:            refund.Amount,
		Reason:            refund.RefundReason,
		ProcessedBy:       refund.ReceivedBy,
	}
}
