package billing

import (
	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the bill aggregate
const (
	EventTypeBillCreated    = "billing.bill.created"
	EventTypeAdvanceApplied = "billing.bill.advance_applied"
	EventTypeBillReconciled = "billing.bill.reconciled"
)

// BillCreatedEvent is raised when a bill is created, including bills
// synthesized from admission charges
type BillCreatedEvent struct {
	shared.BaseDomainEvent
	BillNumber  string          `json:"bill_number"`
	BillType    BillType        `json:"bill_type"`
	PatientID   uuid.UUID       `json:"patient_id"`
	AdmissionID *string         `json:"admission_id,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewBillCreatedEvent creates a new BillCreatedEvent
func NewBillCreatedEvent(b *Bill) *BillCreatedEvent {
	return &BillCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillCreated, "Bill", b.GetID()),
		BillNumber:      b.BillNumber,
		BillType:        b.BillType,
		PatientID:       b.PatientID,
		AdmissionID:     b.AdmissionID,
		TotalAmount:     b.TotalAmount,
	}
}

// AdvanceAppliedEvent is raised when wallet money is applied to a bill
type AdvanceAppliedEvent struct {
	shared.BaseDomainEvent
	PatientID      uuid.UUID       `json:"patient_id"`
	Amount         decimal.Decimal `json:"amount"`
	AdvanceApplied decimal.Decimal `json:"advance_applied"` // cumulative after this application
	Actor          uuid.UUID       `json:"actor"`
}

// NewAdvanceAppliedEvent creates a new AdvanceAppliedEvent
func NewAdvanceAppliedEvent(b *Bill, amount decimal.Decimal, actor uuid.UUID) *AdvanceAppliedEvent {
	return &AdvanceAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdvanceApplied, "Bill", b.GetID()),
		PatientID:       b.PatientID,
		Amount:          amount,
		AdvanceApplied:  b.AdvanceApplied,
		Actor:           actor,
	}
}

// BillReconciledEvent is raised when reconciliation changes the cached
// paid/due amounts or the billing status
type BillReconciledEvent struct {
	shared.BaseDomainEvent
	PatientID      uuid.UUID       `json:"patient_id"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	DueAmount      decimal.Decimal `json:"due_amount"`
	PreviousStatus BillingStatus   `json:"previous_status"`
	Status         BillingStatus   `json:"status"`
}

// NewBillReconciledEvent creates a new BillReconciledEvent
func NewBillReconciledEvent(b *Bill, previous BillingStatus) *BillReconciledEvent {
	return &BillReconciledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillReconciled, "Bill", b.GetID()),
		PatientID:       b.PatientID,
		PaidAmount:      b.PaidAmount,
		DueAmount:       b.DueAmount,
		PreviousStatus:  previous,
		Status:          b.PaymentStatus,
	}
}
