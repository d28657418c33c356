package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BillType represents the department a bill originates from
type BillType string

const (
	BillTypeIPD       BillType = "ipd" // Inpatient, addressable by bill id or admission id
	BillTypeOPD       BillType = "opd"
	BillTypeEmergency BillType = "emergency"
	BillTypeLab       BillType = "lab"
	BillTypeRadiology BillType = "radiology"
)

// IsValid checks if the bill type is a valid BillType
func (t BillType) IsValid() bool {
	switch t {
	case BillTypeIPD, BillTypeOPD, BillTypeEmergency, BillTypeLab, BillTypeRadiology:
		return true
	}
	return false
}

// String returns the string representation of BillType
func (t BillType) String() string {
	return string(t)
}

// SupportsAdmissionFallback returns true if bills of this type may be
// addressed by their admission id (legacy dual-key records)
func (t BillType) SupportsAdmissionFallback() bool {
	return t == BillTypeIPD
}

// BillingStatus represents the payment status of a bill
type BillingStatus string

const (
	BillingStatusPending BillingStatus = "pending" // Nothing collected yet
	BillingStatusPartial BillingStatus = "partial" // Something collected, due remains
	BillingStatusPaid    BillingStatus = "paid"    // Due is zero
)

// IsValid checks if the status is a valid BillingStatus
func (s BillingStatus) IsValid() bool {
	switch s {
	case BillingStatusPending, BillingStatusPartial, BillingStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of BillingStatus
func (s BillingStatus) String() string {
	return string(s)
}

// Bill represents a hospital bill aggregate root.
// PaidAmount and DueAmount are cached reconciliation results; the payment
// ledger is authoritative once any payment exists (see due.go).
type Bill struct {
	shared.AuditedAggregateRoot
	BillNumber       string          `json:"bill_number"`
	BillType         BillType        `json:"bill_type"`
	PatientID        uuid.UUID       `json:"patient_id"`
	AdmissionID      *string         `json:"admission_id"` // Legacy secondary key, IPD only
	TotalAmount      decimal.Decimal `json:"total_amount"`
	AdvanceApplied   decimal.Decimal `json:"advance_applied"`
	InsuranceCovered decimal.Decimal `json:"insurance_covered"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	DueAmount        decimal.Decimal `json:"due_amount"`
	PaymentStatus    BillingStatus   `json:"payment_status"`
	Remark           string          `json:"remark"`
	PaidAt           *time.Time      `json:"paid_at"`
}

// NewBill creates a new bill with no payments applied yet
func NewBill(
	billNumber string,
	billType BillType,
	patientID uuid.UUID,
	totalAmount valueobject.Money,
	createdBy uuid.UUID,
) (*Bill, error) {
	if billNumber == "" {
		return nil, shared.NewDomainError("INVALID_BILL_NUMBER", "Bill number cannot be empty")
	}
	if !billType.IsValid() {
		return nil, shared.NewDomainError("INVALID_BILL_TYPE", fmt.Sprintf("Unknown bill type: %s", billType))
	}
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("MISSING_PATIENT", "Patient ID cannot be empty")
	}
	if totalAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount cannot be negative")
	}

	b := &Bill{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		BillNumber:           billNumber,
		BillType:             billType,
		PatientID:            patientID,
		TotalAmount:          totalAmount.Amount(),
		AdvanceApplied:       decimal.Zero,
		InsuranceCovered:     decimal.Zero,
		PaidAmount:           decimal.Zero,
		DueAmount:            totalAmount.Amount(),
		PaymentStatus:        BillingStatusPending,
	}

	b.AddDomainEvent(NewBillCreatedEvent(b))

	return b, nil
}

// SynthesizeFromAdmission creates an IPD bill for an admission that was billed
// before any bill record existed. The admission id is stored so payments
// recorded under it remain addressable.
func SynthesizeFromAdmission(
	admissionID string,
	patientID uuid.UUID,
	computedCharges valueobject.Money,
	createdBy uuid.UUID,
) (*Bill, error) {
	if admissionID == "" {
		return nil, shared.NewDomainError("INVALID_ADMISSION", "Admission ID cannot be empty")
	}

	b, err := NewBill(
		fmt.Sprintf("IPD-%s", admissionID),
		BillTypeIPD,
		patientID,
		computedCharges,
		createdBy,
	)
	if err != nil {
		return nil, err
	}
	b.AdmissionID = &admissionID

	return b, nil
}

// SetAdmissionID attaches the legacy admission key to an IPD bill
func (b *Bill) SetAdmissionID(admissionID string) error {
	if b.BillType != BillTypeIPD {
		return shared.NewDomainError("INVALID_BILL_TYPE", "Only IPD bills carry an admission ID")
	}
	b.AdmissionID = &admissionID
	b.Touch()
	return nil
}

// SetInsuranceCovered records the amount covered by insurance and moves the
// stored due by the change, so a manually adjusted due stays authoritative
// while the bill has no payment ledger
func (b *Bill) SetInsuranceCovered(amount valueobject.Money) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Insurance covered amount cannot be negative")
	}
	due := b.EffectiveDue(b.PaidAmount).Sub(amount.Amount().Sub(b.InsuranceCovered))
	if due.IsNegative() {
		due = decimal.Zero
	}
	b.InsuranceCovered = amount.Amount()
	b.DueAmount = due
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
	return nil
}

// ApplyAdvance moves wallet money onto the bill and reduces the stored due
// by the same amount. The caller is responsible for debiting the patient's
// advance balance first.
func (b *Bill) ApplyAdvance(amount valueobject.Money, actor uuid.UUID) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Advance amount must be positive")
	}
	due := b.EffectiveDue(b.PaidAmount)
	if amount.Amount().GreaterThan(due) {
		return shared.NewDomainError("AMOUNT_EXCEEDS_DUE",
			fmt.Sprintf("Advance amount %s exceeds due amount %s", amount.Amount().StringFixed(2), due.StringFixed(2)))
	}

	b.AdvanceApplied = b.AdvanceApplied.Add(amount.Amount())
	b.DueAmount = due.Sub(amount.Amount())
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewAdvanceAppliedEvent(b, amount.Amount(), actor))

	return nil
}

// Reconcile updates the cached paid/due amounts from the payment ledger and
// derives the billing status. paidNonRefunded is the sum of non-refunded
// payments recorded against this bill. Idempotent.
func (b *Bill) Reconcile(paidNonRefunded decimal.Decimal) {
	due := ComputeDue(b.TotalAmount, b.AdvanceApplied, b.InsuranceCovered, paidNonRefunded)
	// A bill whose ledger never held a payment keeps its stored due: legacy
	// records encode manual adjustments the ledger cannot reproduce. The
	// cached PaidAmount distinguishes "no ledger yet" from a ledger that was
	// fully refunded, where the computed value must win.
	if paidNonRefunded.IsZero() && b.PaidAmount.IsZero() && !b.DueAmount.IsNegative() {
		due = b.DueAmount
	}
	status := DeriveStatus(due, paidNonRefunded, b.AdvanceApplied)

	changed := !b.PaidAmount.Equal(paidNonRefunded) || !b.DueAmount.Equal(due) || b.PaymentStatus != status
	if !changed {
		return
	}

	previousStatus := b.PaymentStatus
	b.PaidAmount = paidNonRefunded
	b.DueAmount = due
	b.PaymentStatus = status
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	if status == BillingStatusPaid && previousStatus != BillingStatusPaid {
		now := time.Now()
		b.PaidAt = &now
	} else if status != BillingStatusPaid {
		b.PaidAt = nil
	}

	b.AddDomainEvent(NewBillReconciledEvent(b, previousStatus))
}

// EffectiveDue returns the amount still owed, applying the stored-due
// trust rule against the given ledger sum
func (b *Bill) EffectiveDue(paidNonRefunded decimal.Decimal) decimal.Decimal {
	return EffectiveDue(b.DueAmount, b.TotalAmount, b.AdvanceApplied, b.InsuranceCovered, paidNonRefunded)
}

// GetTotalAmountMoney returns total amount as Money
func (b *Bill) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(b.TotalAmount)
}

// GetDueAmountMoney returns the cached due amount as Money
func (b *Bill) GetDueAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(b.DueAmount)
}

// GetPaidAmountMoney returns the cached paid amount as Money
func (b *Bill) GetPaidAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(b.PaidAmount)
}
