package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillRepository defines the persistence port for bills
type BillRepository interface {
	// FindByID finds a bill by its primary id
	FindByID(ctx context.Context, id uuid.UUID) (*Bill, error)

	// FindByAdmissionID finds an IPD bill by its legacy admission id
	FindByAdmissionID(ctx context.Context, admissionID string) (*Bill, error)

	// Create persists a new bill
	Create(ctx context.Context, bill *Bill) error

	// Save persists changes to an existing bill
	Save(ctx context.Context, bill *Bill) error

	// SaveWithLock persists changes using optimistic locking against the
	// version the aggregate was loaded with.
	// Returns CONCURRENCY_CONFLICT if the row changed underneath.
	SaveWithLock(ctx context.Context, bill *Bill) error
}

// PaymentRepository defines the persistence port for payments.
// Bill-scoped queries key on the canonical bill identifier, which for legacy
// IPD records may be an admission id rather than a bill uuid.
type PaymentRepository interface {
	// Create persists a new payment
	Create(ctx context.Context, payment *Payment) error

	// FindByID finds a payment by id
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// Save persists changes to an existing payment (the refund status flip)
	Save(ctx context.Context, payment *Payment) error

	// SumNonRefundedByBill sums completed, non-refund payments recorded
	// against the canonical bill identifier
	SumNonRefundedByBill(ctx context.Context, canonicalBillID string) (decimal.Decimal, error)

	// ListByBill lists all payments recorded against the canonical bill identifier
	ListByBill(ctx context.Context, canonicalBillID string) ([]*Payment, error)

	// ExistsByBill reports whether any payment was recorded against the
	// canonical bill identifier
	ExistsByBill(ctx context.Context, canonicalBillID string) (bool, error)

	// ListByPatient lists payments for a patient, newest first
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Payment, error)
}

// AdmissionCharges holds the computed charges for an admission that has no
// bill record yet
type AdmissionCharges struct {
	PatientID uuid.UUID
	Total     decimal.Decimal
}

// AdmissionChargeSource computes the billable total for an admission.
// Used to synthesize IPD bills for admissions billed before a bill record existed.
type AdmissionChargeSource interface {
	ComputedCharges(ctx context.Context, admissionID string) (*AdmissionCharges, error)
}

// Transactor runs a function inside a database transaction. Repositories
// called with the inner context participate in the same transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
