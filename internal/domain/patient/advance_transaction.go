package patient

import (
	"time"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AdvanceTransactionType represents the type of advance wallet movement
type AdvanceTransactionType string

const (
	// AdvanceTransactionTypeDeposit represents money paid in as advance (balance increase)
	AdvanceTransactionTypeDeposit AdvanceTransactionType = "DEPOSIT"
	// AdvanceTransactionTypeUse represents advance applied toward a bill (balance decrease)
	AdvanceTransactionTypeUse AdvanceTransactionType = "USE"
	// AdvanceTransactionTypeReversal represents a deposit returned to the patient (balance decrease)
	AdvanceTransactionTypeReversal AdvanceTransactionType = "REVERSAL"
)

// String returns the string representation of AdvanceTransactionType
func (t AdvanceTransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t AdvanceTransactionType) IsValid() bool {
	switch t {
	case AdvanceTransactionTypeDeposit, AdvanceTransactionTypeUse, AdvanceTransactionTypeReversal:
		return true
	}
	return false
}

// IsIncrease returns true if this transaction type increases the balance
func (t AdvanceTransactionType) IsIncrease() bool {
	return t == AdvanceTransactionTypeDeposit
}

// AdvanceSourceType represents the document that caused a wallet movement
type AdvanceSourceType string

const (
	AdvanceSourceTypePayment AdvanceSourceType = "PAYMENT" // deposit or reversal tied to a payment record
	AdvanceSourceTypeBill    AdvanceSourceType = "BILL"    // use applied toward a bill
	AdvanceSourceTypeManual  AdvanceSourceType = "MANUAL"  // manual correction
)

// IsValid returns true if the source type is valid
func (s AdvanceSourceType) IsValid() bool {
	switch s {
	case AdvanceSourceTypePayment, AdvanceSourceTypeBill, AdvanceSourceTypeManual:
		return true
	}
	return false
}

// AdvanceTransaction is an immutable record of an advance wallet change.
// Corrections are made with new transactions, never by editing old ones.
type AdvanceTransaction struct {
	shared.BaseEntity
	PatientID       uuid.UUID
	TransactionType AdvanceTransactionType
	Amount          decimal.Decimal // always positive, direction determined by type
	BalanceBefore   decimal.Decimal
	BalanceAfter    decimal.Decimal
	SourceType      AdvanceSourceType
	SourceID        *string // payment or bill identifier
	Remark          string
	PerformedBy     *uuid.UUID
	TransactionDate time.Time
}

// NewAdvanceTransaction creates a new advance transaction
func NewAdvanceTransaction(
	patientID uuid.UUID,
	txType AdvanceTransactionType,
	amount decimal.Decimal,
	balanceBefore decimal.Decimal,
	balanceAfter decimal.Decimal,
	sourceType AdvanceSourceType,
) (*AdvanceTransaction, error) {
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("MISSING_PATIENT", "Patient ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid advance transaction type")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if balanceBefore.IsNegative() {
		return nil, shared.NewDomainError("INVALID_BALANCE", "Balance before cannot be negative")
	}
	if balanceAfter.IsNegative() {
		return nil, shared.NewDomainError("INVALID_BALANCE", "Balance after cannot be negative")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Invalid source type")
	}

	return &AdvanceTransaction{
		BaseEntity:      shared.NewBaseEntity(),
		PatientID:       patientID,
		TransactionType: txType,
		Amount:          amount,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    balanceAfter,
		SourceType:      sourceType,
		TransactionDate: time.Now(),
	}, nil
}

// WithSourceID sets the source document identifier
func (t *AdvanceTransaction) WithSourceID(sourceID string) *AdvanceTransaction {
	t.SourceID = &sourceID
	return t
}

// WithRemark sets the remark
func (t *AdvanceTransaction) WithRemark(remark string) *AdvanceTransaction {
	t.Remark = remark
	return t
}

// WithPerformedBy sets the actor who performed the operation
func (t *AdvanceTransaction) WithPerformedBy(actor uuid.UUID) *AdvanceTransaction {
	if actor != uuid.Nil {
		t.PerformedBy = &actor
	}
	return t
}

// BalanceChange returns the net balance change
func (t *AdvanceTransaction) BalanceChange() decimal.Decimal {
	return t.BalanceAfter.Sub(t.BalanceBefore)
}

// CreateDepositTransaction creates a DEPOSIT ledger entry
func CreateDepositTransaction(patientID uuid.UUID, amount, balanceBefore decimal.Decimal) (*AdvanceTransaction, error) {
	return NewAdvanceTransaction(patientID, AdvanceTransactionTypeDeposit,
		amount, balanceBefore, balanceBefore.Add(amount), AdvanceSourceTypePayment)
}

// CreateUseTransaction creates a USE ledger entry
func CreateUseTransaction(patientID uuid.UUID, amount, balanceBefore decimal.Decimal) (*AdvanceTransaction, error) {
	if balanceBefore.LessThan(amount) {
		return nil, shared.ErrInsufficientAdvanceBalance
	}
	return NewAdvanceTransaction(patientID, AdvanceTransactionTypeUse,
		amount, balanceBefore, balanceBefore.Sub(amount), AdvanceSourceTypeBill)
}

// CreateReversalTransaction creates a REVERSAL ledger entry
func CreateReversalTransaction(patientID uuid.UUID, amount, balanceBefore decimal.Decimal) (*AdvanceTransaction, error) {
	if balanceBefore.LessThan(amount) {
		return nil, shared.ErrInsufficientAdvanceBalance
	}
	return NewAdvanceTransaction(patientID, AdvanceTransactionTypeReversal,
		amount, balanceBefore, balanceBefore.Sub(amount), AdvanceSourceTypePayment)
}
