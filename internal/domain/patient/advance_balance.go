package patient

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AdvanceBalance is the per-patient advance wallet. The balance is shared
// across all of the patient's bills and never goes negative. It may only be
// mutated through Deposit, Use, and Reverse; every mutation must be paired
// with an AdvanceTransaction ledger entry by the caller.
type AdvanceBalance struct {
	shared.BaseAggregateRoot
	PatientID uuid.UUID       `json:"patient_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// NewAdvanceBalance creates an empty wallet for a patient.
// Wallets are created lazily on first deposit and never deleted.
func NewAdvanceBalance(patientID uuid.UUID) (*AdvanceBalance, error) {
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("MISSING_PATIENT", "Patient ID cannot be empty")
	}
	return &AdvanceBalance{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PatientID:         patientID,
		Balance:           decimal.Zero,
	}, nil
}

// Deposit credits the wallet
func (ab *AdvanceBalance) Deposit(amount valueobject.Money, actor uuid.UUID) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Deposit amount must be positive")
	}

	before := ab.Balance
	ab.Balance = ab.Balance.Add(amount.Amount())
	ab.touch()

	ab.AddDomainEvent(NewAdvanceDepositedEvent(ab, amount.Amount(), before, actor))

	return nil
}

// Use debits the wallet to pay toward a bill.
// Fails without mutation when the balance is insufficient.
func (ab *AdvanceBalance) Use(amount valueobject.Money, actor uuid.UUID) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if ab.Balance.LessThan(amount.Amount()) {
		return shared.NewDomainError("INSUFFICIENT_ADVANCE_BALANCE",
			fmt.Sprintf("Advance balance %s is less than requested amount %s",
				ab.Balance.StringFixed(2), amount.Amount().StringFixed(2)))
	}

	before := ab.Balance
	ab.Balance = ab.Balance.Sub(amount.Amount())
	ab.touch()

	ab.AddDomainEvent(NewAdvanceUsedEvent(ab, amount.Amount(), before, actor))

	return nil
}

// Reverse debits the wallet to return a deposit to the patient.
// Fails without mutation when the balance is insufficient.
func (ab *AdvanceBalance) Reverse(amount valueobject.Money, actor uuid.UUID) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if ab.Balance.LessThan(amount.Amount()) {
		return shared.NewDomainError("INSUFFICIENT_ADVANCE_BALANCE",
			fmt.Sprintf("Advance balance %s is less than reversal amount %s",
				ab.Balance.StringFixed(2), amount.Amount().StringFixed(2)))
	}

	before := ab.Balance
	ab.Balance = ab.Balance.Sub(amount.Amount())
	ab.touch()

	ab.AddDomainEvent(NewAdvanceReversedEvent(ab, amount.Amount(), before, actor))

	return nil
}

// GetBalanceMoney returns the balance as Money
func (ab *AdvanceBalance) GetBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyINR(ab.Balance)
}

func (ab *AdvanceBalance) touch() {
	ab.UpdatedAt = time.Now()
	ab.IncrementVersion()
}
