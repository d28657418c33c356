package patient

import (
	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the advance wallet
const (
	EventTypeAdvanceDeposited = "patient.advance.deposited"
	EventTypeAdvanceUsed      = "patient.advance.used"
	EventTypeAdvanceReversed  = "patient.advance.reversed"
)

// advanceEvent carries the fields shared by all wallet events
type advanceEvent struct {
	shared.BaseDomainEvent
	PatientID     uuid.UUID       `json:"patient_id"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Actor         uuid.UUID       `json:"actor"`
}

func newAdvanceEvent(eventType string, ab *AdvanceBalance, amount, before decimal.Decimal, actor uuid.UUID) advanceEvent {
	return advanceEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "AdvanceBalance", ab.GetID()),
		PatientID:       ab.PatientID,
		Amount:          amount,
		BalanceBefore:   before,
		BalanceAfter:    ab.Balance,
		Actor:           actor,
	}
}

// AdvanceDepositedEvent is raised when money is paid into the wallet
type AdvanceDepositedEvent struct{ advanceEvent }

// NewAdvanceDepositedEvent creates a new AdvanceDepositedEvent
func NewAdvanceDepositedEvent(ab *AdvanceBalance, amount, before decimal.Decimal, actor uuid.UUID) *AdvanceDepositedEvent {
	return &AdvanceDepositedEvent{newAdvanceEvent(EventTypeAdvanceDeposited, ab, amount, before, actor)}
}

// AdvanceUsedEvent is raised when wallet money is applied toward a bill
type AdvanceUsedEvent struct{ advanceEvent }

// NewAdvanceUsedEvent creates a new AdvanceUsedEvent
func NewAdvanceUsedEvent(ab *AdvanceBalance, amount, before decimal.Decimal, actor uuid.UUID) *AdvanceUsedEvent {
	return &AdvanceUsedEvent{newAdvanceEvent(EventTypeAdvanceUsed, ab, amount, before, actor)}
}

// AdvanceReversedEvent is raised when a deposit is returned to the patient
type AdvanceReversedEvent struct{ advanceEvent }

// NewAdvanceReversedEvent creates a new AdvanceReversedEvent
func NewAdvanceReversedEvent(ab *AdvanceBalance, amount, before decimal.Decimal, actor uuid.UUID) *AdvanceReversedEvent {
	return &AdvanceReversedEvent{newAdvanceEvent(EventTypeAdvanceReversed, ab, amount, before, actor)}
}
