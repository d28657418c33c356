package billing

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentRequest is the raw payment submission before any resolution or
// classification has happened
type PaymentRequest struct {
	PatientID      uuid.UUID             `validate:"required"`
	BillType       *billing.BillType     `validate:"omitempty"`
	BillID         *string               `validate:"omitempty"`
	PaymentType    billing.PaymentType   `validate:"omitempty"` // classified by the processor when empty
	PaymentMethod  billing.PaymentMethod `validate:"required"`
	Amount         decimal.Decimal
	TransactionID  string     `validate:"omitempty,max=100"`
	BankName       string     `validate:"omitempty,max=100"`
	ChequeNumber   string     `validate:"omitempty,max=50"`
	ChequeDate     *time.Time `validate:"omitempty"`
	Remark         string     `validate:"omitempty,max=500"`
	ReceivedBy     uuid.UUID  `validate:"required"`
	IdempotencyKey string     `validate:"omitempty,max=100"`
}

// MethodDetails extracts the method-specific fields
func (r PaymentRequest) MethodDetails() billing.MethodDetails {
	return billing.MethodDetails{
		TransactionID: r.TransactionID,
		BankName:      r.BankName,
		ChequeNumber:  r.ChequeNumber,
		ChequeDate:    r.ChequeDate,
	}
}

// PaymentValidator checks payment requests against an ordered rule chain.
// The first failing rule determines the error code; no side effects.
type PaymentValidator struct {
	validate *validator.Validate
}

// NewPaymentValidator creates a new PaymentValidator
func NewPaymentValidator() *PaymentValidator {
	return &PaymentValidator{
		validate: validator.New(),
	}
}

// Validate runs the ordered rules on a payment request
func (v *PaymentValidator) Validate(req PaymentRequest) error {
	if req.PatientID == uuid.Nil {
		return shared.NewDomainError("MISSING_PATIENT", "Patient ID is required")
	}
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !req.PaymentMethod.IsValid() {
		return shared.NewDomainError("INVALID_METHOD", "Payment method must be one of cash, card, bank_transfer, cheque")
	}
	if req.PaymentMethod == billing.PaymentMethodCheque {
		if req.ChequeNumber == "" || req.BankName == "" {
			return shared.NewDomainError("MISSING_CHEQUE_FIELDS", "Cheque payments require cheque number and bank name")
		}
	}
	if req.PaymentMethod.RequiresTransactionID() && req.TransactionID == "" {
		return shared.NewDomainError("MISSING_TRANSACTION_ID", "Card and bank transfer payments require a transaction ID")
	}
	// A half-specified bill reference would silently turn a bill payment
	// into a wallet deposit.
	if (req.BillType == nil) != (req.BillID == nil) {
		return shared.NewDomainError("INVALID_INPUT", "Bill type and bill ID must be supplied together")
	}
	if req.PaymentType != "" && !req.PaymentType.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_TYPE", "Payment type must be one of advance, partial, full, refund")
	}
	if req.ReceivedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Receiving actor is required")
	}

	// Field-shape rules (lengths, formats) come from the struct tags
	if err := v.validate.Struct(req); err != nil {
		return shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	return nil
}
