package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound                   = NewDomainError("NOT_FOUND", "Resource not found")
	ErrBillNotFound               = NewDomainError("BILL_NOT_FOUND", "Bill not found")
	ErrPatientNotFound            = NewDomainError("PATIENT_NOT_FOUND", "Patient not found")
	ErrInvalidInput               = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict        = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState               = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrAmountExceedsDue           = NewDomainError("AMOUNT_EXCEEDS_DUE", "Payment amount exceeds due amount")
	ErrInsufficientAdvanceBalance = NewDomainError("INSUFFICIENT_ADVANCE_BALANCE", "Insufficient advance balance available")
	ErrAlreadyRefunded            = NewDomainError("ALREADY_REFUNDED", "Payment has already been refunded")
	ErrDuplicateRequest           = NewDomainError("DUPLICATE_REQUEST", "This request has already been processed")
	ErrPersistence                = NewDomainError("PERSISTENCE_ERROR", "Storage operation failed")
	ErrProcessing                 = NewDomainError("PROCESSING_ERROR", "Payment processing failed unexpectedly")
)
