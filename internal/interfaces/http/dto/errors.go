package dto

import "net/http"

// HTTP-boundary error codes. Domain errors carry their own codes; these
// cover failures that never reach the application layer.
const (
	// ErrCodeInternal is used for unexpected server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInvalidJSON is used when the request body cannot be parsed
	ErrCodeInvalidJSON = "INVALID_JSON"
	// ErrCodeValidation is used for request binding/validation failures
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
)

// ErrorCodeHTTPStatus maps domain and boundary error codes to HTTP statuses
var ErrorCodeHTTPStatus = map[string]int{
	// Request validation -> 400 Bad Request
	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodeInvalidJSON:       http.StatusBadRequest,
	ErrCodeValidation:        http.StatusBadRequest,
	"INVALID_INPUT":          http.StatusBadRequest,
	"MISSING_PATIENT":        http.StatusBadRequest,
	"INVALID_AMOUNT":         http.StatusBadRequest,
	"INVALID_METHOD":         http.StatusBadRequest,
	"MISSING_CHEQUE_FIELDS":  http.StatusBadRequest,
	"MISSING_TRANSACTION_ID": http.StatusBadRequest,
	"INVALID_PAYMENT_TYPE":   http.StatusBadRequest,
	"INVALID_BILL_TYPE":      http.StatusBadRequest,

	// Missing resources -> 404 Not Found
	ErrCodeNotFound:     http.StatusNotFound,
	"BILL_NOT_FOUND":    http.StatusNotFound,
	"PATIENT_NOT_FOUND": http.StatusNotFound,

	// Conflicting requests -> 409 Conflict
	"DUPLICATE_REQUEST":    http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"ALREADY_EXISTS":       http.StatusConflict,

	// Business rule violations -> 422 Unprocessable Entity
	"AMOUNT_EXCEEDS_DUE":           http.StatusUnprocessableEntity,
	"INSUFFICIENT_ADVANCE_BALANCE": http.StatusUnprocessableEntity,
	"ALREADY_REFUNDED":             http.StatusUnprocessableEntity,
	"REFUND_EXCEEDS_ORIGINAL":      http.StatusUnprocessableEntity,
	"INVALID_STATE":                http.StatusUnprocessableEntity,

	// Infrastructure failures -> 500 Internal Server Error
	ErrCodeInternal:     http.StatusInternalServerError,
	"PERSISTENCE_ERROR": http.StatusInternalServerError,
	"PROCESSING_ERROR":  http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
