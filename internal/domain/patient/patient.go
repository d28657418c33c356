package patient

import (
	"time"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/shared"
)

// Patient represents a registered patient.
// Billing only needs the identity fields; clinical data lives elsewhere.
type Patient struct {
	shared.AuditedAggregateRoot
	MRN   string `json:"mrn"` // Medical record number, unique
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// NewPatient creates a new patient
func NewPatient(mrn, name string, createdBy uuid.UUID) (*Patient, error) {
	if mrn == "" {
		return nil, shared.NewDomainError("INVALID_MRN", "Medical record number cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Patient name cannot be empty")
	}

	return &Patient{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		MRN:                  mrn,
		Name:                 name,
	}, nil
}

// SetPhone updates the contact phone
func (p *Patient) SetPhone(phone string) {
	p.Phone = phone
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
