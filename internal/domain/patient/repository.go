package patient

import (
	"context"

	"github.com/google/uuid"
)

// PatientRepository defines the persistence port for patients
type PatientRepository interface {
	// FindByID finds a patient by id
	FindByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// FindByMRN finds a patient by medical record number
	FindByMRN(ctx context.Context, mrn string) (*Patient, error)

	// Create persists a new patient
	Create(ctx context.Context, p *Patient) error
}

// AdvanceBalanceRepository defines the persistence port for the advance wallet
type AdvanceBalanceRepository interface {
	// FindByPatientID finds the patient's wallet, nil when none exists yet
	FindByPatientID(ctx context.Context, patientID uuid.UUID) (*AdvanceBalance, error)

	// Create persists a new wallet
	Create(ctx context.Context, ab *AdvanceBalance) error

	// SaveWithLock persists wallet changes using optimistic locking against
	// the version the aggregate was loaded with.
	// Returns CONCURRENCY_CONFLICT if the row changed underneath.
	SaveWithLock(ctx context.Context, ab *AdvanceBalance) error
}

// AdvanceTransactionRepository defines the persistence port for the wallet ledger
type AdvanceTransactionRepository interface {
	// Create persists a new ledger entry
	Create(ctx context.Context, tx *AdvanceTransaction) error

	// ListByPatient lists the patient's ledger entries, newest first
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*AdvanceTransaction, error)
}
