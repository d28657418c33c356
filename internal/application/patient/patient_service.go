package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/patient"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PatientService handles patient registration and lookup.
// Billing references patients by id; this service owns the identity records.
type PatientService struct {
	patientRepo patient.PatientRepository
	logger      *zap.Logger
}

// NewPatientService creates a new PatientService
func NewPatientService(patientRepo patient.PatientRepository, logger *zap.Logger) *PatientService {
	return &PatientService{
		patientRepo: patientRepo,
		logger:      logger,
	}
}

// RegisterRequest carries the fields needed to register a patient
type RegisterRequest struct {
	MRN   string
	Name  string
	Phone string
	Actor uuid.UUID
}

// Register creates a new patient record. The MRN must be unique.
func (s *PatientService) Register(ctx context.Context, req RegisterRequest) (*patient.Patient, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "patient", "register")
	defer span.End()

	existing, err := s.patientRepo.FindByMRN(ctx, req.MRN)
	if err != nil {
		return nil, fmt.Errorf("checking MRN uniqueness: %w", err)
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("Patient with MRN %s already exists", req.MRN))
	}

	p, err := patient.NewPatient(req.MRN, req.Name, req.Actor)
	if err != nil {
		return nil, err
	}
	if req.Phone != "" {
		p.SetPhone(req.Phone)
	}

	if err := s.patientRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	s.logger.Info("Patient registered",
		zap.String("patient_id", p.GetID().String()),
		zap.String("mrn", p.MRN),
	)

	return p, nil
}

// GetByID returns the patient or PATIENT_NOT_FOUND
func (s *PatientService) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, err := s.patientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding patient: %w", err)
	}
	if p == nil {
		return nil, shared.NewDomainError("PATIENT_NOT_FOUND",
			fmt.Sprintf("No patient found with id %s", id))
	}
	return p, nil
}

// GetByMRN returns the patient or PATIENT_NOT_FOUND
func (s *PatientService) GetByMRN(ctx context.Context, mrn string) (*patient.Patient, error) {
	p, err := s.patientRepo.FindByMRN(ctx, mrn)
	if err != nil {
		return nil, fmt.Errorf("finding patient: %w", err)
	}
	if p == nil {
		return nil, shared.NewDomainError("PATIENT_NOT_FOUND",
			fmt.Sprintf("No patient found with MRN %s", mrn))
	}
	return p, nil
}
