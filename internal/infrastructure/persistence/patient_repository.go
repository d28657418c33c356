package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/patient"
	"github.com/hims/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPatientRepository implements PatientRepository using GORM
type GormPatientRepository struct {
	db *gorm.DB
}

// NewGormPatientRepository creates a new GormPatientRepository
func NewGormPatientRepository(db *gorm.DB) *GormPatientRepository {
	return &GormPatientRepository{db: db}
}

// FindByID finds a patient by id, nil when no such patient exists
func (r *GormPatientRepository) FindByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var model models.PatientModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMRN finds a patient by medical record number, nil when none matches
func (r *GormPatientRepository) FindByMRN(ctx context.Context, mrn string) (*patient.Patient, error) {
	var model models.PatientModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("mrn = ?", mrn).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create persists a new patient
func (r *GormPatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	model := models.PatientModelFromDomain(p)
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(model).Error
}

// Ensure GormPatientRepository implements PatientRepository
var _ patient.PatientRepository = (*GormPatientRepository)(nil)
