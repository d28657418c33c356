package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/patient"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAdvanceBalanceRepository implements AdvanceBalanceRepository using GORM
type GormAdvanceBalanceRepository struct {
	db *gorm.DB
}

// NewGormAdvanceBalanceRepository creates a new GormAdvanceBalanceRepository
func NewGormAdvanceBalanceRepository(db *gorm.DB) *GormAdvanceBalanceRepository {
	return &GormAdvanceBalanceRepository{db: db}
}

// FindByPatientID finds the patient's wallet, nil when no wallet exists yet.
// Wallets are created lazily on first deposit.
func (r *GormAdvanceBalanceRepository) FindByPatientID(ctx context.Context, patientID uuid.UUID) (*patient.AdvanceBalance, error) {
	var model models.AdvanceBalanceModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("patient_id = ?", patientID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create persists a new wallet
func (r *GormAdvanceBalanceRepository) Create(ctx context.Context, ab *patient.AdvanceBalance) error {
	model := models.AdvanceBalanceModelFromDomain(ab)
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(model).Error
}

// SaveWithLock saves a wallet with optimistic locking (version check).
// Mutators increment the aggregate version before save, so the row must
// still carry the version the aggregate was loaded with.
func (r *GormAdvanceBalanceRepository) SaveWithLock(ctx context.Context, ab *patient.AdvanceBalance) error {
	model := models.AdvanceBalanceModelFromDomain(ab)
	// Select("*") forces zero-valued columns through; a full use or
	// reversal drops the balance to zero
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", ab.ID, ab.Version-1).
		Select("*").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENCY_CONFLICT", "The advance balance has been modified by another transaction")
	}
	return nil
}

// Ensure GormAdvanceBalanceRepository implements AdvanceBalanceRepository
var _ patient.AdvanceBalanceRepository = (*GormAdvanceBalanceRepository)(nil)
