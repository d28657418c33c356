package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/patient"
	"github.com/hims/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAdvanceTransactionRepository implements AdvanceTransactionRepository
// using GORM. The ledger is append-only; there is no update or delete.
type GormAdvanceTransactionRepository struct {
	db *gorm.DB
}

// NewGormAdvanceTransactionRepository creates a new GormAdvanceTransactionRepository
func NewGormAdvanceTransactionRepository(db *gorm.DB) *GormAdvanceTransactionRepository {
	return &GormAdvanceTransactionRepository{db: db}
}

// Create persists a new ledger entry
func (r *GormAdvanceTransactionRepository) Create(ctx context.Context, tx *patient.AdvanceTransaction) error {
	model := models.AdvanceTransactionModelFromDomain(tx)
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(model).Error
}

// ListByPatient lists the patient's ledger entries, newest first
func (r *GormAdvanceTransactionRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*patient.AdvanceTransaction, error) {
	var txModels []models.AdvanceTransactionModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("transaction_date DESC, created_at DESC").
		Find(&txModels).Error; err != nil {
		return nil, err
	}

	txs := make([]*patient.AdvanceTransaction, len(txModels))
	for i := range txModels {
		txs[i] = txModels[i].ToDomain()
	}
	return txs, nil
}

// Ensure GormAdvanceTransactionRepository implements AdvanceTransactionRepository
var _ patient.AdvanceTransactionRepository = (*GormAdvanceTransactionRepository)(nil)
