package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBillRepository implements BillRepository using GORM
type GormBillRepository struct {
	db *gorm.DB
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{db: db}
}

// FindByID finds a bill by its primary id, nil when no such bill exists
func (r *GormBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	var model models.BillModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByAdmissionID finds an IPD bill by its legacy admission id, nil when
// no bill carries that admission id
func (r *GormBillRepository) FindByAdmissionID(ctx context.Context, admissionID string) (*billing.Bill, error) {
	var model models.BillModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("admission_id = ?", admissionID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create persists a new bill
func (r *GormBillRepository) Create(ctx context.Context, bill *billing.Bill) error {
	model := models.BillModelFromDomain(bill)
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(model).Error
}

// Save creates or updates a bill without a version check
func (r *GormBillRepository) Save(ctx context.Context, bill *billing.Bill) error {
	model := models.BillModelFromDomain(bill)
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a bill with optimistic locking (version check).
// Mutators increment the aggregate version before save, so the row must
// still carry the version the aggregate was loaded with.
func (r *GormBillRepository) SaveWithLock(ctx context.Context, bill *billing.Bill) error {
	model := models.BillModelFromDomain(bill)
	// Select("*") forces zero-valued columns through; a refund can clear
	// paid_at and drop amounts back to zero
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", bill.ID, bill.Version-1).
		Select("*").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENCY_CONFLICT", "The bill has been modified by another transaction")
	}
	return nil
}

// Ensure GormBillRepository implements BillRepository
var _ billing.BillRepository = (*GormBillRepository)(nil)
