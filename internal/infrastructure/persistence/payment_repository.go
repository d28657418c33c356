package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM.
// Bill-scoped queries key on the canonical bill identifier string, which for
// legacy IPD records is an admission id rather than a bill uuid.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create persists a new payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *billing.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(model).Error
}

// FindByID finds a payment by id, nil when no such payment exists
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	var model models.PaymentModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists changes to an existing payment
func (r *GormPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return dbFromContext(ctx, r.db).WithContext(ctx).
		Model(model).
		Where("id = ?", payment.ID).
		Select("*").
		Updates(model).Error
}

// SumNonRefundedByBill returns the money still held against the canonical
// bill identifier: recorded collections minus refund entries. Refund rows
// subtract, so a partial refund reduces the sum by exactly the refunded
// amount; the refunded flag on an original is only the double-refund guard.
func (r *GormPaymentRepository) SumNonRefundedByBill(ctx context.Context, canonicalBillID string) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.PaymentModel{}).
		Select("COALESCE(SUM(CASE WHEN payment_type = ? THEN -amount ELSE amount END), 0) AS total",
			billing.PaymentTypeRefund).
		Where("bill_id = ?", canonicalBillID).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// ListByBill lists all payments recorded against the canonical bill
// identifier, oldest first
func (r *GormPaymentRepository) ListByBill(ctx context.Context, canonicalBillID string) ([]*billing.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("bill_id = ?", canonicalBillID).
		Order("created_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]*billing.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = paymentModels[i].ToDomain()
	}
	return payments, nil
}

// ExistsByBill reports whether any payment was recorded against the
// canonical bill identifier
func (r *GormPaymentRepository) ExistsByBill(ctx context.Context, canonicalBillID string) (bool, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("bill_id = ?", canonicalBillID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByPatient lists payments for a patient, newest first
func (r *GormPaymentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*billing.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]*billing.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = paymentModels[i].ToDomain()
	}
	return payments, nil
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)
