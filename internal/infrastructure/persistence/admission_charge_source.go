package persistence

import (
	"context"
	"errors"

	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormAdmissionChargeSource implements AdmissionChargeSource by summing the
// admission's charge rows. Used to synthesize IPD bills for admissions that
// were billed before a bill record existed.
type GormAdmissionChargeSource struct {
	db *gorm.DB
}

// NewGormAdmissionChargeSource creates a new GormAdmissionChargeSource
func NewGormAdmissionChargeSource(db *gorm.DB) *GormAdmissionChargeSource {
	return &GormAdmissionChargeSource{db: db}
}

// ComputedCharges returns the billable total for an admission, nil when the
// admission does not exist
func (s *GormAdmissionChargeSource) ComputedCharges(ctx context.Context, admissionID string) (*billing.AdmissionCharges, error) {
	var admission models.AdmissionModel
	if err := dbFromContext(ctx, s.db).WithContext(ctx).
		First(&admission, "id = ?", admissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var result struct {
		Total decimal.Decimal
	}
	if err := dbFromContext(ctx, s.db).WithContext(ctx).
		Model(&models.AdmissionChargeModel{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("admission_id = ?", admissionID).
		Scan(&result).Error; err != nil {
		return nil, err
	}

	return &billing.AdmissionCharges{
		PatientID: admission.PatientID,
		Total:     result.Total,
	}, nil
}

// Ensure GormAdmissionChargeSource implements AdmissionChargeSource
var _ billing.AdmissionChargeSource = (*GormAdmissionChargeSource)(nil)
