package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdmissionModel is the GORM model for IPD admissions. The primary key is
// the legacy admission identifier string, which older payment records used
// as their bill identifier.
type AdmissionModel struct {
	ID           string     `gorm:"type:varchar(100);primary_key"`
	PatientID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	AdmittedAt   time.Time  `gorm:"not null"`
	DischargedAt *time.Time `gorm:""`
	CreatedAt    time.Time  `gorm:"not null"`
	UpdatedAt    time.Time  `gorm:"not null"`
}

// TableName specifies the table name
func (AdmissionModel) TableName() string {
	return "admissions"
}

// AdmissionChargeModel is the GORM model for individual admission charges
// (room, procedures, pharmacy). The billable total for an admission is the
// sum of its charge rows.
type AdmissionChargeModel struct {
	BaseModel
	AdmissionID string          `gorm:"type:varchar(100);not null;index"`
	Description string          `gorm:"type:varchar(200)"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ChargedAt   time.Time       `gorm:"not null"`
}

// TableName specifies the table name
func (AdmissionChargeModel) TableName() string {
	return "admission_charges"
}
