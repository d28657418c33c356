package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/patient"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PatientModel is the GORM model for patients
type PatientModel struct {
	AuditedAggregateModel
	MRN   string `gorm:"type:varchar(50);uniqueIndex;not null"`
	Name  string `gorm:"type:varchar(200);not null"`
	Phone string `gorm:"type:varchar(50)"`
}

// TableName specifies the table name
func (PatientModel) TableName() string {
	return "patients"
}

// ToDomain converts the model to a domain patient
func (m *PatientModel) ToDomain() *patient.Patient {
	return &patient.Patient{
		AuditedAggregateRoot: shared.AuditedAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			CreatedBy: m.CreatedBy,
		},
		MRN:   m.MRN,
		Name:  m.Name,
		Phone: m.Phone,
	}
}

// FromDomain populates the model from a domain patient
func (m *PatientModel) FromDomain(p *patient.Patient) {
	m.ID = p.ID
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
	m.Version = p.Version
	m.CreatedBy = p.CreatedBy
	m.MRN = p.MRN
	m.Name = p.Name
	m.Phone = p.Phone
}

// PatientModelFromDomain creates a model from a domain patient
func PatientModelFromDomain(p *patient.Patient) *PatientModel {
	m := &PatientModel{}
	m.FromDomain(p)
	return m
}

// AdvanceBalanceModel is the GORM model for the per-patient advance wallet
type AdvanceBalanceModel struct {
	AggregateModel
	PatientID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Balance   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName specifies the table name
func (AdvanceBalanceModel) TableName() string {
	return "advance_balances"
}

// ToDomain converts the model to a domain advance balance
func (m *AdvanceBalanceModel) ToDomain() *patient.AdvanceBalance {
	return &patient.AdvanceBalance{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		PatientID: m.PatientID,
		Balance:   m.Balance,
	}
}

// FromDomain populates the model from a domain advance balance
func (m *AdvanceBalanceModel) FromDomain(ab *patient.AdvanceBalance) {
	m.ID = ab.ID
	m.CreatedAt = ab.CreatedAt
	m.UpdatedAt = ab.UpdatedAt
	m.Version = ab.Version
	m.PatientID = ab.PatientID
	m.Balance = ab.Balance
}

// AdvanceBalanceModelFromDomain creates a model from a domain advance balance
func AdvanceBalanceModelFromDomain(ab *patient.AdvanceBalance) *AdvanceBalanceModel {
	m := &AdvanceBalanceModel{}
	m.FromDomain(ab)
	return m
}

// AdvanceTransactionModel is the GORM model for the advance wallet ledger.
// Rows are append-only; corrections are new rows, never updates.
type AdvanceTransactionModel struct {
	BaseModel
	PatientID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	TransactionType string          `gorm:"type:varchar(20);not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceBefore   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceAfter    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SourceType      string          `gorm:"type:varchar(20);not null"`
	SourceID        *string         `gorm:"type:varchar(100);index"`
	Remark          string          `gorm:"type:varchar(500)"`
	PerformedBy     *uuid.UUID      `gorm:"type:uuid"`
	TransactionDate time.Time       `gorm:"not null;index"`
}

// TableName specifies the table name
func (AdvanceTransactionModel) TableName() string {
	return "advance_transactions"
}

// ToDomain converts the model to a domain advance transaction
func (m *AdvanceTransactionModel) ToDomain() *patient.AdvanceTransaction {
	return &patient.AdvanceTransaction{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		PatientID:       m.PatientID,
		TransactionType: patient.AdvanceTransactionType(m.TransactionType),
		Amount:          m.Amount,
		BalanceBefore:   m.BalanceBefore,
		BalanceAfter:    m.BalanceAfter,
		SourceType:      patient.AdvanceSourceType(m.SourceType),
		SourceID:        m.SourceID,
		Remark:          m.Remark,
		PerformedBy:     m.PerformedBy,
		TransactionDate: m.TransactionDate,
	}
}

// FromDomain populates the model from a domain advance transaction
func (m *AdvanceTransactionModel) FromDomain(tx *patient.AdvanceTransaction) {
	m.ID = tx.ID
	m.CreatedAt = tx.CreatedAt
	m.UpdatedAt = tx.UpdatedAt
	m.PatientID = tx.PatientID
	m.TransactionType = tx.TransactionType.String()
	m.Amount = tx.Amount
	m.BalanceBefore = tx.BalanceBefore
	m.BalanceAfter = tx.BalanceAfter
	m.SourceType = string(tx.SourceType)
	m.SourceID = tx.SourceID
	m.Remark = tx.Remark
	m.PerformedBy = tx.PerformedBy
	m.TransactionDate = tx.TransactionDate
}

// AdvanceTransactionModelFromDomain creates a model from a domain advance transaction
func AdvanceTransactionModelFromDomain(tx *patient.AdvanceTransaction) *AdvanceTransactionModel {
	m := &AdvanceTransactionModel{}
	m.FromDomain(tx)
	return m
}
