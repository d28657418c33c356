package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BillModel is the GORM model for bills
type BillModel struct {
	AuditedAggregateModel
	BillNumber       string          `gorm:"type:varchar(50);uniqueIndex;not null"`
	BillType         string          `gorm:"type:varchar(20);not null;index"`
	PatientID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	AdmissionID      *string         `gorm:"type:varchar(100);index"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AdvanceApplied   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	InsuranceCovered decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PaidAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DueAmount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentStatus    string          `gorm:"type:varchar(20);not null;default:'pending';index"`
	Remark           string          `gorm:"type:varchar(500)"`
	PaidAt           *time.Time      `gorm:""`
}

// TableName specifies the table name
func (BillModel) TableName() string {
	return "bills"
}

// ToDomain converts the model to a domain bill
func (m *BillModel) ToDomain() *billing.Bill {
	return &billing.Bill{
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
		BillNumber:       m.BillNumber,
		BillType:         billing.BillType(m.BillType),
		PatientID:        m.PatientID,
		AdmissionID:      m.AdmissionID,
		TotalAmount:      m.TotalAmount,
		AdvanceApplied:   m.AdvanceApplied,
		InsuranceCovered: m.InsuranceCovered,
		PaidAmount:       m.PaidAmount,
		DueAmount:        m.DueAmount,
		PaymentStatus:    billing.BillingStatus(m.PaymentStatus),
		Remark:           m.Remark,
		PaidAt:           m.PaidAt,
	}
}

// FromDomain populates the model from a domain bill
func (m *BillModel) FromDomain(b *billing.Bill) {
	m.ID = b.ID
	m.CreatedAt = b.CreatedAt
	m.UpdatedAt = b.UpdatedAt
	m.Version = b.Version
	m.CreatedBy = b.CreatedBy
	m.BillNumber = b.BillNumber
	m.BillType = b.BillType.String()
	m.PatientID = b.PatientID
	m.AdmissionID = b.AdmissionID
	m.TotalAmount = b.TotalAmount
	m.AdvanceApplied = b.AdvanceApplied
	m.InsuranceCovered = b.InsuranceCovered
	m.PaidAmount = b.PaidAmount
	m.DueAmount = b.DueAmount
	m.PaymentStatus = b.PaymentStatus.String()
	m.Remark = b.Remark
	m.PaidAt = b.PaidAt
}

// BillModelFromDomain creates a model from a domain bill
func BillModelFromDomain(b *billing.Bill) *BillModel {
	m := &BillModel{}
	m.FromDomain(b)
	return m
}

// PaymentModel is the GORM model for payments.
// BillID is the canonical bill identifier as a string, which for legacy IPD
// records is an admission id rather than a bill uuid.
type PaymentModel struct {
	AggregateModel
	PaymentNumber string          `gorm:"type:varchar(50);uniqueIndex;not null"`
	PatientID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	BillType      *string         `gorm:"type:varchar(20)"`
	BillID        *string         `gorm:"type:varchar(100);index"`
	PaymentType   string          `gorm:"type:varchar(20);not null"`
	PaymentMethod string          `gorm:"type:varchar(20);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TransactionID string          `gorm:"type:varchar(100)"`
	BankName      string          `gorm:"type:varchar(100)"`
	ChequeNumber  string          `gorm:"type:varchar(50)"`
	ChequeDate    *time.Time      `gorm:""`
	Status        string          `gorm:"type:varchar(20);not null;default:'completed';index"`
	RefundOfID    *uuid.UUID      `gorm:"type:uuid;index"`
	RefundReason  string          `gorm:"type:varchar(500)"`
	ReceivedBy    uuid.UUID       `gorm:"type:uuid;not null"`
	RefundedAt    *time.Time      `gorm:""`
	Remark        string          `gorm:"type:varchar(500)"`
}

// TableName specifies the table name
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the model to a domain payment
func (m *PaymentModel) ToDomain() *billing.Payment {
	var billType *billing.BillType
	if m.BillType != nil {
		bt := billing.BillType(*m.BillType)
		billType = &bt
	}

	return &billing.Payment{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		PaymentNumber: m.PaymentNumber,
		PatientID:     m.PatientID,
		BillType:      billType,
		BillID:        m.BillID,
		PaymentType:   billing.PaymentType(m.PaymentType),
		PaymentMethod: billing.PaymentMethod(m.PaymentMethod),
		Amount:        m.Amount,
		Details: billing.MethodDetails{
			TransactionID: m.TransactionID,
			BankName:      m.BankName,
			ChequeNumber:  m.ChequeNumber,
			ChequeDate:    m.ChequeDate,
		},
		Status:       billing.PaymentStatus(m.Status),
		RefundOfID:   m.RefundOfID,
		RefundReason: m.RefundReason,
		ReceivedBy:   m.ReceivedBy,
		RefundedAt:   m.RefundedAt,
		Remark:       m.Remark,
	}
}

// FromDomain populates the model from a domain payment
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.ID = p.ID
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
	m.Version = p.Version
	m.PaymentNumber = p.PaymentNumber
	m.PatientID = p.PatientID
	if p.BillType != nil {
		bt := p.BillType.String()
		m.BillType = &bt
	} else {
		m.BillType = nil
	}
	m.BillID = p.BillID
	m.PaymentType = p.PaymentType.String()
	m.PaymentMethod = p.PaymentMethod.String()
	m.Amount = p.Amount
	m.TransactionID = p.Details.TransactionID
	m.BankName = p.Details.BankName
	m.ChequeNumber = p.Details.ChequeNumber
	m.ChequeDate = p.Details.ChequeDate
	m.Status = string(p.Status)
	m.RefundOfID = p.RefundOfID
	m.RefundReason = p.RefundReason
	m.ReceivedBy = p.ReceivedBy
	m.RefundedAt = p.RefundedAt
	m.Remark = p.Remark
}

// PaymentModelFromDomain creates a model from a domain payment
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}
