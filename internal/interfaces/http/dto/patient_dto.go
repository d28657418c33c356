package dto

import (
	"time"

	"github.com/hims/backend/internal/domain/patient"
)

// RegisterPatientRequest is the body for registering a patient
type RegisterPatientRequest struct {
	MRN   string `json:"mrn" binding:"required,max=50"`
	Name  string `json:"name" binding:"required,max=200"`
	Phone string `json:"phone" binding:"omitempty,max=20"`
}

// PatientResponse represents a patient in API responses
type PatientResponse struct {
	ID        string    `json:"id"`
	MRN       string    `json:"mrn"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PatientResponseFromDomain builds a PatientResponse
func PatientResponseFromDomain(p *patient.Patient) PatientResponse {
	return PatientResponse{
		ID:        p.GetID().String(),
		MRN:       p.MRN,
		Name:      p.Name,
		Phone:     p.Phone,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
