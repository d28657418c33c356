package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apppatient "github.com/hims/backend/internal/application/patient"
	"github.com/hims/backend/internal/domain/patient"
	"github.com/hims/backend/internal/interfaces/http/dto"
)

// PatientDirectory is the application service surface the patient handler
// depends on
type PatientDirectory interface {
	Register(ctx context.Context, req apppatient.RegisterRequest) (*patient.Patient, error)
	GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	GetByMRN(ctx context.Context, mrn string) (*patient.Patient, error)
}

// PatientHandler handles patient registry API endpoints
type PatientHandler struct {
	BaseHandler
	patients PatientDirectory
}

// NewPatientHandler creates a new PatientHandler
func NewPatientHandler(patients PatientDirectory) *PatientHandler {
	return &PatientHandler{patients: patients}
}

// RegisterRoutes registers patient registry routes
func (h *PatientHandler) RegisterRoutes(rg *gin.RouterGroup) {
	patients := rg.Group("/patients")
	{
		patients.POST("", h.RegisterPatient)
		patients.GET("/:id", h.GetPatient)
		patients.GET("/mrn/:mrn", h.GetPatientByMRN)
	}
}

// RegisterPatient creates a new patient record
func (h *PatientHandler) RegisterPatient(c *gin.Context) {
	var req dto.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "X-User-ID header is required")
		return
	}

	p, err := h.patients.Register(c.Request.Context(), apppatient.RegisterRequest{
		MRN:   req.MRN,
		Name:  req.Name,
		Phone: req.Phone,
		Actor: actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.PatientResponseFromDomain(p))
}

// GetPatient returns the patient named in the path
func (h *PatientHandler) GetPatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid patient id")
		return
	}

	p, err := h.patients.GetByID(c.Request.Context(), patientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.PatientResponseFromDomain(p))
}

// GetPatientByMRN returns the patient with the given medical record number
func (h *PatientHandler) GetPatientByMRN(c *gin.Context) {
	mrn := c.Param("mrn")
	if mrn == "" {
		h.BadRequest(c, "mrn is required")
		return
	}

	p, err := h.patients.GetByMRN(c.Request.Context(), mrn)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.PatientResponseFromDomain(p))
}
