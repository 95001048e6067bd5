package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/saudecomunitaria/buscativa/internal/domain/patient"
	"github.com/saudecomunitaria/buscativa/internal/service"
)

type PatientHandler struct {
	patientSvc *service.PatientService
}

func NewPatientHandler(patientSvc *service.PatientService) *PatientHandler {
	return &PatientHandler{patientSvc: patientSvc}
}

type createPatientRequest struct {
	FullName             string   `json:"full_name" binding:"required"`
	DateOfBirth          string   `json:"date_of_birth" binding:"required"` // YYYY-MM-DD
	CNS                  string   `json:"cns" binding:"required"`
	Phone                string   `json:"phone"`
	Address              string   `json:"address"`
	City                 string   `json:"city"`
	State                string   `json:"state"`
	ZipCode              string   `json:"zip_code"`
	Latitude             *float64 `json:"latitude"`
	Longitude            *float64 `json:"longitude"`
	FollowUpIntervalDays int      `json:"follow_up_interval_days"`
	EnrolledAt           *string  `json:"enrolled_at"` // YYYY-MM-DD
	AssignedDoctorID     *string  `json:"assigned_doctor_id"`
	Notes                string   `json:"notes"`
}

type updatePatientRequest struct {
	FullName             *string  `json:"full_name"`
	Phone                *string  `json:"phone"`
	Address              *string  `json:"address"`
	City                 *string  `json:"city"`
	State                *string  `json:"state"`
	ZipCode              *string  `json:"zip_code"`
	Latitude             *float64 `json:"latitude"`
	Longitude            *float64 `json:"longitude"`
	FollowUpIntervalDays *int     `json:"follow_up_interval_days"`
	AssignedDoctorID     *string  `json:"assigned_doctor_id"`
	Notes                *string  `json:"notes"`
}

type patientResponse struct {
	ID                   string    `json:"id"`
	FullName             string    `json:"full_name"`
	DateOfBirth          string    `json:"date_of_birth"`
	CNS                  string    `json:"cns"`
	Phone                string    `json:"phone,omitempty"`
	Address              string    `json:"address,omitempty"`
	City                 string    `json:"city,omitempty"`
	State                string    `json:"state,omitempty"`
	ZipCode              string    `json:"zip_code,omitempty"`
	Latitude             *float64  `json:"latitude,omitempty"`
	Longitude            *float64  `json:"longitude,omitempty"`
	ManualPriority       *string   `json:"manual_priority,omitempty"`
	FollowUpIntervalDays int       `json:"follow_up_interval_days"`
	EnrolledAt           *string   `json:"enrolled_at,omitempty"`
	Status               string    `json:"status"`
	AssignedDoctorID     *string   `json:"assigned_doctor_id,omitempty"`
	Notes                string    `json:"notes,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type pagedPatientsResponse struct {
	Patients   []patientResponse `json:"patients"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

const dateLayout = "2006-01-02"

func toPatientResponse(p *patient.Patient) patientResponse {
	resp := patientResponse{
		ID:                   p.ID.String(),
		FullName:             p.FullName,
		DateOfBirth:          p.DateOfBirth.Format(dateLayout),
		CNS:                  p.CNS,
		Phone:                p.Phone,
		Address:              p.Address,
		City:                 p.City,
		State:                p.State,
		ZipCode:              p.ZipCode,
		Latitude:             p.Latitude,
		Longitude:            p.Longitude,
		FollowUpIntervalDays: p.FollowUpIntervalDays,
		Status:               string(p.Status),
		Notes:                p.Notes,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
	if p.ManualPriority != nil {
		s := string(*p.ManualPriority)
		resp.ManualPriority = &s
	}
	if p.EnrolledAt != nil {
		s := p.EnrolledAt.Format(dateLayout)
		resp.EnrolledAt = &s
	}
	if p.AssignedDoctorID != nil {
		s := p.AssignedDoctorID.String()
		resp.AssignedDoctorID = &s
	}
	return resp
}

func (h *PatientHandler) Create(c *gin.Context) {
	var req createPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	dob, err := time.Parse(dateLayout, req.DateOfBirth)
	if err != nil {
		respondError(c, http.StatusBadRequest, "date_of_birth must be YYYY-MM-DD")
		return
	}

	cmd := &patient.CreatePatientCommand{
		FullName:             req.FullName,
		DateOfBirth:          dob,
		CNS:                  req.CNS,
		Phone:                req.Phone,
		Address:              req.Address,
		City:                 req.City,
		State:                req.State,
		ZipCode:              req.ZipCode,
		Latitude:             req.Latitude,
		Longitude:            req.Longitude,
		FollowUpIntervalDays: req.FollowUpIntervalDays,
		Notes:                req.Notes,
		CreatedBy:            callerID(c),
	}

	if req.EnrolledAt != nil {
		enrolled, err := time.Parse(dateLayout, *req.EnrolledAt)
		if err != nil {
			respondError(c, http.StatusBadRequest, "enrolled_at must be YYYY-MM-DD")
			return
		}
		cmd.EnrolledAt = &enrolled
	}
	if req.AssignedDoctorID != nil {
		doctorID, err := uuid.Parse(*req.AssignedDoctorID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "assigned_doctor_id must be a valid UUID")
			return
		}
		cmd.AssignedDoctorID = &doctorID
	}

	p, err := h.patientSvc.CreatePatient(c.Request.Context(), cmd, callerID(c), callerRole(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, toPatientResponse(p))
}

func (h *PatientHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.patientSvc.GetPatient(c.Request.Context(), id, callerID(c), callerRole(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, toPatientResponse(p))
}

func (h *PatientHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &patient.UpdatePatientCommand{
		FullName:             req.FullName,
		Phone:                req.Phone,
		Address:              req.Address,
		City:                 req.City,
		State:                req.State,
		ZipCode:              req.ZipCode,
		Latitude:             req.Latitude,
		Longitude:            req.Longitude,
		FollowUpIntervalDays: req.FollowUpIntervalDays,
		Notes:                req.Notes,
		UpdatedBy:            callerID(c),
	}
	if req.AssignedDoctorID != nil {
		doctorID, err := uuid.Parse(*req.AssignedDoctorID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "assigned_doctor_id must be a valid UUID")
			return
		}
		cmd.AssignedDoctorID = &doctorID
	}

	p, err := h.patientSvc.UpdatePatient(c.Request.Context(), id, cmd, callerID(c), callerRole(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, toPatientResponse(p))
}

type setPriorityRequest struct {
	// Priority accepts green, yellow, orange, red, or "auto" to clear
	// the override and fall back to the computed tier.
	Priority string `json:"priority" binding:"required"`
}

func (h *PatientHandler) SetPriority(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req setPriorityRequest
	if !bindJSON(c, &req) {
		return
	}

	var override *patient.Priority
	if req.Priority != "auto" {
		p := patient.Priority(req.Priority)
		if !p.IsValid() {
			respondServiceError(c, patient.ErrInvalidPriority)
			return
		}
		override = &p
	}

	if err := h.patientSvc.SetManualPriority(c.Request.Context(), id, override, callerID(c), callerRole(c), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"patient_id": id, "priority": req.Priority})
}

func (h *PatientHandler) Deactivate(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.patientSvc.DeactivatePatient(c.Request.Context(), id, callerID(c), callerRole(c), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"patient_id": id, "status": string(patient.StatusInactive)})
}

func (h *PatientHandler) List(c *gin.Context) {
	q := &patient.ListPatientsQuery{
		Search:    c.Query("search"),
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "page_size", 20),
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if raw := c.Query("status"); raw != "" {
		st := patient.Status(raw)
		q.Status = &st
	}

	paged, err := h.patientSvc.ListPatients(c.Request.Context(), q, callerID(c), callerRole(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := pagedPatientsResponse{
		Patients:   make([]patientResponse, 0, len(paged.Patients)),
		TotalCount: paged.TotalCount,
		Page:       paged.Page,
		PageSize:   paged.PageSize,
		TotalPages: paged.TotalPages,
	}
	for _, p := range paged.Patients {
		resp.Patients = append(resp.Patients, toPatientResponse(p))
	}

	respondOK(c, resp)
}
