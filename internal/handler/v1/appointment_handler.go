package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/saudecomunitaria/buscativa/internal/domain/appointment"
	"github.com/saudecomunitaria/buscativa/internal/domain/patient"
	"github.com/saudecomunitaria/buscativa/internal/service"
)

type AppointmentHandler struct {
	apptSvc *service.AppointmentService
}

func NewAppointmentHandler(apptSvc *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{apptSvc: apptSvc}
}

type scheduleAppointmentRequest struct {
	PatientID   string    `json:"patient_id" binding:"required"`
	DoctorID    string    `json:"doctor_id" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Notes       string    `json:"notes"`

	// Priority optionally sets the patient's manual override in the same
	// request. "auto" clears an existing override.
	Priority string `json:"priority"`
}

type appointmentResponse struct {
	ID                 string     `json:"id"`
	PatientID          string     `json:"patient_id"`
	DoctorID           string     `json:"doctor_id"`
	ScheduledAt        time.Time  `json:"scheduled_at"`
	Status             string     `json:"status"`
	Notes              string     `json:"notes,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type pagedAppointmentsResponse struct {
	Appointments []appointmentResponse `json:"appointments"`
	TotalCount   int64                 `json:"total_count"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	TotalPages   int                   `json:"total_pages"`
}

func toAppointmentResponse(a *appointment.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:                 a.ID.String(),
		PatientID:          a.PatientID.String(),
		DoctorID:           a.DoctorID.String(),
		ScheduledAt:        a.ScheduledAt,
		Status:             string(a.Status),
		Notes:              a.Notes,
		CancelledAt:        a.CancelledAt,
		CancellationReason: a.CancellationReason,
		CompletedAt:        a.CompletedAt,
		CreatedAt:          a.CreatedAt,
	}
}

func (h *AppointmentHandler) Schedule(c *gin.Context) {
	var req scheduleAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "patient_id must be a valid UUID")
		return
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "doctor_id must be a valid UUID")
		return
	}

	cmd := &service.ScheduleCommand{
		CreateAppointmentCommand: appointment.CreateAppointmentCommand{
			PatientID:   patientID,
			DoctorID:    doctorID,
			ScheduledAt: req.ScheduledAt,
			Notes:       req.Notes,
			CreatedBy:   callerID(c),
		},
	}

	switch req.Priority {
	case "":
		// leave the override alone
	case "auto":
		cmd.SetAutomatic = true
	default:
		p := patient.Priority(req.Priority)
		if !p.IsValid() {
			respondServiceError(c, patient.ErrInvalidPriority)
			return
		}
		cmd.Priority = &p
	}

	a, err := h.apptSvc.ScheduleAppointment(c.Request.Context(), cmd, callerID(c), callerRole(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, toAppointmentResponse(a))
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.apptSvc.GetAppointment(c.Request.Context(), id, callerID(c), callerRole(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, toAppointmentResponse(a))
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	status := appointment.AppointmentStatus(req.Status)
	if !status.IsValid() {
		respondServiceError(c, appointment.ErrInvalidStatus)
		return
	}

	a, err := h.apptSvc.UpdateStatus(c.Request.Context(), id, status, req.Reason, callerID(c), callerRole(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, toAppointmentResponse(a))
}

func (h *AppointmentHandler) List(c *gin.Context) {
	q := &appointment.ListAppointmentsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}

	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "patient_id must be a valid UUID")
			return
		}
		q.PatientID = &id
	}
	if raw := c.Query("doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "doctor_id must be a valid UUID")
			return
		}
		q.DoctorID = &id
	}
	if raw := c.Query("status"); raw != "" {
		st := appointment.AppointmentStatus(raw)
		if !st.IsValid() {
			respondServiceError(c, appointment.ErrInvalidStatus)
			return
		}
		q.Status = &st
	}
	if raw := c.Query("date_from"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "date_from must be YYYY-MM-DD")
			return
		}
		q.DateFrom = &t
	}
	if raw := c.Query("date_to"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "date_to must be YYYY-MM-DD")
			return
		}
		q.DateTo = &t
	}

	paged, err := h.apptSvc.ListAppointments(c.Request.Context(), q, callerRole(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := pagedAppointmentsResponse{
		Appointments: make([]appointmentResponse, 0, len(paged.Appointments)),
		TotalCount:   paged.TotalCount,
		Page:         paged.Page,
		PageSize:     paged.PageSize,
		TotalPages:   paged.TotalPages,
	}
	for _, a := range paged.Appointments {
		resp.Appointments = append(resp.Appointments, toAppointmentResponse(a))
	}

	respondOK(c, resp)
}
