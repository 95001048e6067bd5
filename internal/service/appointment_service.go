package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saudecomunitaria/buscativa/internal/domain"
	"github.com/saudecomunitaria/buscativa/internal/domain/appointment"
	"github.com/saudecomunitaria/buscativa/internal/domain/patient"
	"github.com/saudecomunitaria/buscativa/pkg/metrics"
)

type AppointmentService struct {
	repo        appointment.Repository
	patientRepo patient.Repository
	auditSvc    *AuditService
	collector   *metrics.Collector
	log         *zap.Logger
}

func NewAppointmentService(
	repo appointment.Repository,
	patientRepo patient.Repository,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{repo: repo, patientRepo: patientRepo, auditSvc: auditSvc, collector: collector, log: log}
}

// ScheduleCommand wraps appointment creation with the optional priority
// override the scheduling form carries: the clinician can pin the
// patient's territory priority in the same gesture, or reset it to
// automatic.
type ScheduleCommand struct {
	appointment.CreateAppointmentCommand

	// Priority, when non-nil, is written to the patient as the manual
	// override. SetAutomatic clears the override instead.
	Priority     *patient.Priority
	SetAutomatic bool
}

func (s *AppointmentService) ScheduleAppointment(
	ctx context.Context,
	cmd *ScheduleCommand,
	callerID uuid.UUID,
	callerRole domain.Role,
	ip string,
) (*appointment.Appointment, error) {
	if !callerRole.CanManagePatients() {
		return nil, ErrForbidden
	}
	if cmd.ScheduledAt.Before(time.Now()) {
		return nil, appointment.ErrScheduledInPast
	}
	if cmd.Priority != nil && !cmd.Priority.IsValid() {
		return nil, patient.ErrInvalidPriority
	}

	p, err := s.patientRepo.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}
	if !p.IsActive() {
		return nil, fmt.Errorf("patient is not active")
	}

	a := &appointment.Appointment{
		PatientID:   cmd.PatientID,
		DoctorID:    cmd.DoctorID,
		ScheduledAt: cmd.ScheduledAt,
		Status:      appointment.StatusScheduled,
		Notes:       cmd.Notes,
		CreatedBy:   cmd.CreatedBy,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	// Priority override travels with the scheduling gesture. Last write
	// wins; the storage transaction is the only coordination.
	if cmd.Priority != nil || cmd.SetAutomatic {
		if err := s.patientRepo.SetManualPriority(ctx, cmd.PatientID, cmd.Priority); err != nil {
			s.log.Error("failed to set manual priority during scheduling",
				zap.String("patient_id", cmd.PatientID.String()),
				zap.Error(err),
			)
			return nil, fmt.Errorf("setting manual priority: %w", err)
		}
	}

	if s.collector != nil {
		s.collector.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     string(callerRole),
		Action:       "create",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
	})

	return a, nil
}

func (s *AppointmentService) GetAppointment(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "read", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
	})

	return a, nil
}

// UpdateStatus applies a one-way lifecycle transition. Once an
// appointment is completed, cancelled, or marked no-show it never leaves
// that state.
func (s *AppointmentService) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus appointment.AppointmentStatus, reason string, callerID uuid.UUID, callerRole domain.Role, ip string) (*appointment.Appointment, error) {
	if !callerRole.CanManagePatients() {
		return nil, ErrForbidden
	}
	if !newStatus.IsValid() {
		return nil, appointment.ErrInvalidStatus
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch newStatus {
	case appointment.StatusCompleted:
		err = a.Complete()
	case appointment.StatusCancelled:
		err = a.Cancel(reason, callerID)
	case appointment.StatusNoShow:
		err = a.MarkNoShow()
	default:
		err = appointment.ErrInvalidStatusTransition
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}

	if s.collector != nil {
		s.collector.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "update", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"status":%q}`, newStatus),
	})

	return a, nil
}

func (s *AppointmentService) ListAppointments(ctx context.Context, q *appointment.ListAppointmentsQuery, callerRole domain.Role) (*appointment.PagedAppointments, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}
