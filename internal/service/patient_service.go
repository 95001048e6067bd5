package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saudecomunitaria/buscativa/internal/domain"
	"github.com/saudecomunitaria/buscativa/internal/domain/patient"
	"github.com/saudecomunitaria/buscativa/pkg/metrics"
)

type PatientService struct {
	repo      patient.Repository
	auditSvc  *AuditService
	collector *metrics.Collector
	log       *zap.Logger
}

func NewPatientService(repo patient.Repository, auditSvc *AuditService, collector *metrics.Collector, log *zap.Logger) *PatientService {
	return &PatientService{
		repo:      repo,
		auditSvc:  auditSvc,
		collector: collector,
		log:       log,
	}
}

func (s *PatientService) CreatePatient(ctx context.Context, cmd *patient.CreatePatientCommand, callerID uuid.UUID, callerRole domain.Role, ip string) (*patient.Patient, error) {
	if !callerRole.CanManagePatients() {
		return nil, ErrForbidden
	}
	if err := validateCreateCommand(cmd); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByCNS(ctx, cmd.CNS, nil)
	if err != nil {
		s.log.Error("failed to check CNS uniqueness", zap.Error(err))
		return nil, fmt.Errorf("checking uniqueness: %w", err)
	}
	if exists {
		return nil, patient.ErrPatientAlreadyExists
	}

	p := &patient.Patient{
		FullName:    strings.TrimSpace(cmd.FullName),
		DateOfBirth: cmd.DateOfBirth,
		CNS:         strings.TrimSpace(cmd.CNS),
		ContactInfo: patient.ContactInfo{
			Phone:   strings.TrimSpace(cmd.Phone),
			Address: cmd.Address,
			City:    cmd.City,
			State:   cmd.State,
			ZipCode: cmd.ZipCode,
		},
		Latitude:             cmd.Latitude,
		Longitude:            cmd.Longitude,
		FollowUpIntervalDays: cmd.FollowUpIntervalDays,
		EnrolledAt:           cmd.EnrolledAt,
		AssignedDoctorID:     cmd.AssignedDoctorID,
		Notes:                cmd.Notes,
		Status:               patient.StatusActive,
		CreatedBy:            cmd.CreatedBy,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to create patient", zap.Error(err))
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	if s.collector != nil {
		s.collector.PatientsCreatedTotal.Inc()
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     string(callerRole),
		Action:       "create",
		ResourceType: "patient",
		ResourceID:   p.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("patient created",
		zap.String("patient_id", p.ID.String()),
		zap.String("created_by", callerID.String()),
	)

	return p, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) (*patient.Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     string(callerRole),
		Action:       "read",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return p, nil
}

func (s *PatientService) UpdatePatient(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand, callerID uuid.UUID, callerRole domain.Role, ip string) (*patient.Patient, error) {
	if !callerRole.CanManagePatients() {
		return nil, ErrForbidden
	}

	p, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     string(callerRole),
		Action:       "update",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return p, nil
}

// SetManualPriority writes or clears the clinician override. A nil
// priority reverts the patient to the automatically computed tier. The
// override changes ordering and display only; days overdue stay whatever
// the calculator says.
func (s *PatientService) SetManualPriority(ctx context.Context, id uuid.UUID, priority *patient.Priority, callerID uuid.UUID, callerRole domain.Role, ip string) error {
	if !callerRole.CanManagePatients() {
		return ErrForbidden
	}
	if priority != nil && !priority.IsValid() {
		return patient.ErrInvalidPriority
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.SetManualPriority(ctx, id, priority); err != nil {
		return fmt.Errorf("setting manual priority: %w", err)
	}

	changed := "null"
	if priority != nil {
		changed = string(*priority)
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     string(callerRole),
		Action:       "update",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"manual_priority":%q}`, changed),
	})

	return nil
}

func (s *PatientService) DeactivatePatient(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) error {
	if !callerRole.CanManagePatients() {
		return ErrForbidden
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := p.Deactivate(); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     string(callerRole),
		Action:       "delete",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return s.repo.SoftDelete(ctx, id)
}

func (s *PatientService) ListPatients(ctx context.Context, q *patient.ListPatientsQuery, callerID uuid.UUID, callerRole domain.Role) (*patient.PagedPatients, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	return s.repo.List(ctx, q)
}

func validateCreateCommand(cmd *patient.CreatePatientCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.FullName) == "" {
		errs = append(errs, "full_name is required")
	}
	if strings.TrimSpace(cmd.CNS) == "" {
		errs = append(errs, "cns is required")
	}
	if !cmd.DateOfBirth.IsZero() && cmd.DateOfBirth.After(time.Now()) {
		errs = append(errs, "date_of_birth cannot be in the future")
	}
	if cmd.FollowUpIntervalDays < 0 {
		errs = append(errs, "follow_up_interval_days cannot be negative")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
