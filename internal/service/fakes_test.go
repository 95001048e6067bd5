package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saudecomunitaria/buscativa/internal/domain"
	"github.com/saudecomunitaria/buscativa/internal/domain/appointment"
	"github.com/saudecomunitaria/buscativa/internal/domain/outreach"
	"github.com/saudecomunitaria/buscativa/internal/domain/patient"
)

// In-memory fakes backing the service tests. They honor the repository
// contracts (sentinel errors, latest-per-pair semantics) without a
// database.

type fakePatientRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*patient.Patient
}

func newFakePatientRepo(ps ...*patient.Patient) *fakePatientRepo {
	r := &fakePatientRepo{patients: make(map[uuid.UUID]*patient.Patient)}
	for _, p := range ps {
		r.patients[p.ID] = p
	}
	return r
}

func (r *fakePatientRepo) Create(_ context.Context, p *patient.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.patients {
		if existing.CNS == p.CNS {
			return patient.ErrPatientAlreadyExists
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.patients[p.ID] = p
	return nil
}

func (r *fakePatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (r *fakePatientRepo) GetByCNS(_ context.Context, cns string) (*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if p.CNS == cns {
			return p, nil
		}
	}
	return nil, patient.ErrPatientNotFound
}

func (r *fakePatientRepo) Update(_ context.Context, id uuid.UUID, _ *patient.UpdatePatientCommand) (*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (r *fakePatientRepo) SetManualPriority(_ context.Context, id uuid.UUID, priority *patient.Priority) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return patient.ErrPatientNotFound
	}
	p.ManualPriority = priority
	return nil
}

func (r *fakePatientRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return patient.ErrPatientNotFound
	}
	now := time.Now()
	p.DeletedAt = &now
	return nil
}

func (r *fakePatientRepo) List(_ context.Context, _ *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	return nil, errors.New("not implemented in fake")
}

func (r *fakePatientRepo) ListActive(_ context.Context) ([]*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*patient.Patient, 0, len(r.patients))
	for _, p := range r.patients {
		if p.IsActive() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePatientRepo) ExistsByCNS(_ context.Context, cns string, excludeID *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if p.CNS == cns && (excludeID == nil || p.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

type fakeApptRepo struct {
	mu    sync.Mutex
	appts []*appointment.Appointment
}

func (r *fakeApptRepo) Create(_ context.Context, a *appointment.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	r.appts = append(r.appts, a)
	return nil
}

func (r *fakeApptRepo) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, appointment.ErrAppointmentNotFound
}

func (r *fakeApptRepo) List(_ context.Context, _ *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	return nil, errors.New("not implemented in fake")
}

func (r *fakeApptRepo) UpdateStatus(_ context.Context, a *appointment.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.appts {
		if existing.ID == a.ID {
			r.appts[i] = a
			return nil
		}
	}
	return appointment.ErrAppointmentNotFound
}

func (r *fakeApptRepo) ListByPatientIDs(_ context.Context, patientIDs []uuid.UUID) ([]*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[uuid.UUID]struct{}, len(patientIDs))
	for _, id := range patientIDs {
		wanted[id] = struct{}{}
	}
	var out []*appointment.Appointment
	for _, a := range r.appts {
		if _, ok := wanted[a.PatientID]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeVisitRepo struct {
	mu       sync.Mutex
	attempts []*outreach.VisitAttempt
}

func (r *fakeVisitRepo) Create(_ context.Context, v *outreach.VisitAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v.ID = uuid.New()
	v.CreatedAt = time.Now()
	r.attempts = append(r.attempts, v)
	return nil
}

func (r *fakeVisitRepo) LatestForPair(_ context.Context, patientID, agentID uuid.UUID) (outreach.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest := outreach.StatusNone
	for _, v := range r.attempts {
		if v.PatientID == patientID && v.AgentID == agentID {
			latest = v.Status
		}
	}
	return latest, nil
}

func (r *fakeVisitRepo) LatestByAgent(_ context.Context, agentID uuid.UUID) (map[uuid.UUID]outreach.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]outreach.Status)
	for _, v := range r.attempts {
		if v.AgentID == agentID {
			out[v.PatientID] = v.Status
		}
	}
	return out, nil
}

func (r *fakeVisitRepo) History(_ context.Context, patientID, agentID uuid.UUID) ([]*outreach.VisitAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*outreach.VisitAttempt
	for _, v := range r.attempts {
		if v.PatientID == patientID && v.AgentID == agentID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeVisitRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}
