package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// UpdateStatus persists a status transition already validated on the entity.
	UpdateStatus(ctx context.Context, a *Appointment) error

	// ListByPatientIDs returns every appointment for the given patients,
	// newest first. The triage projection derives the last completed and
	// next scheduled dates from this snapshot.
	ListByPatientIDs(ctx context.Context, patientIDs []uuid.UUID) ([]*Appointment, error)
}
