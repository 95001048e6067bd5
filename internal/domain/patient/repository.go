package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new patient. Returns ErrPatientAlreadyExists on duplicate CNS.
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by primary key. Returns ErrPatientNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// GetByCNS retrieves a patient by their national health card number.
	GetByCNS(ctx context.Context, cns string) (*Patient, error)

	// Update applies partial updates to an existing patient record.
	Update(ctx context.Context, id uuid.UUID, cmd *UpdatePatientCommand) (*Patient, error)

	// SetManualPriority writes the override field. A nil priority clears it,
	// reverting the patient to the computed tier.
	SetManualPriority(ctx context.Context, id uuid.UUID, priority *Priority) error

	// SoftDelete marks the patient as deleted (retention requirement).
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// List returns a paginated, filtered list of patients.
	List(ctx context.Context, q *ListPatientsQuery) (*PagedPatients, error)

	// ListActive returns every active patient. The triage projection is
	// computed over this snapshot.
	ListActive(ctx context.Context) ([]*Patient, error)

	// ExistsByCNS checks for uniqueness without fetching the full record.
	ExistsByCNS(ctx context.Context, cns string, excludeID *uuid.UUID) (bool, error)
}
