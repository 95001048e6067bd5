package outreach

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create appends a visit attempt to the event log. Existing rows are
	// never modified.
	Create(ctx context.Context, v *VisitAttempt) error

	// LatestForPair returns the most recent attempt status for the
	// (patient, agent) pair, or StatusNone when the pair has no history.
	LatestForPair(ctx context.Context, patientID, agentID uuid.UUID) (Status, error)

	// LatestByAgent returns the most recent status per patient for one
	// agent. Patients the agent never contacted are absent from the map.
	LatestByAgent(ctx context.Context, agentID uuid.UUID) (map[uuid.UUID]Status, error)

	// History returns the full event log for a pair, oldest first.
	History(ctx context.Context, patientID, agentID uuid.UUID) ([]*VisitAttempt, error)
}
