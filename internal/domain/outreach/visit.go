package outreach

import (
	"time"

	"github.com/google/uuid"
)

// Status is the per-(patient, agent) outreach state:
//
//	none → notified → visited
//
// StatusNone is never stored; it is the absence of any VisitAttempt for
// the pair.
type Status string

const (
	StatusNone     Status = "none"
	StatusNotified Status = "notified"
	StatusVisited  Status = "visited"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusNotified, StatusVisited:
		return true
	}
	return false
}

// rank orders statuses for transition checks. A transition never moves to
// a lower rank.
func (s Status) rank() int {
	switch s {
	case StatusVisited:
		return 2
	case StatusNotified:
		return 1
	default:
		return 0
	}
}

// CanAdvanceTo reports whether recording newStatus after s is a real state
// change. Equal or lower states are idempotent no-ops, handled by callers.
func (s Status) CanAdvanceTo(newStatus Status) bool {
	return newStatus.rank() == s.rank()+1
}

// VisitAttempt is one entry in the append-only outreach event log. Rows
// are never updated or deleted; the effective state for a (patient, agent)
// pair is the most recent row.
type VisitAttempt struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index:idx_visits_pair"`
	AgentID   uuid.UUID `gorm:"column:agent_id;type:uuid;not null;index:idx_visits_pair"`

	Status Status `gorm:"column:status;type:varchar(20);not null"`
}

func (VisitAttempt) TableName() string {
	return "outreach.community_visits"
}
