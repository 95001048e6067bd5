package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority is the severity tier used across the territory views: card
// borders, map markers, and work-list ordering.
type Priority string

const (
	PriorityGreen  Priority = "green"
	PriorityYellow Priority = "yellow"
	PriorityOrange Priority = "orange"
	PriorityRed    Priority = "red"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityGreen, PriorityYellow, PriorityOrange, PriorityRed:
		return true
	}
	return false
}

// Rank orders priorities for sorting: red sorts above orange, and so on.
func (p Priority) Rank() int {
	switch p {
	case PriorityRed:
		return 3
	case PriorityOrange:
		return 2
	case PriorityYellow:
		return 1
	default:
		return 0
	}
}

// Status represents the lifecycle state of a patient record.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDeceased Status = "deceased"
)

type ContactInfo struct {
	Phone   string `gorm:"column:phone;type:varchar(20)"`
	Address string `gorm:"column:address;type:text"`
	City    string `gorm:"column:city;type:varchar(100)"`
	State   string `gorm:"column:state;type:varchar(50)"`
	ZipCode string `gorm:"column:zip_code;type:varchar(20)"`
}

type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"` // Soft Delete

	FullName    string    `gorm:"column:full_name;type:varchar(200);not null"`
	DateOfBirth time.Time `gorm:"column:date_of_birth"`

	// CNS is the Cartão Nacional de Saúde, the Brazilian national health
	// card number.
	CNS string `gorm:"column:cns;type:varchar(20);uniqueIndex"`

	ContactInfo

	// Home coordinates for the territory map. Nil when the address was
	// never geocoded.
	Latitude  *float64 `gorm:"column:latitude"`
	Longitude *float64 `gorm:"column:longitude"`

	// ManualPriority, when set by clinical staff, overrides the computed
	// severity tier for display and ordering. It never changes how many
	// days overdue the patient actually is.
	ManualPriority *Priority `gorm:"column:manual_priority;type:varchar(10)"`

	// FollowUpIntervalDays is how long after a completed appointment the
	// patient is expected back. Zero means the program default applies.
	FollowUpIntervalDays int `gorm:"column:follow_up_interval_days;default:0"`

	// EnrolledAt stands in for the last completed appointment when the
	// patient has never completed one.
	EnrolledAt *time.Time `gorm:"column:enrolled_at"`

	Status           Status     `gorm:"column:status;type:varchar(20);default:'active';index"`
	AssignedDoctorID *uuid.UUID `gorm:"column:assigned_doctor_id;type:uuid;index"`
	Notes            string     `gorm:"column:notes;type:text"` // PHI

	// Audit: who registered this patient and when
	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

func (p *Patient) IsActive() bool {
	return p.Status == StatusActive && p.DeletedAt == nil
}

func (p *Patient) HasPhone() bool {
	return strings.TrimSpace(p.Phone) != ""
}

// Interval resolves the effective follow-up interval given the program default.
func (p *Patient) Interval(defaultDays int) int {
	if p.FollowUpIntervalDays > 0 {
		return p.FollowUpIntervalDays
	}
	return defaultDays
}

func (p *Patient) Deactivate() error {
	if p.Status == StatusDeceased {
		return ErrPatientDeceased
	}
	p.Status = StatusInactive
	return nil
}

func (p *Patient) MarkDeceased() {
	p.Status = StatusDeceased
}

type CreatePatientCommand struct {
	FullName             string
	DateOfBirth          time.Time
	CNS                  string
	Phone                string
	Address              string
	City                 string
	State                string
	ZipCode              string
	Latitude             *float64
	Longitude            *float64
	FollowUpIntervalDays int
	EnrolledAt           *time.Time
	AssignedDoctorID     *uuid.UUID
	Notes                string
	CreatedBy            uuid.UUID
}

type UpdatePatientCommand struct {
	FullName             *string
	Phone                *string
	Address              *string
	City                 *string
	State                *string
	ZipCode              *string
	Latitude             *float64
	Longitude            *float64
	FollowUpIntervalDays *int
	AssignedDoctorID     *uuid.UUID
	Notes                *string
	UpdatedBy            uuid.UUID
}

// ListPatientsQuery defines filtering and pagination for patient list queries.
type ListPatientsQuery struct {
	Search           string // matches name or CNS
	Status           *Status
	AssignedDoctorID *uuid.UUID
	Page             int
	PageSize         int
	SortBy           string
	SortOrder        string // "asc" | "desc"
}

type PagedPatients struct {
	Patients   []*Patient
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
