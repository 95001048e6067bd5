package triage

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saudecomunitaria/buscativa/internal/domain/appointment"
	"github.com/saudecomunitaria/buscativa/internal/domain/patient"
)

// LatePatientRecord is one row of the late-patient work-list: a derived,
// non-persisted view combining patient identity, the overdue calculation,
// and the surrounding appointment dates.
type LatePatientRecord struct {
	PatientID uuid.UUID `json:"patient_id"`
	FullName  string    `json:"full_name"`
	CNS       string    `json:"cns,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`

	ManualPriority *patient.Priority `json:"manual_priority,omitempty"`

	// DaysOverdue is nil iff the patient has no overdue follow-up cycle;
	// such patients appear only when a manual priority is set.
	DaysOverdue        *int       `json:"days_overdue,omitempty"`
	ReturnDeadlineDate *time.Time `json:"return_deadline_date,omitempty"`

	NextAppointmentDate *time.Time `json:"next_appointment_date,omitempty"`

	Priority Resolution `json:"priority"`
}

// BuildProjection computes the ordered late-patient work-list over a
// snapshot of patients and their appointments.
//
// Only patients with a positive overdue count or a manual override are
// included: the projection is a work-list, not a census. Records that
// cannot be computed are skipped and logged, never failing the batch.
//
// Ordering: effective severity descending, then days overdue descending,
// then full name ascending for stability.
func BuildProjection(patients []*patient.Patient, appts []*appointment.Appointment, defaultIntervalDays int, now time.Time, log *zap.Logger) []LatePatientRecord {
	if log == nil {
		log = zap.NewNop()
	}

	byPatient := make(map[uuid.UUID][]*appointment.Appointment, len(patients))
	for _, a := range appts {
		byPatient[a.PatientID] = append(byPatient[a.PatientID], a)
	}

	records := make([]LatePatientRecord, 0, len(patients))
	for _, p := range patients {
		rec, ok := buildRecord(p, byPatient[p.ID], defaultIntervalDays, now, log)
		if !ok {
			continue
		}
		if rec.DaysOverdue == nil && rec.ManualPriority == nil {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		ri, rj := records[i], records[j]
		if ri.Priority.Tier.Rank() != rj.Priority.Tier.Rank() {
			return ri.Priority.Tier.Rank() > rj.Priority.Tier.Rank()
		}
		di, dj := overdueOrZero(ri.DaysOverdue), overdueOrZero(rj.DaysOverdue)
		if di != dj {
			return di > dj
		}
		return ri.FullName < rj.FullName
	})

	return records
}

func buildRecord(p *patient.Patient, appts []*appointment.Appointment, defaultIntervalDays int, now time.Time, log *zap.Logger) (LatePatientRecord, bool) {
	var lastCompleted *time.Time
	var nextScheduled *time.Time

	for _, a := range appts {
		switch a.Status {
		case appointment.StatusCompleted:
			if a.ScheduledAt.IsZero() {
				// One bad record must not blank the whole work-list.
				log.Warn("skipping patient with undated completed appointment",
					zap.String("patient_id", p.ID.String()),
					zap.String("appointment_id", a.ID.String()),
				)
				return LatePatientRecord{}, false
			}
			if lastCompleted == nil || a.ScheduledAt.After(*lastCompleted) {
				t := a.ScheduledAt
				lastCompleted = &t
			}
		case appointment.StatusScheduled:
			if a.ScheduledAt.After(now) {
				if nextScheduled == nil || a.ScheduledAt.Before(*nextScheduled) {
					t := a.ScheduledAt
					nextScheduled = &t
				}
			}
		}
	}

	daysOverdue, deadline := ComputeOverdue(lastCompleted, p.EnrolledAt, p.Interval(defaultIntervalDays), now)

	return LatePatientRecord{
		PatientID:           p.ID,
		FullName:            p.FullName,
		CNS:                 p.CNS,
		Phone:               p.Phone,
		Address:             p.Address,
		Latitude:            p.Latitude,
		Longitude:           p.Longitude,
		ManualPriority:      p.ManualPriority,
		DaysOverdue:         daysOverdue,
		ReturnDeadlineDate:  deadline,
		NextAppointmentDate: nextScheduled,
		Priority:            Resolve(daysOverdue, p.ManualPriority),
	}, true
}

func overdueOrZero(d *int) int {
	if d == nil {
		return 0
	}
	return *d
}
