package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saudecomunitaria/buscativa/internal/domain/appointment"
	"github.com/saudecomunitaria/buscativa/internal/domain/outreach"
	"github.com/saudecomunitaria/buscativa/internal/domain/patient"
	"github.com/saudecomunitaria/buscativa/internal/notify"
	"github.com/saudecomunitaria/buscativa/internal/triage"
	"github.com/saudecomunitaria/buscativa/pkg/metrics"
)

// WorkItem is one card on an agent's territory list: the projection row
// plus that agent's outreach state for the patient.
type WorkItem struct {
	triage.LatePatientRecord

	OutreachStatus outreach.Status `json:"outreach_status"`

	// Contacted suppresses the notify call-to-action. Both notified and
	// visited set it; the raw status stays available for callers that
	// need to tell the two apart.
	Contacted bool `json:"contacted"`
}

// ContactCard is the composer output for one patient: the message text
// and the deep link that hands it to the external channel.
type ContactCard struct {
	PatientID uuid.UUID `json:"patient_id"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	Link      string    `json:"link"`
}

type WorkListService struct {
	patientRepo patient.Repository
	apptRepo    appointment.Repository
	visitRepo   outreach.Repository

	defaultIntervalDays int
	countryCode         string

	collector *metrics.Collector
	log       *zap.Logger

	// now is swapped in tests for a fixed clock.
	now func() time.Time
}

func NewWorkListService(
	patientRepo patient.Repository,
	apptRepo appointment.Repository,
	visitRepo outreach.Repository,
	defaultIntervalDays int,
	countryCode string,
	collector *metrics.Collector,
	log *zap.Logger,
) *WorkListService {
	return &WorkListService{
		patientRepo:         patientRepo,
		apptRepo:            apptRepo,
		visitRepo:           visitRepo,
		defaultIntervalDays: defaultIntervalDays,
		countryCode:         countryCode,
		collector:           collector,
		log:                 log,
		now:                 time.Now,
	}
}

// snapshot fetches patients plus appointments and computes the projection.
// Each call sees a fresh snapshot; the computation itself is pure and
// side-effect-free, so callers may rebuild on any schedule.
func (s *WorkListService) snapshot(ctx context.Context) ([]triage.LatePatientRecord, error) {
	patients, err := s.patientRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(patients))
	for _, p := range patients {
		ids = append(ids, p.ID)
	}

	appts, err := s.apptRepo.ListByPatientIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}

	records := triage.BuildProjection(patients, appts, s.defaultIntervalDays, s.now(), s.log)

	if s.collector != nil {
		s.collector.WorkListBuildsTotal.Inc()
		s.collector.WorkListSize.Set(float64(len(records)))
	}

	return records, nil
}

// BuildWorkList returns the territory work-list for one agent, ordered by
// effective priority, annotated with that agent's outreach progress.
func (s *WorkListService) BuildWorkList(ctx context.Context, agentID uuid.UUID) ([]WorkItem, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	statuses, err := s.visitRepo.LatestByAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("loading visit statuses: %w", err)
	}

	items := make([]WorkItem, 0, len(records))
	for _, rec := range records {
		status, ok := statuses[rec.PatientID]
		if !ok {
			status = outreach.StatusNone
		}
		items = append(items, WorkItem{
			LatePatientRecord: rec,
			OutreachStatus:    status,
			Contacted:         status == outreach.StatusNotified || status == outreach.StatusVisited,
		})
	}

	return items, nil
}

// Directory returns the projection re-sorted by name with an optional
// search filter on name or CNS, for the communication screen.
func (s *WorkListService) Directory(ctx context.Context, search string) ([]triage.LatePatientRecord, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if search != "" {
		needle := strings.ToLower(search)
		filtered := records[:0]
		for _, rec := range records {
			if strings.Contains(strings.ToLower(rec.FullName), needle) || strings.Contains(rec.CNS, search) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].FullName < records[j].FullName
	})

	return records, nil
}

// OnWorkList reports whether the patient currently appears on the
// work-list. Outreach actions against patients who dropped off are stale.
func (s *WorkListService) OnWorkList(ctx context.Context, patientID uuid.UUID) (bool, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return false, err
	}
	for _, rec := range records {
		if rec.PatientID == patientID {
			return true, nil
		}
	}
	return false, nil
}

// Contact composes the WhatsApp message and deep link for a patient on
// the work-list. Patients without a phone number get notify.ErrNoPhone,
// a refusal the caller renders, not a failure.
func (s *WorkListService) Contact(ctx context.Context, patientID uuid.UUID) (*ContactCard, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var rec *triage.LatePatientRecord
	for i := range records {
		if records[i].PatientID == patientID {
			rec = &records[i]
			break
		}
	}
	if rec == nil {
		return nil, ErrStaleReference
	}

	message := notify.FollowUpMessage(rec.FullName, rec.DaysOverdue, rec.NextAppointmentDate)
	link, err := notify.WhatsAppLink(s.countryCode, rec.Phone, message)
	if err != nil {
		return nil, err
	}

	return &ContactCard{
		PatientID: rec.PatientID,
		Phone:     rec.Phone,
		Message:   message,
		Link:      link,
	}, nil
}
