package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saudecomunitaria/buscativa/internal/domain/appointment"
	"github.com/saudecomunitaria/buscativa/internal/domain/outreach"
	"github.com/saudecomunitaria/buscativa/internal/domain/patient"
	"github.com/saudecomunitaria/buscativa/internal/notify"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func overduePatient(name, cns, phone string, daysLate int) (*patient.Patient, *appointment.Appointment) {
	p := &patient.Patient{
		ID:       uuid.New(),
		FullName: name,
		CNS:      cns,
		Status:   patient.StatusActive,
		ContactInfo: patient.ContactInfo{
			Phone: phone,
		},
	}
	a := &appointment.Appointment{
		ID:          uuid.New(),
		PatientID:   p.ID,
		Status:      appointment.StatusCompleted,
		ScheduledAt: fixedNow.AddDate(0, 0, -(30 + daysLate)),
	}
	return p, a
}

func newWorkListFixture(patients []*patient.Patient, appts []*appointment.Appointment, visitRepo *fakeVisitRepo) *WorkListService {
	if visitRepo == nil {
		visitRepo = &fakeVisitRepo{}
	}
	apptRepo := &fakeApptRepo{appts: appts}

	svc := NewWorkListService(newFakePatientRepo(patients...), apptRepo, visitRepo, 30, "55", nil, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestBuildWorkListAnnotatesOutreach(t *testing.T) {
	p1, a1 := overduePatient("Rosa Almeida", "700000000000001", "(11) 98888-0001", 40)
	p2, a2 := overduePatient("Sergio Lima", "700000000000002", "", 10)

	agent := uuid.New()
	visitRepo := &fakeVisitRepo{}
	svc := newWorkListFixture([]*patient.Patient{p1, p2}, []*appointment.Appointment{a1, a2}, visitRepo)

	require.NoError(t, visitRepo.Create(context.Background(), &outreach.VisitAttempt{
		PatientID: p1.ID, AgentID: agent, Status: outreach.StatusNotified,
	}))

	items, err := svc.BuildWorkList(context.Background(), agent)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Severity ordering holds: 40 days red before 10 days yellow.
	assert.Equal(t, p1.ID, items[0].PatientID)
	assert.Equal(t, outreach.StatusNotified, items[0].OutreachStatus)
	assert.True(t, items[0].Contacted)

	assert.Equal(t, p2.ID, items[1].PatientID)
	assert.Equal(t, outreach.StatusNone, items[1].OutreachStatus)
	assert.False(t, items[1].Contacted)
}

func TestBuildWorkListContactedCoversVisited(t *testing.T) {
	p, a := overduePatient("Rosa Almeida", "700000000000001", "", 20)
	agent := uuid.New()

	visitRepo := &fakeVisitRepo{}
	ctx := context.Background()
	require.NoError(t, visitRepo.Create(ctx, &outreach.VisitAttempt{PatientID: p.ID, AgentID: agent, Status: outreach.StatusNotified}))
	require.NoError(t, visitRepo.Create(ctx, &outreach.VisitAttempt{PatientID: p.ID, AgentID: agent, Status: outreach.StatusVisited}))

	svc := newWorkListFixture([]*patient.Patient{p}, []*appointment.Appointment{a}, visitRepo)

	items, err := svc.BuildWorkList(ctx, agent)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, outreach.StatusVisited, items[0].OutreachStatus)
	assert.True(t, items[0].Contacted)
}

func TestBuildWorkListAgentsDoNotShareProgress(t *testing.T) {
	p, a := overduePatient("Rosa Almeida", "700000000000001", "", 20)
	agentA := uuid.New()
	agentB := uuid.New()

	visitRepo := &fakeVisitRepo{}
	ctx := context.Background()
	require.NoError(t, visitRepo.Create(ctx, &outreach.VisitAttempt{PatientID: p.ID, AgentID: agentA, Status: outreach.StatusNotified}))

	svc := newWorkListFixture([]*patient.Patient{p}, []*appointment.Appointment{a}, visitRepo)

	items, err := svc.BuildWorkList(ctx, agentB)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].Contacted)
}

func TestDirectorySortsByName(t *testing.T) {
	p1, a1 := overduePatient("Zilda Costa", "700000000000001", "", 40)
	p2, a2 := overduePatient("Amanda Dias", "700000000000002", "", 5)

	svc := newWorkListFixture([]*patient.Patient{p1, p2}, []*appointment.Appointment{a1, a2}, nil)

	records, err := svc.Directory(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Name order, not severity order.
	assert.Equal(t, "Amanda Dias", records[0].FullName)
	assert.Equal(t, "Zilda Costa", records[1].FullName)
}

func TestDirectorySearch(t *testing.T) {
	p1, a1 := overduePatient("Zilda Costa", "700123450000001", "", 40)
	p2, a2 := overduePatient("Amanda Dias", "700999990000002", "", 5)

	svc := newWorkListFixture([]*patient.Patient{p1, p2}, []*appointment.Appointment{a1, a2}, nil)
	ctx := context.Background()

	// Case-insensitive name match.
	records, err := svc.Directory(ctx, "zilda")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Zilda Costa", records[0].FullName)

	// CNS substring match.
	records, err = svc.Directory(ctx, "99999")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Amanda Dias", records[0].FullName)

	// No hits.
	records, err = svc.Directory(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestContactComposesCardWithLink(t *testing.T) {
	p, a := overduePatient("Rosa Almeida", "700000000000001", "(11) 98888-0001", 15)

	svc := newWorkListFixture([]*patient.Patient{p}, []*appointment.Appointment{a}, nil)

	card, err := svc.Contact(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, p.ID, card.PatientID)
	assert.Contains(t, card.Message, "Rosa Almeida")
	assert.Contains(t, card.Message, "15 dias")
	assert.Contains(t, card.Link, "https://wa.me/5511988880001?text=")
}

func TestContactNoPhoneIsRefusal(t *testing.T) {
	p, a := overduePatient("Rosa Almeida", "700000000000001", "", 15)

	svc := newWorkListFixture([]*patient.Patient{p}, []*appointment.Appointment{a}, nil)

	_, err := svc.Contact(context.Background(), p.ID)
	assert.ErrorIs(t, err, notify.ErrNoPhone)
}

func TestContactStaleReference(t *testing.T) {
	p, a := overduePatient("Rosa Almeida", "700000000000001", "(11) 98888-0001", 15)

	svc := newWorkListFixture([]*patient.Patient{p}, []*appointment.Appointment{a}, nil)

	_, err := svc.Contact(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrStaleReference)
}

func TestOnWorkList(t *testing.T) {
	late, lateAppt := overduePatient("Rosa Almeida", "700000000000001", "", 15)
	seen, seenAppt := overduePatient("Sergio Lima", "700000000000002", "", 0)
	seenAppt.ScheduledAt = fixedNow.AddDate(0, 0, -3)

	svc := newWorkListFixture([]*patient.Patient{late, seen}, []*appointment.Appointment{lateAppt, seenAppt}, nil)
	ctx := context.Background()

	on, err := svc.OnWorkList(ctx, late.ID)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = svc.OnWorkList(ctx, seen.ID)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestWorkListExcludesInactivePatients(t *testing.T) {
	active, aAppt := overduePatient("Rosa Almeida", "700000000000001", "", 40)
	inactive, iAppt := overduePatient("Sergio Lima", "700000000000002", "", 40)
	inactive.Status = patient.StatusInactive

	svc := newWorkListFixture([]*patient.Patient{active, inactive}, []*appointment.Appointment{aAppt, iAppt}, nil)

	items, err := svc.BuildWorkList(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, active.ID, items[0].PatientID)
}
