package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saudecomunitaria/buscativa/internal/domain"
	"github.com/saudecomunitaria/buscativa/internal/domain/appointment"
	"github.com/saudecomunitaria/buscativa/internal/domain/outreach"
	"github.com/saudecomunitaria/buscativa/internal/domain/patient"
)

type outreachFixture struct {
	svc       *OutreachService
	worklist  *WorkListService
	visitRepo *fakeVisitRepo

	overdueID uuid.UUID
	currentID uuid.UUID
}

// newOutreachFixture wires the services over fakes with one overdue
// patient (45 days late) and one patient seen last week.
func newOutreachFixture(t *testing.T) *outreachFixture {
	t.Helper()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	overdue := &patient.Patient{
		ID:       uuid.New(),
		FullName: "Rosa Almeida",
		CNS:      "700000000000001",
		Status:   patient.StatusActive,
		ContactInfo: patient.ContactInfo{
			Phone: "(11) 98888-0001",
		},
	}
	current := &patient.Patient{
		ID:       uuid.New(),
		FullName: "Sergio Lima",
		CNS:      "700000000000002",
		Status:   patient.StatusActive,
	}

	apptRepo := &fakeApptRepo{}
	apptRepo.appts = []*appointment.Appointment{
		{ID: uuid.New(), PatientID: overdue.ID, Status: appointment.StatusCompleted, ScheduledAt: now.AddDate(0, 0, -75)},
		{ID: uuid.New(), PatientID: current.ID, Status: appointment.StatusCompleted, ScheduledAt: now.AddDate(0, 0, -7)},
	}

	visitRepo := &fakeVisitRepo{}
	log := zap.NewNop()
	auditSvc := NewAuditService(&fakeAuditRepo{}, nil, log)
	t.Cleanup(auditSvc.Shutdown)

	worklist := NewWorkListService(newFakePatientRepo(overdue, current), apptRepo, visitRepo, 30, "55", nil, log)
	worklist.now = func() time.Time { return now }

	return &outreachFixture{
		svc:       NewOutreachService(visitRepo, worklist, auditSvc, nil, log),
		worklist:  worklist,
		visitRepo: visitRepo,
		overdueID: overdue.ID,
		currentID: current.ID,
	}
}

func TestMarkNotifiedRecordsAttempt(t *testing.T) {
	f := newOutreachFixture(t)
	agent := uuid.New()
	ctx := context.Background()

	require.NoError(t, f.svc.MarkNotified(ctx, f.overdueID, agent, domain.RoleAgent, "10.0.0.1"))

	status, err := f.svc.LatestStatus(ctx, f.overdueID, agent)
	require.NoError(t, err)
	assert.Equal(t, outreach.StatusNotified, status)
	assert.Equal(t, 1, f.visitRepo.count())
}

func TestMarkNotifiedIsIdempotent(t *testing.T) {
	f := newOutreachFixture(t)
	agent := uuid.New()
	ctx := context.Background()

	require.NoError(t, f.svc.MarkNotified(ctx, f.overdueID, agent, domain.RoleAgent, "10.0.0.1"))
	require.NoError(t, f.svc.MarkNotified(ctx, f.overdueID, agent, domain.RoleAgent, "10.0.0.1"))

	// The second call observed the existing state and wrote nothing.
	assert.Equal(t, 1, f.visitRepo.count())
}

func TestMarkNotifiedNeverDowngradesVisited(t *testing.T) {
	f := newOutreachFixture(t)
	agent := uuid.New()
	ctx := context.Background()

	require.NoError(t, f.svc.MarkNotified(ctx, f.overdueID, agent, domain.RoleAgent, ""))
	require.NoError(t, f.svc.MarkVisited(ctx, f.overdueID, agent, domain.RoleAgent, ""))
	require.NoError(t, f.svc.MarkNotified(ctx, f.overdueID, agent, domain.RoleAgent, ""))

	status, err := f.svc.LatestStatus(ctx, f.overdueID, agent)
	require.NoError(t, err)
	assert.Equal(t, outreach.StatusVisited, status)
}

func TestMarkVisitedRequiresPriorNotification(t *testing.T) {
	f := newOutreachFixture(t)
	agent := uuid.New()

	err := f.svc.MarkVisited(context.Background(), f.overdueID, agent, domain.RoleAgent, "")
	assert.ErrorIs(t, err, outreach.ErrNotNotified)
	assert.Equal(t, 0, f.visitRepo.count())
}

func TestMarkVisitedIsIdempotent(t *testing.T) {
	f := newOutreachFixture(t)
	agent := uuid.New()
	ctx := context.Background()

	require.NoError(t, f.svc.MarkNotified(ctx, f.overdueID, agent, domain.RoleAgent, ""))
	require.NoError(t, f.svc.MarkVisited(ctx, f.overdueID, agent, domain.RoleAgent, ""))
	require.NoError(t, f.svc.MarkVisited(ctx, f.overdueID, agent, domain.RoleAgent, ""))

	assert.Equal(t, 2, f.visitRepo.count())
}

func TestMarkNotifiedStaleReference(t *testing.T) {
	f := newOutreachFixture(t)
	agent := uuid.New()

	// Seen recently, so not on the work-list: acting on an old card fails.
	err := f.svc.MarkNotified(context.Background(), f.currentID, agent, domain.RoleAgent, "")
	assert.ErrorIs(t, err, ErrStaleReference)
}

func TestOutreachIsolatedPerAgent(t *testing.T) {
	f := newOutreachFixture(t)
	agentA := uuid.New()
	agentB := uuid.New()
	ctx := context.Background()

	require.NoError(t, f.svc.MarkNotified(ctx, f.overdueID, agentA, domain.RoleAgent, ""))

	statusB, err := f.svc.LatestStatus(ctx, f.overdueID, agentB)
	require.NoError(t, err)
	assert.Equal(t, outreach.StatusNone, statusB)

	// And agent B must still notify before visiting, regardless of A.
	err = f.svc.MarkVisited(ctx, f.overdueID, agentB, domain.RoleAgent, "")
	assert.ErrorIs(t, err, outreach.ErrNotNotified)
}

func TestOutreachRejectsUnauthenticated(t *testing.T) {
	f := newOutreachFixture(t)

	err := f.svc.MarkNotified(context.Background(), f.overdueID, uuid.Nil, domain.RoleAgent, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	err = f.svc.MarkVisited(context.Background(), f.overdueID, uuid.Nil, domain.RoleAgent, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestOutreachRejectsClinicalRoles(t *testing.T) {
	f := newOutreachFixture(t)
	caller := uuid.New()

	for _, role := range []domain.Role{domain.RoleDoctor, domain.RoleNurse} {
		err := f.svc.MarkNotified(context.Background(), f.overdueID, caller, role, "")
		assert.ErrorIs(t, err, ErrForbidden, "role %s", role)
	}
}

func TestHistoryKeepsBothTransitions(t *testing.T) {
	f := newOutreachFixture(t)
	agent := uuid.New()
	ctx := context.Background()

	require.NoError(t, f.svc.MarkNotified(ctx, f.overdueID, agent, domain.RoleAgent, ""))
	require.NoError(t, f.svc.MarkVisited(ctx, f.overdueID, agent, domain.RoleAgent, ""))

	history, err := f.svc.History(ctx, f.overdueID, agent)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, outreach.StatusNotified, history[0].Status)
	assert.Equal(t, outreach.StatusVisited, history[1].Status)
}
