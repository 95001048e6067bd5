package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saudecomunitaria/buscativa/internal/domain"
	"github.com/saudecomunitaria/buscativa/internal/domain/outreach"
	"github.com/saudecomunitaria/buscativa/pkg/metrics"
)

// OutreachService is the contact-attempt state machine. Per (patient,
// agent) pair the effective state walks none → notified → visited over an
// append-only event log; the latest row per pair is the read model.
type OutreachService struct {
	repo      outreach.Repository
	workList  *WorkListService
	auditSvc  *AuditService
	collector *metrics.Collector
	log       *zap.Logger
}

func NewOutreachService(
	repo outreach.Repository,
	workList *WorkListService,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *OutreachService {
	return &OutreachService{
		repo:      repo,
		workList:  workList,
		auditSvc:  auditSvc,
		collector: collector,
		log:       log,
	}
}

// MarkNotified records that the agent reached out to the patient.
// Re-invoking for a pair already notified (or visited) is a no-op: the
// observable effect is at-least-once, never a downgrade. The patient must
// still be on the current work-list; acting on a stale card fails with
// ErrStaleReference.
func (s *OutreachService) MarkNotified(ctx context.Context, patientID uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) error {
	if callerID == uuid.Nil {
		return ErrUnauthenticated
	}
	if !callerRole.CanRecordOutreach() {
		return ErrForbidden
	}

	onList, err := s.workList.OnWorkList(ctx, patientID)
	if err != nil {
		return err
	}
	if !onList {
		return ErrStaleReference
	}

	latest, err := s.repo.LatestForPair(ctx, patientID, callerID)
	if err != nil {
		return fmt.Errorf("reading outreach status: %w", err)
	}
	if !latest.CanAdvanceTo(outreach.StatusNotified) {
		// Already notified or visited: idempotent from the caller's view.
		return nil
	}

	return s.record(ctx, patientID, callerID, callerRole, outreach.StatusNotified, ip)
}

// MarkVisited records a completed home visit. It requires a prior
// notification for the same pair; the log never skips states. Re-marking
// a visited pair is a no-op.
func (s *OutreachService) MarkVisited(ctx context.Context, patientID uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) error {
	if callerID == uuid.Nil {
		return ErrUnauthenticated
	}
	if !callerRole.CanRecordOutreach() {
		return ErrForbidden
	}

	latest, err := s.repo.LatestForPair(ctx, patientID, callerID)
	if err != nil {
		return fmt.Errorf("reading outreach status: %w", err)
	}
	switch latest {
	case outreach.StatusVisited:
		return nil
	case outreach.StatusNone:
		return outreach.ErrNotNotified
	}

	return s.record(ctx, patientID, callerID, callerRole, outreach.StatusVisited, ip)
}

// LatestStatus answers the per-agent query contract: the pair's current
// state, StatusNone when the agent never contacted the patient. Two
// agents tracking the same patient never see each other's attempts.
func (s *OutreachService) LatestStatus(ctx context.Context, patientID, agentID uuid.UUID) (outreach.Status, error) {
	return s.repo.LatestForPair(ctx, patientID, agentID)
}

// History exposes the stored event log for a pair, oldest first. The
// work-list collapses notified and visited, but the history keeps them
// distinguishable.
func (s *OutreachService) History(ctx context.Context, patientID, agentID uuid.UUID) ([]*outreach.VisitAttempt, error) {
	return s.repo.History(ctx, patientID, agentID)
}

func (s *OutreachService) record(ctx context.Context, patientID, agentID uuid.UUID, callerRole domain.Role, status outreach.Status, ip string) error {
	v := &outreach.VisitAttempt{
		PatientID: patientID,
		AgentID:   agentID,
		Status:    status,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return fmt.Errorf("recording visit attempt: %w", err)
	}

	if s.collector != nil {
		s.collector.VisitsRecordedTotal.WithLabelValues(string(status)).Inc()
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       agentID,
		UserRole:     string(callerRole),
		Action:       "create",
		ResourceType: "visit_attempt",
		ResourceID:   v.ID.String(),
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"patient_id":%q,"status":%q}`, patientID, status),
	})

	s.log.Info("visit attempt recorded",
		zap.String("patient_id", patientID.String()),
		zap.String("agent_id", agentID.String()),
		zap.String("status", string(status)),
	)

	return nil
}
