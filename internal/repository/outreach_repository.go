package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saudecomunitaria/buscativa/internal/domain/outreach"
)

// OutreachRepository persists the append-only visit-attempt log. Rows are
// inserted, never updated; the latest row per (patient, agent) pair is
// the read model.
type OutreachRepository struct {
	db *gorm.DB
}

func NewOutreachRepository(db *gorm.DB) *OutreachRepository {
	return &OutreachRepository{db: db}
}

func (r *OutreachRepository) Create(ctx context.Context, v *outreach.VisitAttempt) error {
	if !v.Status.IsValid() {
		return outreach.ErrInvalidStatus
	}
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *OutreachRepository) LatestForPair(ctx context.Context, patientID, agentID uuid.UUID) (outreach.Status, error) {
	var v outreach.VisitAttempt
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND agent_id = ?", patientID, agentID).
		Order("created_at DESC").
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return outreach.StatusNone, nil
	}
	if err != nil {
		return outreach.StatusNone, err
	}
	return v.Status, nil
}

func (r *OutreachRepository) LatestByAgent(ctx context.Context, agentID uuid.UUID) (map[uuid.UUID]outreach.Status, error) {
	var rows []outreach.VisitAttempt
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (patient_id) patient_id, agent_id, status, created_at
		     FROM outreach.community_visits
		     WHERE agent_id = ?
		     ORDER BY patient_id, created_at DESC`, agentID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	statuses := make(map[uuid.UUID]outreach.Status, len(rows))
	for _, v := range rows {
		statuses[v.PatientID] = v.Status
	}
	return statuses, nil
}

func (r *OutreachRepository) History(ctx context.Context, patientID, agentID uuid.UUID) ([]*outreach.VisitAttempt, error) {
	var rows []*outreach.VisitAttempt
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND agent_id = ?", patientID, agentID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
