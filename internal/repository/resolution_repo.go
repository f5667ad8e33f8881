package repository

import (
	"context"

	"labcaixa/internal/model"

	"gorm.io/gorm"
)

// ResolutionRepository is append-only: the interface deliberately has no
// Update or Delete, mirroring the audit guarantee in the data model.
type ResolutionRepository interface {
	Append(ctx context.Context, res *model.ReconciliationResolution) error
	List(ctx context.Context, unitID, correlationCode string, limit int) ([]model.ReconciliationResolution, error)
}

type resolutionRepo struct{ db *gorm.DB }

func NewResolutionRepository(db *gorm.DB) ResolutionRepository { return &resolutionRepo{db: db} }

func (r *resolutionRepo) Append(ctx context.Context, res *model.ReconciliationResolution) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *resolutionRepo) List(ctx context.Context, unitID, correlationCode string, limit int) ([]model.ReconciliationResolution, error) {
	q := r.db.WithContext(ctx).Where("unit_id = ?", unitID)
	if correlationCode != "" {
		q = q.Where("correlation_code = ?", correlationCode)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []model.ReconciliationResolution
	err := q.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
