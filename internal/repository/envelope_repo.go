package repository

import (
	"context"
	"time"

	"labcaixa/internal/dto"
	"labcaixa/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type EnvelopeRepository interface {
	CreateTx(tx *gorm.DB, e *model.Envelope) error
	// CountForUnitDateTx counts envelopes already sealed for unit+date inside
	// the seal transaction. The result seeds the sequence number; the unique
	// index on (unit_id, batch_date, sequence) is the actual guard.
	CountForUnitDateTx(tx *gorm.DB, unitID string, date time.Time) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Envelope, error)
	// MarkLabelIssued performs the one-shot conditional update. Returns the
	// number of rows affected: 0 means the label was already issued.
	MarkLabelIssued(ctx context.Context, id uuid.UUID, actorID uuid.UUID, at time.Time) (int64, error)
	SetLabelPath(ctx context.Context, id uuid.UUID, path string) error
	ListPendingReview(ctx context.Context, filter dto.ReviewFilter) ([]model.Envelope, int64, error)
	// MarkReviewed performs the terminal transition conditionally; 0 rows
	// affected means the envelope was already reviewed (idempotent for the
	// caller) or does not exist.
	MarkReviewed(ctx context.Context, id uuid.UUID, status string, actorID uuid.UUID, at time.Time) (int64, error)
	CreateNote(ctx context.Context, n *model.EnvelopeNote) error
	CreateNoteTx(tx *gorm.DB, n *model.EnvelopeNote) error
	Stats(ctx context.Context, unitID string) (*dto.ReviewStatsResponse, error)
	DB() *gorm.DB
}

type envelopeRepo struct{ db *gorm.DB }

func NewEnvelopeRepository(db *gorm.DB) EnvelopeRepository { return &envelopeRepo{db: db} }

func (r *envelopeRepo) DB() *gorm.DB { return r.db }

func (r *envelopeRepo) CreateTx(tx *gorm.DB, e *model.Envelope) error {
	return tx.Create(e).Error
}

func (r *envelopeRepo) CountForUnitDateTx(tx *gorm.DB, unitID string, date time.Time) (int64, error) {
	var count int64
	err := tx.Model(&model.Envelope{}).
		Where("unit_id = ? AND batch_date = ?", unitID, date.Format("2006-01-02")).
		Count(&count).Error
	return count, err
}

func (r *envelopeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Envelope, error) {
	var e model.Envelope
	err := r.db.WithContext(ctx).
		Preload("Records").
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&e, id).Error
	return &e, err
}

func (r *envelopeRepo) MarkLabelIssued(ctx context.Context, id uuid.UUID, actorID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Envelope{}).
		Where("id = ? AND label_issued_at IS NULL", id).
		Updates(map[string]interface{}{
			"label_issued_at": at,
			"label_issued_by": actorID,
		})
	return res.RowsAffected, res.Error
}

func (r *envelopeRepo) SetLabelPath(ctx context.Context, id uuid.UUID, path string) error {
	return r.db.WithContext(ctx).Model(&model.Envelope{}).
		Where("id = ?", id).Update("label_path", path).Error
}

func (r *envelopeRepo) ListPendingReview(ctx context.Context, filter dto.ReviewFilter) ([]model.Envelope, int64, error) {
	var envelopes []model.Envelope
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Envelope{}).
		Where("status IN ?", []string{model.EnvelopePending, model.EnvelopeIssued})
	if filter.UnitID != "" {
		q = q.Where("unit_id = ?", filter.UnitID)
	}
	if filter.From != "" {
		q = q.Where("batch_date >= ?", filter.From)
	}
	if filter.To != "" {
		q = q.Where("batch_date <= ?", filter.To)
	}
	if filter.OnlyWithDiff {
		q = q.Where("has_difference = true")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("batch_date ASC, sequence ASC").
		Offset(offset).Limit(filter.Limit).
		Find(&envelopes).Error
	return envelopes, total, err
}

func (r *envelopeRepo) MarkReviewed(ctx context.Context, id uuid.UUID, status string, actorID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Envelope{}).
		Where("id = ? AND status IN ?", id, []string{model.EnvelopePending, model.EnvelopeIssued}).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_at": at,
			"reviewed_by": actorID,
		})
	return res.RowsAffected, res.Error
}

func (r *envelopeRepo) CreateNote(ctx context.Context, n *model.EnvelopeNote) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *envelopeRepo) CreateNoteTx(tx *gorm.DB, n *model.EnvelopeNote) error {
	return tx.Create(n).Error
}

func (r *envelopeRepo) Stats(ctx context.Context, unitID string) (*dto.ReviewStatsResponse, error) {
	stats := &dto.ReviewStatsResponse{
		PendingValue:    decimal.Zero,
		TotalDifference: decimal.Zero,
	}
	open := []string{model.EnvelopePending, model.EnvelopeIssued}

	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.Envelope{})
		if unitID != "" {
			q = q.Where("unit_id = ?", unitID)
		}
		return q
	}

	if err := base().Where("status IN ?", open).Count(&stats.PendingCount).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status IN ? AND has_difference = true", open).
		Count(&stats.WithDifferenceCount).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status IN ? AND DATE(reviewed_at) = CURRENT_DATE",
		[]string{model.EnvelopeReviewed, model.EnvelopeReviewedDiff}).
		Count(&stats.ReviewedTodayCount).Error; err != nil {
		return nil, err
	}

	type sums struct {
		PendingValue    decimal.Decimal
		TotalDifference decimal.Decimal
	}
	var s sums
	err := base().Where("status IN ?", open).
		Select("COALESCE(SUM(expected_cash), 0) AS pending_value, COALESCE(SUM(difference), 0) AS total_difference").
		Scan(&s).Error
	if err != nil {
		return nil, err
	}
	stats.PendingValue = s.PendingValue
	stats.TotalDifference = s.TotalDifference
	return stats, nil
}
