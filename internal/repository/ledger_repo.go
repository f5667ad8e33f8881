package repository

import (
	"context"
	"errors"
	"time"

	"labcaixa/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LedgerRepository interface {
	Create(ctx context.Context, t *model.LedgerTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.LedgerTransaction, error)
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	// ListApproved returns approved, non-deleted entries for the matcher.
	ListApproved(ctx context.Context, unitID string, from, to time.Time) ([]model.LedgerTransaction, error)
	// StampCorrelation sets the code with origin=manual, only when the
	// transaction has no code yet. Returns rows affected (0 = already linked).
	StampCorrelation(ctx context.Context, id uuid.UUID, code string) (int64, error)
}

type ledgerRepo struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) LedgerRepository { return &ledgerRepo{db: db} }

func (r *ledgerRepo) Create(ctx context.Context, t *model.LedgerTransaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *ledgerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.LedgerTransaction, error) {
	var t model.LedgerTransaction
	err := r.db.WithContext(ctx).First(&t, id).Error
	return &t, err
}

func (r *ledgerRepo) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var t model.LedgerTransaction
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *ledgerRepo) ListApproved(ctx context.Context, unitID string, from, to time.Time) ([]model.LedgerTransaction, error) {
	var txns []model.LedgerTransaction
	err := r.db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Where("approved = true AND deleted = false").
		Where("entry_date BETWEEN ? AND ?", from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("entry_date ASC, external_id ASC").
		Find(&txns).Error
	return txns, err
}

func (r *ledgerRepo) StampCorrelation(ctx context.Context, id uuid.UUID, code string) (int64, error) {
	origin := model.OriginManual
	res := r.db.WithContext(ctx).Model(&model.LedgerTransaction{}).
		Where("id = ? AND correlation_code IS NULL", id).
		Updates(map[string]interface{}{
			"correlation_code": code,
			"code_origin":      origin,
		})
	return res.RowsAffected, res.Error
}
