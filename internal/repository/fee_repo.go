package repository

import (
	"context"
	"errors"

	"labcaixa/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FeeRepository reads the card fee schedule. The rate is re-fetched on every
// totals computation — no caching, the finance team may change it intraday.
type FeeRepository interface {
	// FindRate returns the configured rate for unit+channel, or nil when no
	// schedule row exists (caller falls back to the configured default).
	FindRate(ctx context.Context, unitID, channel string) (*decimal.Decimal, error)
}

type feeRepo struct{ db *gorm.DB }

func NewFeeRepository(db *gorm.DB) FeeRepository { return &feeRepo{db: db} }

func (r *feeRepo) FindRate(ctx context.Context, unitID, channel string) (*decimal.Decimal, error) {
	var fee model.FeeSchedule
	err := r.db.WithContext(ctx).
		Where("unit_id = ? AND channel = ?", unitID, channel).
		First(&fee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fee.Rate, nil
}
