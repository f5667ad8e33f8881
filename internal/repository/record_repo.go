package repository

import (
	"context"
	"time"

	"labcaixa/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecordRepository interface {
	Create(ctx context.Context, r *model.ServiceRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ServiceRecord, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.ServiceRecord, error)
	ExistsByUnitCode(ctx context.Context, unitID, externalCode string) (bool, error)
	// FindEligible returns pending records for the unit whose payment method
	// belongs to the channel and that are not yet linked to an envelope.
	FindEligible(ctx context.Context, unitID, channel string, date *time.Time) ([]model.ServiceRecord, error)
	// FindByIDsForUpdateTx re-reads the records inside tx with a row lock, so
	// the seal precondition and the final link see the same snapshot.
	FindByIDsForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.ServiceRecord, error)
	// LinkToEnvelopeTx marks the records paid and attaches the envelope, all
	// inside the caller's transaction.
	LinkToEnvelopeTx(tx *gorm.DB, ids []uuid.UUID, envelopeID uuid.UUID) (int64, error)
	// ListCashEquivalent returns records settled at point of service (cash,
	// pix, card) for the reconciliation matcher.
	ListCashEquivalent(ctx context.Context, unitID string, from, to time.Time) ([]model.ServiceRecord, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type recordRepo struct{ db *gorm.DB }

func NewRecordRepository(db *gorm.DB) RecordRepository { return &recordRepo{db: db} }

func (r *recordRepo) DB() *gorm.DB { return r.db }

func (r *recordRepo) Create(ctx context.Context, rec *model.ServiceRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *recordRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ServiceRecord, error) {
	var rec model.ServiceRecord
	err := r.db.WithContext(ctx).First(&rec, id).Error
	return &rec, err
}

func (r *recordRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.ServiceRecord, error) {
	var recs []model.ServiceRecord
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&recs).Error
	return recs, err
}

func (r *recordRepo) ExistsByUnitCode(ctx context.Context, unitID, externalCode string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ServiceRecord{}).
		Where("unit_id = ? AND external_code = ?", unitID, externalCode).
		Count(&count).Error
	return count > 0, err
}

func (r *recordRepo) FindEligible(ctx context.Context, unitID, channel string, date *time.Time) ([]model.ServiceRecord, error) {
	methods := model.MethodsForChannel(channel)
	q := r.db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Where("payment_method IN ?", methods).
		Where("payment_status = ?", model.StatusPending).
		Where("envelope_id IS NULL")
	if date != nil {
		q = q.Where("service_date = ?", date.Format("2006-01-02"))
	}
	var recs []model.ServiceRecord
	err := q.Order("service_date ASC, external_code ASC").Find(&recs).Error
	return recs, err
}

func (r *recordRepo) FindByIDsForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.ServiceRecord, error) {
	var recs []model.ServiceRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).Find(&recs).Error
	return recs, err
}

func (r *recordRepo) LinkToEnvelopeTx(tx *gorm.DB, ids []uuid.UUID, envelopeID uuid.UUID) (int64, error) {
	res := tx.Model(&model.ServiceRecord{}).
		Where("id IN ? AND envelope_id IS NULL", ids).
		Updates(map[string]interface{}{
			"payment_status": model.StatusPaid,
			"envelope_id":    envelopeID,
		})
	return res.RowsAffected, res.Error
}

func (r *recordRepo) ListCashEquivalent(ctx context.Context, unitID string, from, to time.Time) ([]model.ServiceRecord, error) {
	methods := []string{model.MethodCash, model.MethodPix, model.MethodCardCredit, model.MethodCardDebit}
	var recs []model.ServiceRecord
	err := r.db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Where("payment_method IN ?", methods).
		Where("service_date BETWEEN ? AND ?", from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("external_code ASC").
		Find(&recs).Error
	return recs, err
}
