package service

import (
	"context"
	"sort"
	"time"

	"labcaixa/internal/dto"
	"labcaixa/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory RecordRepository ───────────────────────────────────────────────

type fakeRecordRepo struct {
	records map[uuid.UUID]*model.ServiceRecord
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: make(map[uuid.UUID]*model.ServiceRecord)}
}

func (r *fakeRecordRepo) DB() *gorm.DB { return nil }

func (r *fakeRecordRepo) Create(_ context.Context, rec *model.ServiceRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now()
	r.records[rec.ID] = rec
	return nil
}

func (r *fakeRecordRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ServiceRecord, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rec, nil
}

func (r *fakeRecordRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.ServiceRecord, error) {
	var out []model.ServiceRecord
	for _, id := range ids {
		if rec, ok := r.records[id]; ok {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *fakeRecordRepo) ExistsByUnitCode(_ context.Context, unitID, externalCode string) (bool, error) {
	for _, rec := range r.records {
		if rec.UnitID == unitID && rec.ExternalCode == externalCode {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRecordRepo) FindEligible(_ context.Context, unitID, channel string, date *time.Time) ([]model.ServiceRecord, error) {
	methods := model.MethodsForChannel(channel)
	var out []model.ServiceRecord
	for _, rec := range r.records {
		if rec.UnitID != unitID || rec.PaymentStatus != model.StatusPending || rec.EnvelopeID != nil {
			continue
		}
		if !containsString(methods, rec.PaymentMethod) {
			continue
		}
		if date != nil && !rec.ServiceDate.Equal(*date) {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalCode < out[j].ExternalCode })
	return out, nil
}

func (r *fakeRecordRepo) FindByIDsForUpdateTx(_ *gorm.DB, ids []uuid.UUID) ([]model.ServiceRecord, error) {
	var out []model.ServiceRecord
	for _, id := range ids {
		if rec, ok := r.records[id]; ok {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *fakeRecordRepo) LinkToEnvelopeTx(_ *gorm.DB, ids []uuid.UUID, envelopeID uuid.UUID) (int64, error) {
	var affected int64
	for _, id := range ids {
		rec, ok := r.records[id]
		if !ok || rec.EnvelopeID != nil {
			continue
		}
		rec.EnvelopeID = &envelopeID
		rec.PaymentStatus = model.StatusPaid
		affected++
	}
	return affected, nil
}

func (r *fakeRecordRepo) ListCashEquivalent(_ context.Context, unitID string, from, to time.Time) ([]model.ServiceRecord, error) {
	var out []model.ServiceRecord
	for _, rec := range r.records {
		if rec.UnitID != unitID || rec.PaymentMethod == model.MethodUnpaid {
			continue
		}
		if rec.ServiceDate.Before(from) || rec.ServiceDate.After(to) {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalCode < out[j].ExternalCode })
	return out, nil
}

// ── In-memory EnvelopeRepository ─────────────────────────────────────────────

type fakeEnvelopeRepo struct {
	envelopes map[uuid.UUID]*model.Envelope
	notes     []model.EnvelopeNote
	// seqCollisions makes the next N CreateTx calls fail with a duplicated-key
	// error, simulating a concurrent seal winning the sequence slot.
	seqCollisions int
}

func newFakeEnvelopeRepo() *fakeEnvelopeRepo {
	return &fakeEnvelopeRepo{envelopes: make(map[uuid.UUID]*model.Envelope)}
}

func (r *fakeEnvelopeRepo) DB() *gorm.DB { return nil }

func (r *fakeEnvelopeRepo) CreateTx(_ *gorm.DB, e *model.Envelope) error {
	if r.seqCollisions > 0 {
		r.seqCollisions--
		return gorm.ErrDuplicatedKey
	}
	for _, existing := range r.envelopes {
		if existing.UnitID == e.UnitID && existing.BatchDate.Equal(e.BatchDate) && existing.Sequence == e.Sequence {
			return gorm.ErrDuplicatedKey
		}
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	r.envelopes[e.ID] = e
	return nil
}

func (r *fakeEnvelopeRepo) CountForUnitDateTx(_ *gorm.DB, unitID string, date time.Time) (int64, error) {
	var count int64
	for _, e := range r.envelopes {
		if e.UnitID == unitID && e.BatchDate.Equal(date) {
			count++
		}
	}
	return count, nil
}

func (r *fakeEnvelopeRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Envelope, error) {
	e, ok := r.envelopes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	e.Notes = nil
	for _, n := range r.notes {
		if n.EnvelopeID == id {
			e.Notes = append(e.Notes, n)
		}
	}
	return e, nil
}

func (r *fakeEnvelopeRepo) MarkLabelIssued(_ context.Context, id uuid.UUID, actorID uuid.UUID, at time.Time) (int64, error) {
	e, ok := r.envelopes[id]
	if !ok || e.LabelIssuedAt != nil {
		return 0, nil
	}
	e.LabelIssuedAt = &at
	e.LabelIssuedBy = &actorID
	return 1, nil
}

func (r *fakeEnvelopeRepo) SetLabelPath(_ context.Context, id uuid.UUID, path string) error {
	if e, ok := r.envelopes[id]; ok {
		e.LabelPath = &path
	}
	return nil
}

func (r *fakeEnvelopeRepo) ListPendingReview(_ context.Context, filter dto.ReviewFilter) ([]model.Envelope, int64, error) {
	var all []model.Envelope
	for _, e := range r.envelopes {
		if e.Status != model.EnvelopePending && e.Status != model.EnvelopeIssued {
			continue
		}
		if filter.UnitID != "" && e.UnitID != filter.UnitID {
			continue
		}
		if filter.OnlyWithDiff && !e.HasDifference {
			continue
		}
		if filter.From != "" && e.BatchDate.Format("2006-01-02") < filter.From {
			continue
		}
		if filter.To != "" && e.BatchDate.Format("2006-01-02") > filter.To {
			continue
		}
		all = append(all, *e)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].BatchDate.Equal(all[j].BatchDate) {
			return all[i].BatchDate.Before(all[j].BatchDate)
		}
		return all[i].Sequence < all[j].Sequence
	})
	total := int64(len(all))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *fakeEnvelopeRepo) MarkReviewed(_ context.Context, id uuid.UUID, status string, actorID uuid.UUID, at time.Time) (int64, error) {
	e, ok := r.envelopes[id]
	if !ok {
		return 0, nil
	}
	if e.Status != model.EnvelopePending && e.Status != model.EnvelopeIssued {
		return 0, nil
	}
	e.Status = status
	e.ReviewedAt = &at
	e.ReviewedBy = &actorID
	return 1, nil
}

func (r *fakeEnvelopeRepo) CreateNote(_ context.Context, n *model.EnvelopeNote) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now()
	r.notes = append(r.notes, *n)
	return nil
}

func (r *fakeEnvelopeRepo) CreateNoteTx(_ *gorm.DB, n *model.EnvelopeNote) error {
	return r.CreateNote(context.Background(), n)
}

func (r *fakeEnvelopeRepo) Stats(_ context.Context, unitID string) (*dto.ReviewStatsResponse, error) {
	stats := &dto.ReviewStatsResponse{
		PendingValue:    decimal.Zero,
		TotalDifference: decimal.Zero,
	}
	for _, e := range r.envelopes {
		if unitID != "" && e.UnitID != unitID {
			continue
		}
		open := e.Status == model.EnvelopePending || e.Status == model.EnvelopeIssued
		if open {
			stats.PendingCount++
			stats.PendingValue = stats.PendingValue.Add(e.ExpectedCash)
			stats.TotalDifference = stats.TotalDifference.Add(e.Difference)
			if e.HasDifference {
				stats.WithDifferenceCount++
			}
		}
	}
	return stats, nil
}

// ── In-memory LedgerRepository ───────────────────────────────────────────────

type fakeLedgerRepo struct {
	txns map[uuid.UUID]*model.LedgerTransaction
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{txns: make(map[uuid.UUID]*model.LedgerTransaction)}
}

func (r *fakeLedgerRepo) Create(_ context.Context, t *model.LedgerTransaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.txns[t.ID] = t
	return nil
}

func (r *fakeLedgerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.LedgerTransaction, error) {
	t, ok := r.txns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *fakeLedgerRepo) ExistsByExternalID(_ context.Context, externalID string) (bool, error) {
	for _, t := range r.txns {
		if t.ExternalID == externalID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLedgerRepo) ListApproved(_ context.Context, unitID string, from, to time.Time) ([]model.LedgerTransaction, error) {
	var out []model.LedgerTransaction
	for _, t := range r.txns {
		if t.UnitID != unitID || !t.Approved || t.Deleted {
			continue
		}
		if t.EntryDate.Before(from) || t.EntryDate.After(to) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out, nil
}

func (r *fakeLedgerRepo) StampCorrelation(_ context.Context, id uuid.UUID, code string) (int64, error) {
	t, ok := r.txns[id]
	if !ok || t.CorrelationCode != nil {
		return 0, nil
	}
	origin := model.OriginManual
	t.CorrelationCode = &code
	t.CodeOrigin = &origin
	return 1, nil
}

// ── In-memory ResolutionRepository ───────────────────────────────────────────

type fakeResolutionRepo struct {
	rows []model.ReconciliationResolution
}

func (r *fakeResolutionRepo) Append(_ context.Context, res *model.ReconciliationResolution) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	res.CreatedAt = time.Now()
	r.rows = append(r.rows, *res)
	return nil
}

func (r *fakeResolutionRepo) List(_ context.Context, unitID, correlationCode string, limit int) ([]model.ReconciliationResolution, error) {
	var out []model.ReconciliationResolution
	for _, row := range r.rows {
		if row.UnitID != unitID {
			continue
		}
		if correlationCode != "" && row.CorrelationCode != correlationCode {
			continue
		}
		out = append(out, row)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ── In-memory FeeRepository ──────────────────────────────────────────────────

type fakeFeeRepo struct {
	rate *decimal.Decimal
}

func (r *fakeFeeRepo) FindRate(_ context.Context, _, _ string) (*decimal.Decimal, error) {
	return r.rate, nil
}

// ── test helpers ─────────────────────────────────────────────────────────────

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func strptr(s string) *string { return &s }

func pendingRecord(unitID, code, method string, cash float64) *model.ServiceRecord {
	amount := decimal.NewFromFloat(cash)
	return &model.ServiceRecord{
		ID:            uuid.New(),
		ExternalCode:  code,
		UnitID:        unitID,
		ServiceDate:   mustDate("2026-03-10"),
		PaymentMethod: method,
		GrossAmount:   amount,
		NetAmount:     amount,
		CashComponent: amount,
		PaymentStatus: model.StatusPending,
	}
}

func noopLabelRenderer(_ *model.Envelope, _ string) (string, error) {
	return "/tmp/labels/test.pdf", nil
}
