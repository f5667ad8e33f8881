package service

import (
	"context"
	"sort"
	"time"

	"labcaixa/internal/apierror"
	"labcaixa/internal/dto"
	"labcaixa/internal/model"
	"labcaixa/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type ReconciliationService interface {
	// Reconcile partitions records and ledger transactions into matched
	// pairs, LIS orphans, ledger orphans, and duplicates. Read-only: orphans
	// and duplicates are steady-state outputs for human review, not errors.
	Reconcile(ctx context.Context, unitID string, from, to time.Time) (*dto.ReconcileResponse, error)
	// LinkManually stamps a correlation code onto a ledger transaction
	// (origin=manual). One-shot: fails if the transaction already has a code.
	LinkManually(ctx context.Context, unitID string, req dto.LinkRequest) error
	// LogResolution appends an immutable audit record of a human decision.
	LogResolution(ctx context.Context, unitID string, actorID uuid.UUID, req dto.ResolutionRequest) (*dto.ResolutionResponse, error)
	ListResolutions(ctx context.Context, unitID, correlationCode string, limit int) ([]dto.ResolutionResponse, error)
}

type reconciliationService struct {
	records     repository.RecordRepository
	ledger      repository.LedgerRepository
	resolutions repository.ResolutionRepository
}

func NewReconciliationService(
	records repository.RecordRepository,
	ledger repository.LedgerRepository,
	resolutions repository.ResolutionRepository,
) ReconciliationService {
	return &reconciliationService{records: records, ledger: ledger, resolutions: resolutions}
}

// ── Reconcile ────────────────────────────────────────────────────────────────
// Partition completeness: every record and every transaction lands in exactly
// one bucket. Amount mismatches inside a matched pair are reported, never
// adjudicated — no tolerance is applied here.

func (s *reconciliationService) Reconcile(ctx context.Context, unitID string, from, to time.Time) (*dto.ReconcileResponse, error) {
	if to.Before(from) {
		return nil, apierror.Validationf("date range end precedes start")
	}

	recs, err := s.records.ListCashEquivalent(ctx, unitID, from, to)
	if err != nil {
		return nil, err
	}
	txns, err := s.ledger.ListApproved(ctx, unitID, from, to)
	if err != nil {
		return nil, err
	}

	resp := Partition(recs, txns)
	resp.UnitID = unitID
	resp.From = from.Format("2006-01-02")
	resp.To = to.Format("2006-01-02")
	return resp, nil
}

// Partition is the pure matching core, exported separately from the service
// so the classification rules are testable without storage.
func Partition(recs []model.ServiceRecord, txns []model.LedgerTransaction) *dto.ReconcileResponse {
	recsByCode := make(map[string][]model.ServiceRecord)
	for _, rec := range recs {
		recsByCode[rec.ExternalCode] = append(recsByCode[rec.ExternalCode], rec)
	}

	txnsByCode := make(map[string][]model.LedgerTransaction)
	var codeless []model.LedgerTransaction
	for _, txn := range txns {
		if txn.CorrelationCode == nil || *txn.CorrelationCode == "" {
			codeless = append(codeless, txn)
			continue
		}
		txnsByCode[*txn.CorrelationCode] = append(txnsByCode[*txn.CorrelationCode], txn)
	}

	resp := &dto.ReconcileResponse{
		Matched:       []dto.MatchedPair{},
		LisOrphans:    []dto.RecordSummary{},
		LedgerOrphans: []dto.TransactionSummary{},
		Duplicates:    []dto.DuplicateGroup{},
	}
	totals := &resp.Totals
	totals.MatchedAmount = decimal.Zero
	totals.LisOrphanAmount = decimal.Zero
	totals.LedgerOrphanAmount = decimal.Zero

	codes := make([]string, 0, len(recsByCode)+len(txnsByCode))
	seen := make(map[string]bool)
	for code := range recsByCode {
		codes = append(codes, code)
		seen[code] = true
	}
	for code := range txnsByCode {
		if !seen[code] {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	for _, code := range codes {
		group := recsByCode[code]
		matches := txnsByCode[code]

		switch {
		case len(group) == 1 && len(matches) == 1:
			rec, txn := group[0], matches[0]
			resp.Matched = append(resp.Matched, dto.MatchedPair{
				CorrelationCode: code,
				Record:          recordSummary(rec),
				Transaction:     txnSummary(txn),
				AmountDelta:     txn.Amount.Sub(rec.CashComponent),
			})
			totals.MatchedAmount = totals.MatchedAmount.Add(rec.CashComponent)

		default:
			// Records stay unmatched: either no transaction carries the code,
			// multiple transactions do (duplicate), or split billing produced
			// several records under one code — all surfaced, none guessed at.
			for _, rec := range group {
				resp.LisOrphans = append(resp.LisOrphans, recordSummary(rec))
				totals.LisOrphanAmount = totals.LisOrphanAmount.Add(rec.CashComponent)
			}
			if len(matches) >= 2 {
				dup := dto.DuplicateGroup{CorrelationCode: code, TotalAmount: decimal.Zero}
				for _, txn := range matches {
					dup.Transactions = append(dup.Transactions, txnSummary(txn))
					dup.TotalAmount = dup.TotalAmount.Add(txn.Amount)
				}
				resp.Duplicates = append(resp.Duplicates, dup)
			} else {
				for _, txn := range matches {
					resp.LedgerOrphans = append(resp.LedgerOrphans, txnSummary(txn))
					totals.LedgerOrphanAmount = totals.LedgerOrphanAmount.Add(txn.Amount)
				}
			}
		}
	}

	for _, txn := range codeless {
		resp.LedgerOrphans = append(resp.LedgerOrphans, txnSummary(txn))
		totals.LedgerOrphanAmount = totals.LedgerOrphanAmount.Add(txn.Amount)
	}

	totals.MatchedCount = len(resp.Matched)
	totals.LisOrphanCount = len(resp.LisOrphans)
	totals.LedgerOrphanCount = len(resp.LedgerOrphans)
	totals.DuplicateCount = len(resp.Duplicates)
	return resp
}

// ── LinkManually ─────────────────────────────────────────────────────────────

func (s *reconciliationService) LinkManually(ctx context.Context, unitID string, req dto.LinkRequest) error {
	id, err := uuid.Parse(req.TransactionID)
	if err != nil {
		return apierror.Validationf("invalid transaction id %q", req.TransactionID)
	}
	txn, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		return apierror.Validationf("ledger transaction not found")
	}
	if txn.UnitID != unitID {
		return apierror.Validationf("transaction %s belongs to another unit", txn.ExternalID)
	}

	affected, err := s.ledger.StampCorrelation(ctx, id, req.CorrelationCode)
	if err != nil {
		return err
	}
	if affected == 0 {
		return &apierror.ConflictError{
			Msg:   "transaction " + txn.ExternalID + " already carries a correlation code",
			Codes: []string{req.CorrelationCode},
		}
	}

	log.Info().
		Str("transaction", txn.ExternalID).
		Str("code", req.CorrelationCode).
		Msg("ledger transaction linked manually")
	return nil
}

// ── LogResolution ────────────────────────────────────────────────────────────

func (s *reconciliationService) LogResolution(ctx context.Context, unitID string, actorID uuid.UUID, req dto.ResolutionRequest) (*dto.ResolutionResponse, error) {
	entryDate, err := time.Parse("2006-01-02", req.EntryDate)
	if err != nil {
		return nil, apierror.Validationf("invalid entry_date %q", req.EntryDate)
	}
	row := &model.ReconciliationResolution{
		UnitID:          unitID,
		CorrelationCode: req.CorrelationCode,
		EntryDate:       entryDate,
		Outcome:         req.Outcome,
		Notes:           req.Notes,
		ActorID:         actorID,
	}
	if err := s.resolutions.Append(ctx, row); err != nil {
		return nil, err
	}
	return resolutionToResponse(row), nil
}

func (s *reconciliationService) ListResolutions(ctx context.Context, unitID, correlationCode string, limit int) ([]dto.ResolutionResponse, error) {
	rows, err := s.resolutions.List(ctx, unitID, correlationCode, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ResolutionResponse, 0, len(rows))
	for i := range rows {
		out = append(out, *resolutionToResponse(&rows[i]))
	}
	return out, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func recordSummary(r model.ServiceRecord) dto.RecordSummary {
	return dto.RecordSummary{
		ID:            r.ID.String(),
		ExternalCode:  r.ExternalCode,
		ServiceDate:   r.ServiceDate.Format("2006-01-02"),
		PaymentMethod: r.PaymentMethod,
		CashComponent: r.CashComponent,
	}
}

func txnSummary(t model.LedgerTransaction) dto.TransactionSummary {
	return dto.TransactionSummary{
		ID:              t.ID.String(),
		ExternalID:      t.ExternalID,
		EntryDate:       t.EntryDate.Format("2006-01-02"),
		Amount:          t.Amount,
		CorrelationCode: t.CorrelationCode,
	}
}

func resolutionToResponse(r *model.ReconciliationResolution) *dto.ResolutionResponse {
	return &dto.ResolutionResponse{
		ID:              r.ID.String(),
		CorrelationCode: r.CorrelationCode,
		EntryDate:       r.EntryDate.Format("2006-01-02"),
		Outcome:         r.Outcome,
		Notes:           r.Notes,
		ActorID:         r.ActorID.String(),
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
}
