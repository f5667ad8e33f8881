package service

import (
	"context"
	"time"

	"labcaixa/internal/apierror"
	"labcaixa/internal/dto"
	"labcaixa/internal/model"
	"labcaixa/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Selection is an ephemeral, request-scoped set of record IDs. It is never
// persisted: the server re-derives eligibility and amounts at seal time, so a
// stale selection can only fail, never double-commit.
type Selection map[uuid.UUID]bool

func NewSelection() Selection { return make(Selection) }

// Toggle flips the membership of one record.
func (s Selection) Toggle(id uuid.UUID) {
	if s[id] {
		delete(s, id)
	} else {
		s[id] = true
	}
}

// SelectAll adds every currently eligible record. Records already linked to
// an envelope never reach the eligible list, so they are never auto-selected.
func (s Selection) SelectAll(eligible []model.ServiceRecord) {
	for _, rec := range eligible {
		s[rec.ID] = true
	}
}

func (s Selection) Clear() {
	for id := range s {
		delete(s, id)
	}
}

func (s Selection) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// ── SelectionService ─────────────────────────────────────────────────────────

type SelectionService interface {
	ListEligible(ctx context.Context, unitID, channel string, date *time.Time) ([]dto.EligibleRecordResponse, error)
	// ComputeTotals sums the cash components of the selected records. For the
	// card channel it also applies the unit's fee schedule. Every selected
	// record must still be eligible — a locked record fails the whole call.
	ComputeTotals(ctx context.Context, unitID string, req dto.SelectionTotalsRequest) (*dto.SelectionTotalsResponse, error)
}

type selectionService struct {
	records        repository.RecordRepository
	fees           repository.FeeRepository
	defaultCardFee decimal.Decimal
}

func NewSelectionService(records repository.RecordRepository, fees repository.FeeRepository, defaultCardFee decimal.Decimal) SelectionService {
	return &selectionService{records: records, fees: fees, defaultCardFee: defaultCardFee}
}

func (s *selectionService) ListEligible(ctx context.Context, unitID, channel string, date *time.Time) ([]dto.EligibleRecordResponse, error) {
	if model.MethodsForChannel(channel) == nil {
		return nil, apierror.Validationf("unknown channel %q", channel)
	}
	recs, err := s.records.FindEligible(ctx, unitID, channel, date)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EligibleRecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, dto.EligibleRecordResponse{
			ID:            rec.ID.String(),
			ExternalCode:  rec.ExternalCode,
			ServiceDate:   rec.ServiceDate.Format("2006-01-02"),
			PatientName:   rec.PatientName,
			PaymentMethod: rec.PaymentMethod,
			GrossAmount:   rec.GrossAmount,
			CashComponent: rec.CashComponent,
		})
	}
	return out, nil
}

func (s *selectionService) ComputeTotals(ctx context.Context, unitID string, req dto.SelectionTotalsRequest) (*dto.SelectionTotalsResponse, error) {
	ids, err := parseUUIDs(req.RecordIDs)
	if err != nil {
		return nil, err
	}

	recs, err := s.records.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(recs) != len(ids) {
		return nil, apierror.Validationf("selection references %d unknown record(s)", len(ids)-len(recs))
	}

	methods := model.MethodsForChannel(req.Channel)
	gross := decimal.Zero
	var locked []string
	for _, rec := range recs {
		if rec.UnitID != unitID {
			return nil, apierror.Validationf("record %s belongs to another unit", rec.ExternalCode)
		}
		if !containsString(methods, rec.PaymentMethod) {
			return nil, apierror.Validationf("record %s is not payable through channel %s", rec.ExternalCode, req.Channel)
		}
		if rec.EnvelopeID != nil || rec.PaymentStatus != model.StatusPending {
			locked = append(locked, rec.ExternalCode)
			continue
		}
		gross = gross.Add(rec.CashComponent)
	}
	if len(locked) > 0 {
		return nil, &apierror.ConflictError{Msg: "records no longer selectable", Codes: locked}
	}

	resp := &dto.SelectionTotalsResponse{
		Channel:     req.Channel,
		Count:       len(recs),
		GrossAmount: gross,
		FeeRate:     decimal.Zero,
		FeeAmount:   decimal.Zero,
		NetAmount:   gross,
	}

	if req.Channel == model.ChannelCard {
		rate, err := s.fees.FindRate(ctx, unitID, req.Channel)
		if err != nil {
			return nil, err
		}
		feeRate := s.defaultCardFee
		if rate != nil {
			feeRate = *rate
		}
		fee := gross.Mul(feeRate).Round(2)
		resp.FeeRate = feeRate
		resp.FeeAmount = fee
		resp.NetAmount = gross.Sub(fee)
	}

	return resp, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	seen := make(map[uuid.UUID]bool, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, apierror.Validationf("invalid record id %q", r)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
