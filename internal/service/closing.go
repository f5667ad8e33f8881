package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"labcaixa/internal/apierror"
	"labcaixa/internal/dto"
	"labcaixa/internal/model"
	"labcaixa/internal/repository"
	"labcaixa/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// differenceEpsilon is the currency-unit tolerance below which a counted
// amount is considered exact.
var differenceEpsilon = decimal.NewFromFloat(0.01)

// sealMaxRetries bounds the re-seal attempts after a sequence collision
// between concurrent closings of the same unit and date.
const sealMaxRetries = 3

// LabelRenderer produces the physical label artifact for a sealed envelope
// and returns its storage path.
type LabelRenderer func(e *model.Envelope, storagePath string) (string, error)

type ClosingService interface {
	// Seal atomically creates the envelope and links the selected records.
	// All-or-nothing: any record already linked fails the whole operation
	// with a ConflictError naming the offending codes.
	Seal(ctx context.Context, unitID string, actorID uuid.UUID, req dto.SealRequest) (*dto.EnvelopeResponse, error)
	// IssueLabel is strictly one-shot; a second attempt fails with
	// AlreadyIssuedError regardless of interleaving.
	IssueLabel(ctx context.Context, envelopeID, actorID uuid.UUID) (*dto.LabelResponse, error)
	GetEnvelope(ctx context.Context, envelopeID uuid.UUID) (*dto.EnvelopeResponse, error)
	// AddNote appends annotation metadata; allowed at any pre-terminal state.
	AddNote(ctx context.Context, envelopeID, actorID uuid.UUID, body string) error
}

type closingService struct {
	records     repository.RecordRepository
	envelopes   repository.EnvelopeRepository
	dispatcher  *worker.Dispatcher
	renderLabel LabelRenderer
	labelDir    string
}

func NewClosingService(
	records repository.RecordRepository,
	envelopes repository.EnvelopeRepository,
	dispatcher *worker.Dispatcher,
	renderLabel LabelRenderer,
	labelDir string,
) ClosingService {
	return &closingService{
		records:     records,
		envelopes:   envelopes,
		dispatcher:  dispatcher,
		renderLabel: renderLabel,
		labelDir:    labelDir,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Seal ─────────────────────────────────────────────────────────────────────
// Single transaction: lock selected rows, re-validate eligibility against the
// same snapshot, allocate the sequence, create the envelope, link the rows.
// A reader never observes an envelope with zero linked records.

func (s *closingService) Seal(ctx context.Context, unitID string, actorID uuid.UUID, req dto.SealRequest) (*dto.EnvelopeResponse, error) {
	if req.CountedCash.IsNegative() {
		return nil, apierror.Validationf("counted_cash must not be negative")
	}
	batchDate, err := time.Parse("2006-01-02", req.BatchDate)
	if err != nil {
		return nil, apierror.Validationf("invalid batch_date %q", req.BatchDate)
	}
	methods := model.MethodsForChannel(req.Channel)
	if methods == nil {
		return nil, apierror.Validationf("unknown channel %q", req.Channel)
	}
	ids, err := parseUUIDs(req.RecordIDs)
	if err != nil {
		return nil, err
	}

	var envelope model.Envelope
	var sealErr error
	for attempt := 0; attempt < sealMaxRetries; attempt++ {
		sealErr = runTx(ctx, s.records.DB(), func(tx *gorm.DB) error {
			recs, err := s.records.FindByIDsForUpdateTx(tx, ids)
			if err != nil {
				return err
			}
			if len(recs) != len(ids) {
				return apierror.Validationf("selection references %d unknown record(s)", len(ids)-len(recs))
			}

			expected := decimal.Zero
			var conflicting []string
			for _, rec := range recs {
				if rec.UnitID != unitID {
					return apierror.Validationf("record %s belongs to another unit", rec.ExternalCode)
				}
				if !containsString(methods, rec.PaymentMethod) {
					return apierror.Validationf("record %s is not payable through channel %s", rec.ExternalCode, req.Channel)
				}
				if rec.EnvelopeID != nil || rec.PaymentStatus != model.StatusPending {
					conflicting = append(conflicting, rec.ExternalCode)
					continue
				}
				expected = expected.Add(rec.CashComponent)
			}
			if len(conflicting) > 0 {
				return &apierror.ConflictError{Msg: "records already linked to an envelope", Codes: conflicting}
			}

			count, err := s.envelopes.CountForUnitDateTx(tx, unitID, batchDate)
			if err != nil {
				return err
			}
			seq := int(count) + 1

			difference := req.CountedCash.Sub(expected)
			now := time.Now().UTC()
			envelope = model.Envelope{
				Code:          EnvelopeCode(unitID, batchDate, seq),
				UnitID:        unitID,
				BatchDate:     batchDate,
				Sequence:      seq,
				Channel:       req.Channel,
				ExpectedCash:  expected,
				CountedCash:   req.CountedCash,
				Difference:    difference,
				HasDifference: difference.Abs().GreaterThan(differenceEpsilon),
				Status:        model.EnvelopeIssued,
				RecordCount:   len(recs),
				SealedBy:      actorID,
				SealedAt:      now,
			}
			if err := s.envelopes.CreateTx(tx, &envelope); err != nil {
				return err
			}

			affected, err := s.records.LinkToEnvelopeTx(tx, ids, envelope.ID)
			if err != nil {
				return err
			}
			if affected != int64(len(ids)) {
				// The FOR UPDATE snapshot said every row was free; a mismatch
				// here means the storage layer broke the transaction boundary.
				return &apierror.IntegrityFault{
					Msg: fmt.Sprintf("envelope %s linked %d of %d records", envelope.Code, affected, len(ids)),
				}
			}

			if req.Notes != nil && *req.Notes != "" {
				note := model.EnvelopeNote{
					EnvelopeID: envelope.ID,
					AuthorID:   actorID,
					Body:       *req.Notes,
				}
				if err := s.envelopes.CreateNoteTx(tx, &note); err != nil {
					return err
				}
			}
			return nil
		})

		// Sequence collision with a concurrent seal: the unique index on
		// (unit, date, sequence) rejected the insert. Recount and retry.
		if errors.Is(sealErr, gorm.ErrDuplicatedKey) {
			log.Warn().
				Str("unit_id", unitID).
				Str("batch_date", req.BatchDate).
				Int("attempt", attempt+1).
				Msg("seal: sequence collision, retrying")
			continue
		}
		break
	}
	if errors.Is(sealErr, gorm.ErrDuplicatedKey) {
		return nil, &apierror.ConflictError{Msg: "could not allocate envelope sequence for " + unitID + " " + req.BatchDate}
	}
	if sealErr != nil {
		var fault *apierror.IntegrityFault
		if errors.As(sealErr, &fault) {
			log.Error().Str("unit_id", unitID).Err(sealErr).Msg("seal: integrity fault")
		}
		return nil, sealErr
	}

	log.Info().
		Str("envelope", envelope.Code).
		Str("unit_id", unitID).
		Str("channel", req.Channel).
		Str("expected", envelope.ExpectedCash.StringFixed(2)).
		Str("difference", envelope.Difference.StringFixed(2)).
		Msg("envelope sealed")

	// Difference alert — best-effort, never blocks the seal result.
	if envelope.HasDifference && s.dispatcher != nil {
		_ = s.dispatcher.EnqueueDifferenceAlert(ctx, worker.DifferenceAlertPayload{
			EnvelopeCode: envelope.Code,
			UnitID:       unitID,
			Expected:     envelope.ExpectedCash.StringFixed(2),
			Counted:      envelope.CountedCash.StringFixed(2),
			Difference:   envelope.Difference.StringFixed(2),
		})
	}

	return envelopeToResponse(&envelope), nil
}

// EnvelopeCode derives the human-readable identifier. Deterministic so
// auditors can re-derive it from (unit, date, sequence); the per-unit-per-date
// sequence keeps it collision-free across units.
func EnvelopeCode(unitID string, date time.Time, sequence int) string {
	return fmt.Sprintf("%s-%s-%03d", unitID, date.Format("20060102"), sequence)
}

// ── IssueLabel ───────────────────────────────────────────────────────────────

func (s *closingService) IssueLabel(ctx context.Context, envelopeID, actorID uuid.UUID) (*dto.LabelResponse, error) {
	envelope, err := s.envelopes.FindByID(ctx, envelopeID)
	if err != nil {
		return nil, apierror.Validationf("envelope not found")
	}

	now := time.Now().UTC()
	affected, err := s.envelopes.MarkLabelIssued(ctx, envelopeID, actorID, now)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// The conditional update is the arbiter: under concurrent attempts
		// exactly one caller sees affected == 1.
		return nil, &apierror.AlreadyIssuedError{EnvelopeCode: envelope.Code}
	}

	envelope.LabelIssuedAt = &now
	path, err := s.renderLabel(envelope, s.labelDir)
	if err != nil {
		// Issuance is already consumed — the one-shot guarantee outranks the
		// artifact. The operator retrieves the label from the report later.
		log.Error().Err(err).Str("envelope", envelope.Code).Msg("label: render failed after issuance")
		return nil, fmt.Errorf("label issued but rendering failed: %w", err)
	}
	if err := s.envelopes.SetLabelPath(ctx, envelopeID, path); err != nil {
		log.Error().Err(err).Str("envelope", envelope.Code).Msg("label: failed to store path")
	}

	log.Info().Str("envelope", envelope.Code).Str("actor", actorID.String()).Msg("label issued")
	return &dto.LabelResponse{
		EnvelopeCode:  envelope.Code,
		LabelIssuedAt: now.Format(time.RFC3339),
		LabelURL:      "/v1/envelopes/" + envelopeID.String() + "/label",
	}, nil
}

// ── GetEnvelope ──────────────────────────────────────────────────────────────

func (s *closingService) GetEnvelope(ctx context.Context, envelopeID uuid.UUID) (*dto.EnvelopeResponse, error) {
	envelope, err := s.envelopes.FindByID(ctx, envelopeID)
	if err != nil {
		return nil, apierror.Validationf("envelope not found")
	}
	resp := envelopeToResponse(envelope)
	for _, rec := range envelope.Records {
		resp.RecordCodes = append(resp.RecordCodes, rec.ExternalCode)
	}
	for _, n := range envelope.Notes {
		resp.Notes = append(resp.Notes, dto.EnvelopeNoteResponse{
			AuthorID:  n.AuthorID.String(),
			Body:      n.Body,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp, nil
}

// ── AddNote ──────────────────────────────────────────────────────────────────

func (s *closingService) AddNote(ctx context.Context, envelopeID, actorID uuid.UUID, body string) error {
	envelope, err := s.envelopes.FindByID(ctx, envelopeID)
	if err != nil {
		return apierror.Validationf("envelope not found")
	}
	if envelope.Status == model.EnvelopeReviewed || envelope.Status == model.EnvelopeReviewedDiff {
		return &apierror.ConflictError{Msg: "envelope " + envelope.Code + " is already reviewed; notes are closed"}
	}
	return s.envelopes.CreateNote(ctx, &model.EnvelopeNote{
		EnvelopeID: envelopeID,
		AuthorID:   actorID,
		Body:       body,
	})
}

// ── helpers ──────────────────────────────────────────────────────────────────

func envelopeToResponse(e *model.Envelope) *dto.EnvelopeResponse {
	resp := &dto.EnvelopeResponse{
		ID:            e.ID.String(),
		Code:          e.Code,
		UnitID:        e.UnitID,
		BatchDate:     e.BatchDate.Format("2006-01-02"),
		Sequence:      e.Sequence,
		Channel:       e.Channel,
		ExpectedCash:  e.ExpectedCash,
		CountedCash:   e.CountedCash,
		Difference:    e.Difference,
		HasDifference: e.HasDifference,
		Status:        e.Status,
		RecordCount:   e.RecordCount,
		SealedBy:      e.SealedBy.String(),
		SealedAt:      e.SealedAt.Format(time.RFC3339),
	}
	if e.LabelIssuedAt != nil {
		t := e.LabelIssuedAt.Format(time.RFC3339)
		resp.LabelIssuedAt = &t
	}
	if e.ReviewedAt != nil {
		t := e.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &t
	}
	if e.ReviewedBy != nil {
		b := e.ReviewedBy.String()
		resp.ReviewedBy = &b
	}
	return resp
}
