package service

import (
	"context"
	"testing"
	"time"

	"labcaixa/internal/dto"
	"labcaixa/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuedEnvelope(repo *fakeEnvelopeRepo, unitID string, seq int, hasDiff bool) *model.Envelope {
	diff := decimal.Zero
	if hasDiff {
		diff = decimal.NewFromFloat(-20)
	}
	e := &model.Envelope{
		ID:            uuid.New(),
		Code:          EnvelopeCode(unitID, mustDate("2026-03-10"), seq),
		UnitID:        unitID,
		BatchDate:     mustDate("2026-03-10"),
		Sequence:      seq,
		Channel:       model.ChannelCash,
		ExpectedCash:  decimal.NewFromFloat(500),
		CountedCash:   decimal.NewFromFloat(500).Add(diff),
		Difference:    diff,
		HasDifference: hasDiff,
		Status:        model.EnvelopeIssued,
		RecordCount:   3,
		SealedBy:      uuid.New(),
		SealedAt:      time.Now().UTC(),
	}
	repo.envelopes[e.ID] = e
	return e
}

func TestReview_TerminalStatusFollowsDifference(t *testing.T) {
	envelopes := newFakeEnvelopeRepo()
	svc := NewReviewService(envelopes)
	actor := uuid.New()

	clean := issuedEnvelope(envelopes, "U01", 1, false)
	diverging := issuedEnvelope(envelopes, "U01", 2, true)

	resp, err := svc.Review(context.Background(), clean.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, model.EnvelopeReviewed, resp.Status)

	resp, err = svc.Review(context.Background(), diverging.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, model.EnvelopeReviewedDiff, resp.Status)
	require.NotNil(t, resp.ReviewedBy)
	assert.Equal(t, actor.String(), *resp.ReviewedBy)
}

func TestReview_IsIdempotent(t *testing.T) {
	envelopes := newFakeEnvelopeRepo()
	svc := NewReviewService(envelopes)
	actor := uuid.New()

	e := issuedEnvelope(envelopes, "U01", 1, false)

	first, err := svc.Review(context.Background(), e.ID, actor)
	require.NoError(t, err)

	// Repeating the call succeeds and returns the same terminal state.
	second, err := svc.Review(context.Background(), e.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.ReviewedBy, second.ReviewedBy)
}

func TestReviewBulk_CountsReviewedAndSkipped(t *testing.T) {
	envelopes := newFakeEnvelopeRepo()
	svc := NewReviewService(envelopes)
	actor := uuid.New()

	fresh := issuedEnvelope(envelopes, "U01", 1, false)
	done := issuedEnvelope(envelopes, "U01", 2, false)
	done.Status = model.EnvelopeReviewed
	missing := uuid.New()

	resp, err := svc.ReviewBulk(context.Background(), []uuid.UUID{fresh.ID, done.ID, missing}, actor)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Reviewed)
	assert.Equal(t, 1, resp.Skipped)
	require.Len(t, resp.Errors, 1)
}

func TestList_ExcludesReviewedEnvelopes(t *testing.T) {
	envelopes := newFakeEnvelopeRepo()
	svc := NewReviewService(envelopes)

	issuedEnvelope(envelopes, "U01", 1, false)
	issuedEnvelope(envelopes, "U01", 2, true)
	done := issuedEnvelope(envelopes, "U01", 3, false)
	done.Status = model.EnvelopeReviewed

	resp, err := svc.List(context.Background(), dto.ReviewFilter{UnitID: "U01"})
	require.NoError(t, err)

	assert.Equal(t, int64(2), resp.Total)
	require.Len(t, resp.Data, 2)
}

func TestList_OnlyWithDifferenceFilter(t *testing.T) {
	envelopes := newFakeEnvelopeRepo()
	svc := NewReviewService(envelopes)

	issuedEnvelope(envelopes, "U01", 1, false)
	diverging := issuedEnvelope(envelopes, "U01", 2, true)

	resp, err := svc.List(context.Background(), dto.ReviewFilter{UnitID: "U01", OnlyWithDiff: true})
	require.NoError(t, err)

	require.Len(t, resp.Data, 1)
	assert.Equal(t, diverging.Code, resp.Data[0].Code)
}

func TestStats_SumsOpenEnvelopes(t *testing.T) {
	envelopes := newFakeEnvelopeRepo()
	svc := NewReviewService(envelopes)

	issuedEnvelope(envelopes, "U01", 1, false)
	issuedEnvelope(envelopes, "U01", 2, true)
	done := issuedEnvelope(envelopes, "U01", 3, false)
	done.Status = model.EnvelopeReviewed

	stats, err := svc.Stats(context.Background(), "U01")
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.PendingCount)
	assert.Equal(t, int64(1), stats.WithDifferenceCount)
	assert.True(t, stats.PendingValue.Equal(decimal.NewFromFloat(1000)))
	assert.True(t, stats.TotalDifference.Equal(decimal.NewFromFloat(-20)))
}
