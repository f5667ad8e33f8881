package service

import (
	"context"
	"errors"
	"testing"

	"labcaixa/internal/apierror"
	"labcaixa/internal/dto"
	"labcaixa/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultCardFee = decimal.NewFromFloat(0.0329)

func totalsRequest(channel string, recordIDs ...uuid.UUID) dto.SelectionTotalsRequest {
	ids := make([]string, 0, len(recordIDs))
	for _, id := range recordIDs {
		ids = append(ids, id.String())
	}
	return dto.SelectionTotalsRequest{Channel: channel, RecordIDs: ids}
}

func TestSelection_ToggleAndClear(t *testing.T) {
	sel := NewSelection()
	id := uuid.New()

	sel.Toggle(id)
	assert.True(t, sel[id])
	sel.Toggle(id)
	assert.False(t, sel[id])

	sel.Toggle(id)
	sel.Clear()
	assert.Empty(t, sel.IDs())
}

func TestSelection_SelectAllOnlyCoversEligible(t *testing.T) {
	eligible := []model.ServiceRecord{
		*pendingRecord("U01", "LIS-1", model.MethodCash, 10),
		*pendingRecord("U01", "LIS-2", model.MethodCash, 20),
	}

	sel := NewSelection()
	sel.SelectAll(eligible)

	assert.Len(t, sel.IDs(), 2)
}

func TestListEligible_SkipsLinkedRecords(t *testing.T) {
	records := newFakeRecordRepo()
	svc := NewSelectionService(records, &fakeFeeRepo{}, defaultCardFee)

	free := pendingRecord("U01", "LIS-1", model.MethodCash, 100)
	linked := pendingRecord("U01", "LIS-2", model.MethodCash, 200)
	env := uuid.New()
	linked.EnvelopeID = &env
	linked.PaymentStatus = model.StatusPaid
	require.NoError(t, records.Create(context.Background(), free))
	require.NoError(t, records.Create(context.Background(), linked))

	out, err := svc.ListEligible(context.Background(), "U01", model.ChannelCash, nil)
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, "LIS-1", out[0].ExternalCode)
}

func TestComputeTotals_CashChannelHasNoFee(t *testing.T) {
	records := newFakeRecordRepo()
	svc := NewSelectionService(records, &fakeFeeRepo{}, defaultCardFee)

	r1 := pendingRecord("U01", "LIS-1", model.MethodCash, 300)
	r2 := pendingRecord("U01", "LIS-2", model.MethodCash, 200)
	require.NoError(t, records.Create(context.Background(), r1))
	require.NoError(t, records.Create(context.Background(), r2))

	resp, err := svc.ComputeTotals(context.Background(), "U01", totalsRequest(model.ChannelCash, r1.ID, r2.ID))
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Count)
	assert.True(t, resp.GrossAmount.Equal(decimal.NewFromFloat(500)))
	assert.True(t, resp.FeeAmount.IsZero())
	assert.True(t, resp.NetAmount.Equal(resp.GrossAmount))
}

func TestComputeTotals_CardChannelAppliesDefaultFee(t *testing.T) {
	records := newFakeRecordRepo()
	svc := NewSelectionService(records, &fakeFeeRepo{}, defaultCardFee)

	r1 := pendingRecord("U01", "LIS-1", model.MethodCardCredit, 1000)
	require.NoError(t, records.Create(context.Background(), r1))

	resp, err := svc.ComputeTotals(context.Background(), "U01", totalsRequest(model.ChannelCard, r1.ID))
	require.NoError(t, err)

	assert.True(t, resp.FeeRate.Equal(defaultCardFee))
	assert.True(t, resp.FeeAmount.Equal(decimal.NewFromFloat(32.90)), "fee = %s", resp.FeeAmount)
	assert.True(t, resp.NetAmount.Equal(decimal.NewFromFloat(967.10)))
}

func TestComputeTotals_CardChannelPrefersUnitSchedule(t *testing.T) {
	records := newFakeRecordRepo()
	negotiated := decimal.NewFromFloat(0.025)
	svc := NewSelectionService(records, &fakeFeeRepo{rate: &negotiated}, defaultCardFee)

	r1 := pendingRecord("U01", "LIS-1", model.MethodCardDebit, 200)
	require.NoError(t, records.Create(context.Background(), r1))

	resp, err := svc.ComputeTotals(context.Background(), "U01", totalsRequest(model.ChannelCard, r1.ID))
	require.NoError(t, err)

	assert.True(t, resp.FeeRate.Equal(negotiated))
	assert.True(t, resp.FeeAmount.Equal(decimal.NewFromFloat(5)))
}

func TestComputeTotals_LockedRecordFailsSelection(t *testing.T) {
	records := newFakeRecordRepo()
	svc := NewSelectionService(records, &fakeFeeRepo{}, defaultCardFee)

	free := pendingRecord("U01", "LIS-1", model.MethodCash, 100)
	locked := pendingRecord("U01", "LIS-2", model.MethodCash, 150)
	env := uuid.New()
	locked.EnvelopeID = &env
	locked.PaymentStatus = model.StatusPaid
	require.NoError(t, records.Create(context.Background(), free))
	require.NoError(t, records.Create(context.Background(), locked))

	_, err := svc.ComputeTotals(context.Background(), "U01", totalsRequest(model.ChannelCash, free.ID, locked.ID))

	var conflict *apierror.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Contains(t, conflict.Codes, "LIS-2")
}

func TestComputeTotals_UnknownRecordRejected(t *testing.T) {
	records := newFakeRecordRepo()
	svc := NewSelectionService(records, &fakeFeeRepo{}, defaultCardFee)

	_, err := svc.ComputeTotals(context.Background(), "U01", totalsRequest(model.ChannelCash, uuid.New()))

	var vErr *apierror.ValidationError
	require.True(t, errors.As(err, &vErr))
}
