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

func ledgerTxn(unitID, externalID string, code *string, amount float64) model.LedgerTransaction {
	return model.LedgerTransaction{
		ID:              uuid.New(),
		ExternalID:      externalID,
		UnitID:          unitID,
		EntryDate:       mustDate("2026-03-10"),
		Amount:          decimal.NewFromFloat(amount),
		CorrelationCode: code,
		Approved:        true,
	}
}

func TestPartition_ExactMatch(t *testing.T) {
	rec := *pendingRecord("U01", "LIS-100", model.MethodCash, 250)
	txn := ledgerTxn("U01", "BK-1", strptr("LIS-100"), 250)

	resp := Partition([]model.ServiceRecord{rec}, []model.LedgerTransaction{txn})

	require.Len(t, resp.Matched, 1)
	assert.Equal(t, "LIS-100", resp.Matched[0].CorrelationCode)
	assert.True(t, resp.Matched[0].AmountDelta.IsZero())
	assert.Empty(t, resp.LisOrphans)
	assert.Empty(t, resp.LedgerOrphans)
	assert.Empty(t, resp.Duplicates)
}

func TestPartition_AmountMismatchStaysMatchedWithDelta(t *testing.T) {
	rec := *pendingRecord("U01", "LIS-100", model.MethodCash, 250)
	txn := ledgerTxn("U01", "BK-1", strptr("LIS-100"), 245)

	resp := Partition([]model.ServiceRecord{rec}, []model.LedgerTransaction{txn})

	require.Len(t, resp.Matched, 1)
	assert.True(t, resp.Matched[0].AmountDelta.Equal(decimal.NewFromFloat(-5)))
}

func TestPartition_Orphans(t *testing.T) {
	recNoTxn := *pendingRecord("U01", "LIS-200", model.MethodCash, 100)
	txnNoRec := ledgerTxn("U01", "BK-2", strptr("LIS-999"), 80)
	txnCodeless := ledgerTxn("U01", "BK-3", nil, 60)

	resp := Partition([]model.ServiceRecord{recNoTxn}, []model.LedgerTransaction{txnNoRec, txnCodeless})

	require.Len(t, resp.LisOrphans, 1)
	assert.Equal(t, "LIS-200", resp.LisOrphans[0].ExternalCode)
	require.Len(t, resp.LedgerOrphans, 2)
	assert.Empty(t, resp.Matched)
}

func TestPartition_DuplicateTransactionsNeverAutoMatch(t *testing.T) {
	rec := *pendingRecord("U01", "LIS-300", model.MethodPix, 120)
	dup1 := ledgerTxn("U01", "BK-4", strptr("LIS-300"), 120)
	dup2 := ledgerTxn("U01", "BK-5", strptr("LIS-300"), 120)

	resp := Partition([]model.ServiceRecord{rec}, []model.LedgerTransaction{dup1, dup2})

	assert.Empty(t, resp.Matched)
	require.Len(t, resp.Duplicates, 1)
	assert.Len(t, resp.Duplicates[0].Transactions, 2)
	assert.True(t, resp.Duplicates[0].TotalAmount.Equal(decimal.NewFromFloat(240)))
	// The record is surfaced for review, not guessed at.
	require.Len(t, resp.LisOrphans, 1)
	assert.Equal(t, "LIS-300", resp.LisOrphans[0].ExternalCode)
}

func TestPartition_EveryInputLandsInExactlyOneBucket(t *testing.T) {
	recs := []model.ServiceRecord{
		*pendingRecord("U01", "LIS-1", model.MethodCash, 10),
		*pendingRecord("U01", "LIS-2", model.MethodCash, 20),
		*pendingRecord("U01", "LIS-3", model.MethodPix, 30),
		*pendingRecord("U01", "LIS-3", model.MethodCash, 35), // split billing, same code
	}
	txns := []model.LedgerTransaction{
		ledgerTxn("U01", "BK-1", strptr("LIS-1"), 10),
		ledgerTxn("U01", "BK-2", strptr("LIS-2"), 20),
		ledgerTxn("U01", "BK-3", strptr("LIS-2"), 20), // duplicate of LIS-2
		ledgerTxn("U01", "BK-4", strptr("LIS-9"), 99),
		ledgerTxn("U01", "BK-5", nil, 5),
	}

	resp := Partition(recs, txns)

	recordsOut := len(resp.Matched) + len(resp.LisOrphans)
	txnsOut := len(resp.Matched) + len(resp.LedgerOrphans)
	for _, d := range resp.Duplicates {
		txnsOut += len(d.Transactions)
	}
	assert.Equal(t, len(recs), recordsOut)
	assert.Equal(t, len(txns), txnsOut)
	assert.Equal(t, resp.Totals.MatchedCount, len(resp.Matched))
	assert.Equal(t, resp.Totals.LisOrphanCount, len(resp.LisOrphans))
	assert.Equal(t, resp.Totals.LedgerOrphanCount, len(resp.LedgerOrphans))
}

func TestReconcile_RejectsInvertedRange(t *testing.T) {
	svc := NewReconciliationService(newFakeRecordRepo(), newFakeLedgerRepo(), &fakeResolutionRepo{})

	_, err := svc.Reconcile(context.Background(), "U01", mustDate("2026-03-10"), mustDate("2026-03-01"))

	var vErr *apierror.ValidationError
	require.True(t, errors.As(err, &vErr))
}

func TestLinkManually_StampsCodeOnce(t *testing.T) {
	ledger := newFakeLedgerRepo()
	svc := NewReconciliationService(newFakeRecordRepo(), ledger, &fakeResolutionRepo{})

	txn := ledgerTxn("U01", "BK-7", nil, 150)
	require.NoError(t, ledger.Create(context.Background(), &txn))

	req := dto.LinkRequest{TransactionID: txn.ID.String(), CorrelationCode: "LIS-700"}
	require.NoError(t, svc.LinkManually(context.Background(), "U01", req))

	stored, _ := ledger.FindByID(context.Background(), txn.ID)
	require.NotNil(t, stored.CorrelationCode)
	assert.Equal(t, "LIS-700", *stored.CorrelationCode)
	require.NotNil(t, stored.CodeOrigin)
	assert.Equal(t, model.OriginManual, *stored.CodeOrigin)

	// A second stamp on the same transaction is a conflict.
	err := svc.LinkManually(context.Background(), "U01", dto.LinkRequest{
		TransactionID: txn.ID.String(), CorrelationCode: "LIS-701",
	})
	var conflict *apierror.ConflictError
	require.True(t, errors.As(err, &conflict))
}

func TestLinkManually_RejectsForeignUnit(t *testing.T) {
	ledger := newFakeLedgerRepo()
	svc := NewReconciliationService(newFakeRecordRepo(), ledger, &fakeResolutionRepo{})

	txn := ledgerTxn("U02", "BK-8", nil, 90)
	require.NoError(t, ledger.Create(context.Background(), &txn))

	err := svc.LinkManually(context.Background(), "U01", dto.LinkRequest{
		TransactionID: txn.ID.String(), CorrelationCode: "LIS-800",
	})

	var vErr *apierror.ValidationError
	require.True(t, errors.As(err, &vErr))
}

func TestLogResolution_AppendsAuditRow(t *testing.T) {
	resolutions := &fakeResolutionRepo{}
	svc := NewReconciliationService(newFakeRecordRepo(), newFakeLedgerRepo(), resolutions)
	actor := uuid.New()

	resp, err := svc.LogResolution(context.Background(), "U01", actor, dto.ResolutionRequest{
		CorrelationCode: "LIS-900",
		EntryDate:       "2026-03-10",
		Outcome:         model.ResolutionNoMatch,
		Notes:           strptr("estorno confirmado com o banco"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ResolutionNoMatch, resp.Outcome)

	rows, err := svc.ListResolutions(context.Background(), "U01", "LIS-900", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, actor.String(), rows[0].ActorID)
}
