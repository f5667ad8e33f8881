package service

import (
	"context"
	"testing"

	"labcaixa/internal/dto"
	"labcaixa/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIngestFixture() (*fakeRecordRepo, *fakeLedgerRepo, IngestService) {
	records := newFakeRecordRepo()
	ledger := newFakeLedgerRepo()
	svc := NewIngestService(records, ledger, newTestSplitter())
	return records, ledger, svc
}

func recordItem(code, method string, gross, net float64) dto.ImportRecordItem {
	return dto.ImportRecordItem{
		ExternalCode:  code,
		ServiceDate:   "2026-03-10",
		PaymentMethod: method,
		GrossAmount:   decimal.NewFromFloat(gross),
		NetAmount:     decimal.NewFromFloat(net),
	}
}

func TestImportRecords_SplitsComponentsOnImport(t *testing.T) {
	_, _, svc := newIngestFixture()

	item := recordItem("LIS-1", model.MethodCash, 200, 30)
	item.PayerID = strptr("Unimed")

	resp, err := svc.ImportRecords(context.Background(), "U01", dto.ImportRecordsRequest{
		Records: []dto.ImportRecordItem{item},
	})
	require.NoError(t, err)

	require.Equal(t, 1, resp.Imported)
	result := resp.Results[0]
	assert.Equal(t, "imported", result.Status)
	assert.True(t, result.CashComponent.Equal(decimal.NewFromFloat(30)))
	assert.True(t, result.ReceivableComponent.Equal(decimal.NewFromFloat(170)))
	assert.Equal(t, model.StatusPending, result.PaymentStatus)
}

func TestImportRecords_ResendingBatchIsIdempotent(t *testing.T) {
	_, _, svc := newIngestFixture()

	req := dto.ImportRecordsRequest{Records: []dto.ImportRecordItem{
		recordItem("LIS-1", model.MethodCash, 100, 100),
	}}

	first, err := svc.ImportRecords(context.Background(), "U01", req)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Imported)

	second, err := svc.ImportRecords(context.Background(), "U01", req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 1, second.Duplicates)
}

func TestImportRecords_OneBadItemDoesNotRejectBatch(t *testing.T) {
	_, _, svc := newIngestFixture()

	bad := recordItem("LIS-BAD", model.MethodCash, 100, 100)
	bad.ServiceDate = "10/03/2026"

	resp, err := svc.ImportRecords(context.Background(), "U01", dto.ImportRecordsRequest{
		Records: []dto.ImportRecordItem{bad, recordItem("LIS-OK", model.MethodCash, 50, 50)},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Imported)
	assert.Equal(t, 1, resp.Errors)
	assert.Equal(t, "error", resp.Results[0].Status)
	assert.Equal(t, "imported", resp.Results[1].Status)
}

func TestImportLedger_DeduplicatesOnExternalID(t *testing.T) {
	_, ledger, svc := newIngestFixture()

	req := dto.ImportLedgerRequest{Transactions: []dto.ImportLedgerItem{
		{
			ExternalID:      "BK-1",
			EntryDate:       "2026-03-10",
			Amount:          decimal.NewFromFloat(250),
			CorrelationCode: strptr("LIS-1"),
			Approved:        true,
		},
	}}

	first, err := svc.ImportLedger(context.Background(), "U01", req)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Imported)

	second, err := svc.ImportLedger(context.Background(), "U01", req)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Duplicates)

	// Imported feed codes carry origin=import for the audit trail.
	for _, txn := range ledger.txns {
		require.NotNil(t, txn.CodeOrigin)
		assert.Equal(t, model.OriginImport, *txn.CodeOrigin)
	}
}
