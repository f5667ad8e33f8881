package service

import (
	"context"
	"time"

	"labcaixa/internal/dto"
	"labcaixa/internal/model"
	"labcaixa/internal/repository"

	"github.com/rs/zerolog/log"
)

// IngestService receives the batches produced by the external collaborators:
// point-of-service records from the LIS importer and bank entries from the
// bookkeeping feed. Both are idempotent on their external identifiers —
// re-sending a batch never creates duplicates.
type IngestService interface {
	ImportRecords(ctx context.Context, unitID string, req dto.ImportRecordsRequest) (*dto.ImportRecordsResponse, error)
	ImportLedger(ctx context.Context, unitID string, req dto.ImportLedgerRequest) (*dto.ImportLedgerResponse, error)
}

type ingestService struct {
	records  repository.RecordRepository
	ledger   repository.LedgerRepository
	splitter *Splitter
}

func NewIngestService(records repository.RecordRepository, ledger repository.LedgerRepository, splitter *Splitter) IngestService {
	return &ingestService{records: records, ledger: ledger, splitter: splitter}
}

// ImportRecords runs the component splitter on each incoming record and
// persists the derived components alongside the raw tuple. Per-item results:
// one malformed record does not reject the batch.
func (s *ingestService) ImportRecords(ctx context.Context, unitID string, req dto.ImportRecordsRequest) (*dto.ImportRecordsResponse, error) {
	resp := &dto.ImportRecordsResponse{Results: make([]dto.ImportRecordResult, 0, len(req.Records))}

	for _, item := range req.Records {
		result := dto.ImportRecordResult{ExternalCode: item.ExternalCode}

		serviceDate, err := time.Parse("2006-01-02", item.ServiceDate)
		if err != nil {
			result.Status = "error"
			result.Detail = "invalid service_date"
			resp.Errors++
			resp.Results = append(resp.Results, result)
			continue
		}
		if item.GrossAmount.IsNegative() || item.NetAmount.IsNegative() {
			result.Status = "error"
			result.Detail = "negative amount"
			resp.Errors++
			resp.Results = append(resp.Results, result)
			continue
		}

		exists, err := s.records.ExistsByUnitCode(ctx, unitID, item.ExternalCode)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Status = "duplicate"
			resp.Duplicates++
			resp.Results = append(resp.Results, result)
			continue
		}

		split := s.splitter.Split(item.PaymentMethod, item.PayerID, item.GrossAmount, item.NetAmount)
		rec := model.ServiceRecord{
			ExternalCode:        item.ExternalCode,
			UnitID:              unitID,
			ServiceDate:         serviceDate,
			PatientName:         item.PatientName,
			PayerID:             item.PayerID,
			PaymentMethod:       item.PaymentMethod,
			GrossAmount:         item.GrossAmount,
			NetAmount:           item.NetAmount,
			CashComponent:       split.CashComponent,
			ReceivableComponent: split.ReceivableComponent,
			PaymentStatus:       split.PaymentStatus,
		}
		if err := s.records.Create(ctx, &rec); err != nil {
			result.Status = "error"
			result.Detail = "persist failed"
			resp.Errors++
			resp.Results = append(resp.Results, result)
			log.Error().Err(err).Str("code", item.ExternalCode).Msg("ingest: record create failed")
			continue
		}

		result.Status = "imported"
		result.PaymentStatus = split.PaymentStatus
		result.CashComponent = split.CashComponent
		result.ReceivableComponent = split.ReceivableComponent
		resp.Imported++
		resp.Results = append(resp.Results, result)
	}

	log.Info().
		Str("unit_id", unitID).
		Int("imported", resp.Imported).
		Int("duplicates", resp.Duplicates).
		Int("errors", resp.Errors).
		Msg("ingest: record batch processed")
	return resp, nil
}

func (s *ingestService) ImportLedger(ctx context.Context, unitID string, req dto.ImportLedgerRequest) (*dto.ImportLedgerResponse, error) {
	resp := &dto.ImportLedgerResponse{}
	for _, item := range req.Transactions {
		entryDate, err := time.Parse("2006-01-02", item.EntryDate)
		if err != nil {
			continue
		}
		exists, err := s.ledger.ExistsByExternalID(ctx, item.ExternalID)
		if err != nil {
			return nil, err
		}
		if exists {
			resp.Duplicates++
			continue
		}
		txn := model.LedgerTransaction{
			ExternalID:      item.ExternalID,
			UnitID:          unitID,
			EntryDate:       entryDate,
			Amount:          item.Amount,
			CorrelationCode: item.CorrelationCode,
			Approved:        item.Approved,
			Deleted:         item.Deleted,
		}
		if item.CorrelationCode != nil && *item.CorrelationCode != "" {
			origin := model.OriginImport
			txn.CodeOrigin = &origin
		}
		if err := s.ledger.Create(ctx, &txn); err != nil {
			log.Error().Err(err).Str("external_id", item.ExternalID).Msg("ingest: ledger create failed")
			continue
		}
		resp.Imported++
	}
	return resp, nil
}
