package worker

// ledger_sync.go
// Background goroutine that periodically pulls approved ledger entries from
// the external bookkeeping API and mirrors them locally for the matcher.
// Uses the Circuit Breaker to avoid hammering a downed bookkeeping service.

import (
	"context"
	"time"

	"labcaixa/internal/infra"
	"labcaixa/internal/model"
	"labcaixa/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// LedgerSyncConfig holds all dependencies for the sync goroutine.
type LedgerSyncConfig struct {
	LedgerRepo repository.LedgerRepository
	Client     *infra.BookkeepingClient
	CB         *infra.CircuitBreaker
	Interval   time.Duration
	BatchSize  int
	// Lookback bounds how far back each tick asks the API for changes.
	Lookback time.Duration
}

// StartLedgerSync launches a background goroutine that ticks on the configured
// interval and pulls changed transactions through the circuit breaker.
// It respects the context for graceful shutdown.
func StartLedgerSync(ctx context.Context, cfg LedgerSyncConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 7 * 24 * time.Hour
	}

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("ledger_sync: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("ledger_sync: shutting down")
				return
			case <-ticker.C:
				syncOnce(ctx, cfg)
			}
		}
	}()
}

func syncOnce(ctx context.Context, cfg LedgerSyncConfig) {
	// If CB is open, skip entirely — don't hammer a downed service
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("ledger_sync: circuit breaker is open, skipping tick")
		return
	}

	since := time.Now().Add(-cfg.Lookback)
	cursor := ""
	imported, skipped := 0, 0

	for {
		var page *infra.BookkeepingPage
		cbErr := cfg.CB.Execute(func() error {
			p, err := cfg.Client.FetchTransactions(ctx, since, cursor, cfg.BatchSize)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if cbErr != nil {
			log.Error().Err(cbErr).Msg("ledger_sync: fetch failed")
			return
		}

		for i := range page.Transactions {
			if importTransaction(ctx, cfg.LedgerRepo, &page.Transactions[i]) {
				imported++
			} else {
				skipped++
			}
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	if imported > 0 || skipped > 0 {
		log.Info().
			Int("imported", imported).
			Int("skipped", skipped).
			Msg("ledger_sync: tick complete")
	}
}

// importTransaction inserts one remote entry, skipping duplicates and rows
// that fail to parse. Returns true when a new row was stored.
func importTransaction(ctx context.Context, repo repository.LedgerRepository, remote *infra.BookkeepingTransaction) bool {
	exists, err := repo.ExistsByExternalID(ctx, remote.ExternalID)
	if err != nil {
		log.Error().Err(err).Str("external_id", remote.ExternalID).Msg("ledger_sync: dedupe check failed")
		return false
	}
	if exists {
		return false
	}

	entryDate, err := time.Parse("2006-01-02", remote.EntryDate)
	if err != nil {
		log.Warn().Str("external_id", remote.ExternalID).Str("entry_date", remote.EntryDate).
			Msg("ledger_sync: invalid entry_date — skipping")
		return false
	}
	amount, err := decimal.NewFromString(remote.Amount)
	if err != nil {
		log.Warn().Str("external_id", remote.ExternalID).Str("amount", remote.Amount).
			Msg("ledger_sync: invalid amount — skipping")
		return false
	}

	txn := model.LedgerTransaction{
		ExternalID: remote.ExternalID,
		UnitID:     remote.UnitID,
		EntryDate:  entryDate,
		Amount:     amount,
		Approved:   remote.Approved,
		Deleted:    remote.Deleted,
	}
	if remote.CorrelationCode != "" {
		code := remote.CorrelationCode
		origin := model.OriginImport
		txn.CorrelationCode = &code
		txn.CodeOrigin = &origin
	}

	if err := repo.Create(ctx, &txn); err != nil {
		log.Error().Err(err).Str("external_id", remote.ExternalID).Msg("ledger_sync: insert failed")
		return false
	}
	return true
}
