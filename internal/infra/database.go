package infra

import (
	"fmt"

	"labcaixa/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate,
// then applies the idempotent SQL patches GORM cannot express (partial
// indexes). TranslateError is enabled so unique-constraint violations surface
// as gorm.ErrDuplicatedKey — the seal path relies on that for its
// sequence-collision retry.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(
		&model.ServiceRecord{},
		&model.Envelope{},
		&model.EnvelopeNote{},
		&model.LedgerTransaction{},
		&model.ReconciliationResolution{},
		&model.FeeSchedule{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot fully handle.
// Each statement is guarded so re-running on a patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Partial index for the review queue — the hot query only ever scans
		// not-yet-reviewed envelopes.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_envelopes_open_review') THEN
		    CREATE INDEX idx_envelopes_open_review
		        ON envelopes (unit_id, batch_date)
		        WHERE status IN ('pending', 'issued');
		  END IF;
		END $$`,
		// Partial index for the matcher: only approved, live ledger entries
		// are ever read.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_ledger_approved_live') THEN
		    CREATE INDEX idx_ledger_approved_live
		        ON ledger_transactions (unit_id, entry_date)
		        WHERE approved = true AND deleted = false;
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
