package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Correlation code origins.
const (
	OriginImport = "import" // code came with the bookkeeping feed
	OriginManual = "manual" // code stamped by an operator via LinkManually
)

// LedgerTransaction is one incoming bank/bookkeeping entry for a unit.
// Rows are imported from the external bookkeeping system; the matcher only
// considers approved, non-deleted entries.
type LedgerTransaction struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExternalID string    `gorm:"type:varchar(60);not null;uniqueIndex"`
	UnitID     string    `gorm:"type:varchar(20);not null;index"`
	EntryDate  time.Time `gorm:"type:date;not null;index"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// CorrelationCode is the LIS code the bank description carried, if any.
	CorrelationCode *string `gorm:"type:varchar(40);index"`
	CodeOrigin      *string `gorm:"type:varchar(10)"`
	Approved        bool    `gorm:"not null;default:false"`
	Deleted         bool    `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
