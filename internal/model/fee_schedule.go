package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeSchedule holds the card acquirer fee rate per unit and channel.
// Rows are maintained by the finance team through the admin surface; the
// selector re-reads the rate on every totals computation (no caching).
type FeeSchedule struct {
	ID      uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UnitID  string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_fees_unit_channel,priority:1"`
	Channel string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_fees_unit_channel,priority:2"`
	// Rate is a fraction, e.g. 0.0329 for 3.29%.
	Rate      decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
