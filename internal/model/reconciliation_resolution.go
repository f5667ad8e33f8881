package model

import (
	"time"

	"github.com/google/uuid"
)

// Resolution outcomes recorded by a human reviewer.
const (
	ResolutionPending    = "pending"
	ResolutionReconciled = "reconciled"
	ResolutionNoMatch    = "no_match"
	ResolutionIgnored    = "ignored"
)

// ReconciliationResolution is an immutable audit record of a human decision
// over one correlation code. Append-only: rows are never updated or deleted.
type ReconciliationResolution struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UnitID          string    `gorm:"type:varchar(20);not null;index"`
	CorrelationCode string    `gorm:"type:varchar(40);not null;index"`
	EntryDate       time.Time `gorm:"type:date;not null"`
	Outcome         string    `gorm:"type:varchar(20);not null"`
	Notes           *string
	ActorID         uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt       time.Time
}
