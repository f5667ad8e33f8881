package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Envelope statuses. Transitions only move forward:
// pending → issued → reviewed | reviewed_with_difference.
const (
	EnvelopePending      = "pending"
	EnvelopeIssued       = "issued"
	EnvelopeReviewed     = "reviewed"
	EnvelopeReviewedDiff = "reviewed_with_difference"
)

// Envelope is one unit's sealed cash-handling batch for one channel and date.
// Never deleted — it is the audit trail of the physical cash movement.
//
// Code is derived from (unit, date, sequence) and is reproducible for audit
// cross-referencing; Sequence is scoped per unit+date and guarded by a unique
// index so concurrent seals cannot silently collide.
type Envelope struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code string    `gorm:"type:varchar(30);not null;uniqueIndex"`

	UnitID    string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_envelopes_unit_date_seq,priority:1;index"`
	BatchDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_envelopes_unit_date_seq,priority:2"`
	Sequence  int       `gorm:"not null;uniqueIndex:idx_envelopes_unit_date_seq,priority:3"`
	Channel   string    `gorm:"type:varchar(10);not null"`

	ExpectedCash decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CountedCash  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Difference = CountedCash - ExpectedCash.
	Difference    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	HasDifference bool            `gorm:"not null;default:false"`

	Status      string `gorm:"type:varchar(30);not null;default:'pending';index"`
	RecordCount int    `gorm:"not null"`

	SealedBy uuid.UUID `gorm:"type:uuid;not null"`
	SealedAt time.Time

	// LabelIssuedAt is set at most once — the one-shot physical label guard.
	LabelIssuedAt *time.Time
	LabelIssuedBy *uuid.UUID `gorm:"type:uuid"`
	LabelPath     *string

	ReviewedAt *time.Time
	ReviewedBy *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Records []ServiceRecord `gorm:"foreignKey:EnvelopeID"`
	Notes   []EnvelopeNote  `gorm:"foreignKey:EnvelopeID"`
}

// EnvelopeNote is an append-only annotation (difference justification,
// supervisor remark). Notes are never edited or deleted, and can only be
// attached while the envelope is in a pre-terminal state.
type EnvelopeNote struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EnvelopeID uuid.UUID `gorm:"type:uuid;index;not null"`
	AuthorID   uuid.UUID `gorm:"type:uuid;not null"`
	Body       string    `gorm:"not null"`
	CreatedAt  time.Time
}
