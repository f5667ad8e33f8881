package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods as reported by the scheduling system (LIS).
const (
	MethodCash       = "cash"
	MethodPix        = "pix"
	MethodCardCredit = "card_credit"
	MethodCardDebit  = "card_debit"
	MethodUnpaid     = "unpaid"
)

// Payment channels a closing envelope is sealed against. Credit and debit
// cards settle through the same acquirer batch, so they share one channel.
const (
	ChannelCash = "cash"
	ChannelPix  = "pix"
	ChannelCard = "card"
)

// Record payment statuses.
const (
	StatusPending    = "pending"    // cash component awaiting a closing
	StatusReceivable = "receivable" // owed by the insurer, nothing to close
	StatusPaid       = "paid"       // linked to a sealed envelope
)

// MethodsForChannel maps a closing channel to the payment methods it covers.
func MethodsForChannel(channel string) []string {
	switch channel {
	case ChannelCash:
		return []string{MethodCash}
	case ChannelPix:
		return []string{MethodPix}
	case ChannelCard:
		return []string{MethodCardCredit, MethodCardDebit}
	default:
		return nil
	}
}

// ServiceRecord is one billable service event imported from the lab
// scheduling system. The external LIS code is the correlation key against
// bank ledger transactions.
//
// Invariant: CashComponent + ReceivableComponent == GrossAmount after split.
// Invariant: PaymentStatus == "paid" ⇔ EnvelopeID != nil.
// Records are never deleted, only superseded by status.
type ServiceRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExternalCode string    `gorm:"type:varchar(40);not null;uniqueIndex:idx_records_unit_code,priority:2"`
	UnitID       string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_records_unit_code,priority:1;index"`
	ServiceDate  time.Time `gorm:"type:date;not null;index"`
	// PatientName is display-only; never used in matching.
	PatientName *string
	// PayerID is the insurer identifier; nil means self-pay.
	PayerID       *string         `gorm:"type:varchar(60)"`
	PaymentMethod string          `gorm:"type:varchar(20);not null"`
	GrossAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	NetAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// Components are derived once by the splitter at import time.
	CashComponent       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ReceivableComponent decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PaymentStatus       string          `gorm:"type:varchar(20);not null;default:'pending';index"`
	// EnvelopeID is set exactly once, inside the seal transaction.
	EnvelopeID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
