package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LinkRequest struct {
	TransactionID   string `json:"transaction_id"   validate:"required,uuid"`
	CorrelationCode string `json:"correlation_code" validate:"required,min=1,max=40"`
}

type ResolutionRequest struct {
	CorrelationCode string  `json:"correlation_code" validate:"required,min=1,max=40"`
	EntryDate       string  `json:"entry_date"       validate:"required,datetime=2006-01-02"`
	Outcome         string  `json:"outcome"          validate:"required,oneof=pending reconciled no_match ignored"`
	Notes           *string `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RecordSummary struct {
	ID            string          `json:"id"`
	ExternalCode  string          `json:"external_code"`
	ServiceDate   string          `json:"service_date"`
	PaymentMethod string          `json:"payment_method"`
	CashComponent decimal.Decimal `json:"cash_component"`
}

type TransactionSummary struct {
	ID              string          `json:"id"`
	ExternalID      string          `json:"external_id"`
	EntryDate       string          `json:"entry_date"`
	Amount          decimal.Decimal `json:"amount"`
	CorrelationCode *string         `json:"correlation_code"`
}

// MatchedPair places the record and transaction amounts side by side for
// discrepancy inspection; differing amounts are NOT auto-reconciled.
type MatchedPair struct {
	CorrelationCode string             `json:"correlation_code"`
	Record          RecordSummary      `json:"record"`
	Transaction     TransactionSummary `json:"transaction"`
	AmountDelta     decimal.Decimal    `json:"amount_delta"`
}

// DuplicateGroup reports ≥2 ledger transactions carrying the same code — a
// data-quality signal for human review.
type DuplicateGroup struct {
	CorrelationCode string               `json:"correlation_code"`
	Transactions    []TransactionSummary `json:"transactions"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
}

type ReconcileTotals struct {
	MatchedCount       int             `json:"matched_count"`
	LisOrphanCount     int             `json:"lis_orphan_count"`
	LedgerOrphanCount  int             `json:"ledger_orphan_count"`
	DuplicateCount     int             `json:"duplicate_count"`
	MatchedAmount      decimal.Decimal `json:"matched_amount"`
	LisOrphanAmount    decimal.Decimal `json:"lis_orphan_amount"`
	LedgerOrphanAmount decimal.Decimal `json:"ledger_orphan_amount"`
}

type ReconcileResponse struct {
	UnitID        string               `json:"unit_id"`
	From          string               `json:"from"`
	To            string               `json:"to"`
	Matched       []MatchedPair        `json:"matched"`
	LisOrphans    []RecordSummary      `json:"lis_orphans"`
	LedgerOrphans []TransactionSummary `json:"ledger_orphans"`
	Duplicates    []DuplicateGroup     `json:"duplicates"`
	Totals        ReconcileTotals      `json:"totals"`
}

type ResolutionResponse struct {
	ID              string  `json:"id"`
	CorrelationCode string  `json:"correlation_code"`
	EntryDate       string  `json:"entry_date"`
	Outcome         string  `json:"outcome"`
	Notes           *string `json:"notes"`
	ActorID         string  `json:"actor_id"`
	CreatedAt       string  `json:"created_at"`
}
