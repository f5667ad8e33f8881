package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ImportRecordItem is one point-of-service record as produced by the LIS
// importer. external_code must be unique per unit per batch.
type ImportRecordItem struct {
	ExternalCode  string          `json:"external_code"  validate:"required,min=1,max=40"`
	ServiceDate   string          `json:"service_date"   validate:"required,datetime=2006-01-02"`
	PatientName   *string         `json:"patient_name"`
	PayerID       *string         `json:"payer_id"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash pix card_credit card_debit unpaid"`
	GrossAmount   decimal.Decimal `json:"gross_amount"   validate:"min=0"`
	NetAmount     decimal.Decimal `json:"net_amount"     validate:"min=0"`
}

type ImportRecordsRequest struct {
	Records []ImportRecordItem `json:"records" validate:"required,min=1,dive"`
}

// SelectionTotalsRequest carries the operator's current selection. Selection
// state lives only in the request — the server re-derives eligibility and
// amounts, never trusting client-side sums.
type SelectionTotalsRequest struct {
	Channel   string   `json:"channel"    validate:"required,oneof=cash pix card"`
	RecordIDs []string `json:"record_ids" validate:"required,min=1,dive,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ImportRecordResult struct {
	ExternalCode        string          `json:"external_code"`
	Status              string          `json:"status"` // imported | duplicate | error
	PaymentStatus       string          `json:"payment_status,omitempty"`
	CashComponent       decimal.Decimal `json:"cash_component"`
	ReceivableComponent decimal.Decimal `json:"receivable_component"`
	Detail              string          `json:"detail,omitempty"`
}

type ImportRecordsResponse struct {
	Imported   int                  `json:"imported"`
	Duplicates int                  `json:"duplicates"`
	Errors     int                  `json:"errors"`
	Results    []ImportRecordResult `json:"results"`
}

type EligibleRecordResponse struct {
	ID            string          `json:"id"`
	ExternalCode  string          `json:"external_code"`
	ServiceDate   string          `json:"service_date"`
	PatientName   *string         `json:"patient_name"`
	PaymentMethod string          `json:"payment_method"`
	GrossAmount   decimal.Decimal `json:"gross_amount"`
	CashComponent decimal.Decimal `json:"cash_component"`
}

// SelectionTotalsResponse mirrors what the seal endpoint will recompute.
// Fee fields are zero for the cash and pix channels.
type SelectionTotalsResponse struct {
	Channel     string          `json:"channel"`
	Count       int             `json:"count"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	FeeRate     decimal.Decimal `json:"fee_rate"`
	FeeAmount   decimal.Decimal `json:"fee_amount"`
	NetAmount   decimal.Decimal `json:"net_amount"`
}
