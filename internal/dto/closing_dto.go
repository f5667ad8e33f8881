package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SealRequest struct {
	Channel     string          `json:"channel"      validate:"required,oneof=cash pix card"`
	BatchDate   string          `json:"batch_date"   validate:"required,datetime=2006-01-02"`
	RecordIDs   []string        `json:"record_ids"   validate:"required,min=1,dive,uuid"`
	CountedCash decimal.Decimal `json:"counted_cash" validate:"min=0"`
	Notes       *string         `json:"notes"`
}

type NoteRequest struct {
	Body string `json:"body" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type EnvelopeNoteResponse struct {
	AuthorID  string `json:"author_id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

type EnvelopeResponse struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	UnitID        string          `json:"unit_id"`
	BatchDate     string          `json:"batch_date"`
	Sequence      int             `json:"sequence"`
	Channel       string          `json:"channel"`
	ExpectedCash  decimal.Decimal `json:"expected_cash"`
	CountedCash   decimal.Decimal `json:"counted_cash"`
	Difference    decimal.Decimal `json:"difference"`
	HasDifference bool            `json:"has_difference"`
	Status        string          `json:"status"`
	RecordCount   int             `json:"record_count"`
	RecordCodes   []string        `json:"record_codes,omitempty"`
	SealedBy      string          `json:"sealed_by"`
	SealedAt      string          `json:"sealed_at"`
	LabelIssuedAt *string         `json:"label_issued_at"`
	ReviewedAt    *string         `json:"reviewed_at"`
	ReviewedBy    *string         `json:"reviewed_by"`
	Notes         []EnvelopeNoteResponse `json:"notes,omitempty"`
}

type LabelResponse struct {
	EnvelopeCode  string `json:"envelope_code"`
	LabelIssuedAt string `json:"label_issued_at"`
	LabelURL      string `json:"label_url"`
}
