package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ReviewFilter struct {
	UnitID       string
	From         string
	To           string
	OnlyWithDiff bool
	Page         int
	Limit        int
}

type BulkReviewRequest struct {
	EnvelopeIDs []string `json:"envelope_ids" validate:"required,min=1,dive,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ReviewListResponse struct {
	Data  []EnvelopeResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type ReviewStatsResponse struct {
	PendingCount        int64           `json:"pending_count"`
	WithDifferenceCount int64           `json:"with_difference_count"`
	ReviewedTodayCount  int64           `json:"reviewed_today_count"`
	PendingValue        decimal.Decimal `json:"pending_value"`
	TotalDifference     decimal.Decimal `json:"total_difference"`
}

type BulkReviewResponse struct {
	Reviewed int      `json:"reviewed"`
	Skipped  int      `json:"skipped"` // already reviewed — idempotent no-ops
	Errors   []string `json:"errors,omitempty"`
}
