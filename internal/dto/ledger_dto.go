package dto

import "github.com/shopspring/decimal"

// ImportLedgerItem is one bank/bookkeeping entry tuple as produced by the
// external bookkeeping system.
type ImportLedgerItem struct {
	ExternalID      string          `json:"external_id"      validate:"required,min=1,max=60"`
	EntryDate       string          `json:"entry_date"       validate:"required,datetime=2006-01-02"`
	Amount          decimal.Decimal `json:"amount"           validate:"min=0"`
	CorrelationCode *string         `json:"correlation_code"`
	Approved        bool            `json:"approved"`
	Deleted         bool            `json:"deleted"`
}

type ImportLedgerRequest struct {
	Transactions []ImportLedgerItem `json:"transactions" validate:"required,min=1,dive"`
}

type ImportLedgerResponse struct {
	Imported   int `json:"imported"`
	Duplicates int `json:"duplicates"`
}
