package service

import (
	"strings"

	"labcaixa/internal/model"

	"github.com/shopspring/decimal"
)

// SplitResult is the derived monetary decomposition of one service record.
// CashComponent + ReceivableComponent always equals the gross amount.
type SplitResult struct {
	CashComponent       decimal.Decimal
	ReceivableComponent decimal.Decimal
	PaymentStatus       string
}

// PayerClassifier decides whether a payer identifier means self-pay.
// Injected as configuration so the matching policy can change without
// touching the split rules.
type PayerClassifier func(payerID *string) bool

// NewKeywordClassifier builds a classifier from lowercase payer-name
// fragments (default: "particular"). A nil payer is always self-pay.
func NewKeywordClassifier(keywords []string) PayerClassifier {
	return func(payerID *string) bool {
		if payerID == nil || strings.TrimSpace(*payerID) == "" {
			return true
		}
		p := strings.ToLower(*payerID)
		for _, kw := range keywords {
			if strings.Contains(p, kw) {
				return true
			}
		}
		return false
	}
}

// Splitter derives the cash and receivable components of a record.
// Pure and deterministic: same inputs always yield the same triple, a
// requirement for reconciliation audits to be reproducible.
type Splitter struct {
	isSelfPay PayerClassifier
}

func NewSplitter(classifier PayerClassifier) *Splitter {
	return &Splitter{isSelfPay: classifier}
}

// Split applies the priority rules:
//  1. unpaid method        → everything receivable
//  2. self-pay             → collected net is cash, nothing receivable
//  3. insurance with co-pay → net is cash, remainder receivable
//  4. pure insurance       → everything receivable
func (s *Splitter) Split(paymentMethod string, payerID *string, gross, net decimal.Decimal) SplitResult {
	if paymentMethod == model.MethodUnpaid {
		return SplitResult{
			CashComponent:       decimal.Zero,
			ReceivableComponent: gross,
			PaymentStatus:       model.StatusReceivable,
		}
	}

	if s.isSelfPay(payerID) {
		return SplitResult{
			CashComponent:       net,
			ReceivableComponent: decimal.Zero,
			PaymentStatus:       model.StatusPending,
		}
	}

	if net.IsPositive() {
		receivable := gross.Sub(net)
		if receivable.IsNegative() {
			receivable = decimal.Zero
		}
		return SplitResult{
			CashComponent:       net,
			ReceivableComponent: receivable,
			PaymentStatus:       model.StatusPending,
		}
	}

	return SplitResult{
		CashComponent:       decimal.Zero,
		ReceivableComponent: gross,
		PaymentStatus:       model.StatusReceivable,
	}
}
