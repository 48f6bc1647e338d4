package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementMethod records how a settlement payment was made.
type SettlementMethod string

const (
	SettlementMethodCash         SettlementMethod = "CASH"
	SettlementMethodVenmo        SettlementMethod = "VENMO"
	SettlementMethodPaypal       SettlementMethod = "PAYPAL"
	SettlementMethodBankTransfer SettlementMethod = "BANK_TRANSFER"
	SettlementMethodOther        SettlementMethod = "OTHER"
)

// Settlement records a payment from one user to another that clears debt
// between them. The ledger effect (reducing what FromUserID owes ToUserID)
// is applied by the settlement service, not by this record.
type Settlement struct {
	ID         string
	FromUserID string // who paid
	ToUserID   string // who received
	Amount     decimal.Decimal
	Currency   string
	GroupID    string // empty for personal settlements
	Note       string
	Method     SettlementMethod
	SettledAt  time.Time
	Active     bool
}

// Validate ensures the settlement adheres to domain rules.
func (s *Settlement) Validate() error {
	if s.FromUserID == "" || s.ToUserID == "" {
		return NewValidationError("settlement requires both payer and recipient")
	}
	if s.FromUserID == s.ToUserID {
		return NewValidationError("cannot settle with yourself")
	}
	if s.Amount.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("settlement amount must be positive")
	}
	return nil
}
