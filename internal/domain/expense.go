package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SplitType determines how one participant's share of an expense is derived.
type SplitType string

const (
	SplitTypeEqual   SplitType = "EQUAL"   // split the remainder evenly
	SplitTypePercent SplitType = "PERCENT" // percentage of the original total
	SplitTypeAmount  SplitType = "AMOUNT"  // fixed amount
)

// Category classifies an expense for display and reporting.
type Category string

const (
	CategoryGeneral        Category = "GENERAL"
	CategoryFood           Category = "FOOD"
	CategoryTransportation Category = "TRANSPORTATION"
	CategoryEntertainment  Category = "ENTERTAINMENT"
	CategoryShopping       Category = "SHOPPING"
	CategoryUtilities      Category = "UTILITIES"
	CategoryRent           Category = "RENT"
	CategoryTravel         Category = "TRAVEL"
	CategoryOther          Category = "OTHER"
)

// Split is one participant's computed share of an expense. Splits are owned
// by their parent expense and never mutated after creation.
type Split struct {
	UserID     string
	UserName   string // cached for display
	Type       SplitType
	Value      decimal.Decimal // percentage or fixed amount; computed share for EQUAL
	AmountOwed decimal.Decimal
}

// Expense is a shared cost paid by one user and split among participants.
// The split list and total are immutable once the expense is Active; only
// the Active flag may transition true -> false (soft delete).
type Expense struct {
	ID          string
	Description string
	TotalAmount decimal.Decimal
	Currency    string
	PayerID     string
	PayerName   string // cached for display
	GroupID     string // empty for personal expenses
	GroupName   string // cached for display
	Splits      []Split
	Category    Category
	Notes       string
	CreatedAt   time.Time
	OccurredAt  time.Time
	Active      bool
}

// TotalSplitAmount sums the owed amounts across all splits.
func (e *Expense) TotalSplitAmount() decimal.Decimal {
	total := decimal.Zero
	for _, s := range e.Splits {
		total = total.Add(s.AmountOwed)
	}
	return total
}

// IsBalanced reports whether the split amounts sum exactly to the total.
// This is informational: rounding in EQUAL and PERCENT splits can leave a
// gap of a few cents, which is surfaced as-is rather than auto-corrected.
func (e *Expense) IsBalanced() bool {
	return e.TotalAmount.Equal(e.TotalSplitAmount())
}

// Involves reports whether the user is the payer or one of the participants.
func (e *Expense) Involves(userID string) bool {
	if e.PayerID == userID {
		return true
	}
	for _, s := range e.Splits {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

// Validate ensures the expense adheres to domain rules.
func (e *Expense) Validate() error {
	if len(e.Description) < 2 {
		return NewValidationError("description must be at least 2 characters")
	}
	if e.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("total amount must be positive")
	}
	if e.PayerID == "" {
		return NewValidationError("payer is required")
	}
	if len(e.Splits) == 0 {
		return NewValidationError("expense must have at least one split")
	}
	return nil
}
