package splitter

import (
	"github.com/shopspring/decimal"

	"github.com/splitpro/splitpro-backend/internal/domain"
)

// Spec is one participant's split instruction before computation.
type Spec struct {
	UserID string
	Type   domain.SplitType
	Value  decimal.Decimal // percentage for PERCENT, fixed amount for AMOUNT, ignored for EQUAL
}

// ComputeSplits turns a total amount and per-participant split instructions
// into computed splits, one per input spec.
// Logic (the pass order is observable financial behavior and must not change):
//  1. AMOUNT pass: deduct each fixed value from a running remainder,
//     failing if the remainder would go negative
//  2. PERCENT pass: each percentage applied to the *original* total,
//     rounded half-up to cents; the sum of percentages may not exceed 100.
//     This pass does not reduce the remainder.
//  3. EQUAL pass: the remainder (total minus AMOUNT deductions only) is
//     divided evenly, rounded half-up to cents, with no redistribution of
//     leftover cents
//
// The result may therefore not sum exactly to the total; Expense.IsBalanced
// reports that gap without correcting it.
func ComputeSplits(totalAmount decimal.Decimal, specs []Spec, participants map[string]*domain.User) ([]domain.Split, error) {
	if totalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("total amount must be positive")
	}
	if len(specs) == 0 {
		return nil, domain.NewValidationError("expense must have at least one split")
	}

	// Group specs by type, preserving input order within each group.
	var amountSpecs, percentSpecs, equalSpecs []Spec
	for _, spec := range specs {
		if _, ok := participants[spec.UserID]; !ok {
			return nil, domain.NewNotFoundError("participant", spec.UserID)
		}
		switch spec.Type {
		case domain.SplitTypeAmount:
			if spec.Value.LessThanOrEqual(decimal.Zero) {
				return nil, domain.NewValidationError("fixed split amount must be positive")
			}
			amountSpecs = append(amountSpecs, spec)
		case domain.SplitTypePercent:
			if spec.Value.LessThan(decimal.Zero) {
				return nil, domain.NewValidationError("percentage split cannot be negative")
			}
			percentSpecs = append(percentSpecs, spec)
		case domain.SplitTypeEqual:
			equalSpecs = append(equalSpecs, spec)
		default:
			return nil, domain.NewValidationError("unknown split type: %s", spec.Type)
		}
	}

	splits := make([]domain.Split, 0, len(specs))
	remaining := totalAmount

	// Pass 1: fixed amounts come off the remainder first.
	for _, spec := range amountSpecs {
		if spec.Value.GreaterThan(remaining) {
			return nil, domain.NewValidationError("fixed amount splits exceed total expense amount")
		}
		splits = append(splits, domain.Split{
			UserID:     spec.UserID,
			UserName:   participants[spec.UserID].Name,
			Type:       domain.SplitTypeAmount,
			Value:      spec.Value,
			AmountOwed: spec.Value,
		})
		remaining = remaining.Sub(spec.Value)
	}

	// Pass 2: percentages of the original total. The remainder is left
	// untouched, so PERCENT and EQUAL splits overlap when combined.
	if len(percentSpecs) > 0 {
		totalPercent := decimal.Zero
		for _, spec := range percentSpecs {
			totalPercent = totalPercent.Add(spec.Value)
		}
		if totalPercent.GreaterThan(decimal.NewFromInt(100)) {
			return nil, domain.NewValidationError("percentage splits cannot exceed 100%%")
		}
		for _, spec := range percentSpecs {
			splits = append(splits, domain.Split{
				UserID:     spec.UserID,
				UserName:   participants[spec.UserID].Name,
				Type:       domain.SplitTypePercent,
				Value:      spec.Value,
				AmountOwed: domain.PercentOf(totalAmount, spec.Value),
			})
		}
	}

	// Pass 3: the remainder is divided evenly. Every EQUAL participant gets
	// the identical rounded share; leftover cents are not redistributed.
	if len(equalSpecs) > 0 {
		equalAmount := domain.DivMoney(remaining, decimal.NewFromInt(int64(len(equalSpecs))))
		for _, spec := range equalSpecs {
			splits = append(splits, domain.Split{
				UserID:     spec.UserID,
				UserName:   participants[spec.UserID].Name,
				Type:       domain.SplitTypeEqual,
				Value:      equalAmount,
				AmountOwed: equalAmount,
			})
		}
	}

	return splits, nil
}
