package expense

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitpro/splitpro-backend/internal/domain"
	"github.com/splitpro/splitpro-backend/internal/metrics"
	"github.com/splitpro/splitpro-backend/internal/usecase/splitter"
)

// BalanceLedger is the slice of the ledger the expense lifecycle drives.
type BalanceLedger interface {
	ApplyTransfersWith(ctx context.Context, transfers []domain.Transfer, commit func(ctx context.Context) error) error
}

// CreateExpenseInput represents the input for creating an expense.
type CreateExpenseInput struct {
	Description string
	TotalAmount decimal.Decimal
	Currency    string
	GroupID     string // optional
	Category    domain.Category
	Notes       string
	OccurredAt  time.Time // zero value means now
	Splits      []splitter.Spec
}

// Service sequences the expense lifecycle: validation, split calculation,
// persistence and ledger mutation on create, and the mirror flow on delete.
// It is the only component that translates lower-level failures into the
// caller-facing error kinds.
type Service struct {
	ExpenseRepo domain.ExpenseRepository
	UserRepo    domain.UserRepository
	GroupRepo   domain.GroupRepository
	Ledger      BalanceLedger
}

// NewService creates a new expense Service instance.
func NewService(
	expenseRepo domain.ExpenseRepository,
	userRepo domain.UserRepository,
	groupRepo domain.GroupRepository,
	ledger BalanceLedger,
) *Service {
	return &Service{
		ExpenseRepo: expenseRepo,
		UserRepo:    userRepo,
		GroupRepo:   groupRepo,
		Ledger:      ledger,
	}
}

// Create validates the request, computes the splits and persists the expense
// together with one ledger transfer per non-payer participant. The record
// write and the transfers share one storage transaction, so a crash or
// failure at any point leaves either the full expense with its ledger effect
// or nothing at all.
func (s *Service) Create(ctx context.Context, payerID string, input CreateExpenseInput) (*domain.Expense, error) {
	payer, err := s.UserRepo.FindByID(ctx, payerID)
	if err != nil {
		return nil, err
	}
	if payer == nil {
		return nil, domain.NewNotFoundError("payer", payerID)
	}

	var group *domain.Group
	if input.GroupID != "" {
		group, err = s.GroupRepo.FindByID(ctx, input.GroupID)
		if err != nil {
			return nil, err
		}
		if group == nil {
			return nil, domain.NewNotFoundError("group", input.GroupID)
		}
		if !group.IsMember(payerID) {
			return nil, domain.NewValidationError("payer is not a member of the specified group")
		}
	}

	participantIDs := make([]string, 0, len(input.Splits))
	seen := make(map[string]bool, len(input.Splits))
	for _, spec := range input.Splits {
		if !seen[spec.UserID] {
			seen[spec.UserID] = true
			participantIDs = append(participantIDs, spec.UserID)
		}
	}
	participants, err := s.UserRepo.FindAllByID(ctx, participantIDs)
	if err != nil {
		return nil, err
	}
	if len(participants) != len(participantIDs) {
		return nil, domain.NewValidationError("some participants not found")
	}

	splits, err := splitter.ComputeSplits(input.TotalAmount, input.Splits, participants)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}
	currency := input.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	category := input.Category
	if category == "" {
		category = domain.CategoryGeneral
	}

	e := &domain.Expense{
		ID:          uuid.NewString(),
		Description: input.Description,
		TotalAmount: input.TotalAmount,
		Currency:    currency,
		PayerID:     payerID,
		PayerName:   payer.Name,
		GroupID:     input.GroupID,
		Splits:      splits,
		Category:    category,
		Notes:       input.Notes,
		CreatedAt:   now,
		OccurredAt:  occurredAt,
		Active:      true,
	}
	if group != nil {
		e.GroupName = group.Name
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	transfers := splitTransfers(e, false)
	err = s.Ledger.ApplyTransfersWith(ctx, transfers, func(ctx context.Context) error {
		return s.ExpenseRepo.SaveWithTransfers(ctx, e, transfers)
	})
	if err != nil {
		return nil, err
	}

	metrics.ExpensesCreated.Inc()
	slog.Info("expense created",
		"expense", e.ID, "payer", payerID, "splits", len(splits), "balanced", e.IsBalanced())
	return e, nil
}

// Delete soft-deletes an expense and reverses its ledger effect. Only the
// original payer may delete, and only while the expense is still Active.
// The reversal replays each original split amount negated, reproducing the
// pre-expense balances exactly rather than recomputing from scratch. The
// deactivation and the reversal commit in one storage transaction, so a
// failed delete changes nothing and a retry never reverses twice.
func (s *Service) Delete(ctx context.Context, expenseID, userID string) error {
	e, err := s.ExpenseRepo.FindByID(ctx, expenseID)
	if err != nil {
		return err
	}
	if e == nil || !e.Active {
		return domain.NewNotFoundError("expense", expenseID)
	}
	if e.PayerID != userID {
		return domain.NewAuthorizationError("only the payer can delete an expense")
	}

	transfers := splitTransfers(e, true)
	e.Active = false
	err = s.Ledger.ApplyTransfersWith(ctx, transfers, func(ctx context.Context) error {
		return s.ExpenseRepo.SaveWithTransfers(ctx, e, transfers)
	})
	if err != nil {
		e.Active = true
		return err
	}

	metrics.ExpensesDeleted.Inc()
	slog.Info("expense deleted", "expense", expenseID, "payer", userID)
	return nil
}

// GetDetails returns a single active expense, gated by involvement: the
// requester must be the payer or a participant.
func (s *Service) GetDetails(ctx context.Context, expenseID, userID string) (*domain.Expense, error) {
	e, err := s.ExpenseRepo.FindByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if e == nil || !e.Active {
		return nil, domain.NewNotFoundError("expense", expenseID)
	}
	if !e.Involves(userID) {
		return nil, domain.NewAuthorizationError("not involved in this expense")
	}
	return e, nil
}

// ListUserExpenses returns a page of expenses the user is involved in,
// together with the total count for pagination.
func (s *Service) ListUserExpenses(ctx context.Context, userID string, limit, offset int) ([]*domain.Expense, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	expenses, err := s.ExpenseRepo.FindByUserInvolvement(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.ExpenseRepo.CountByUserInvolvement(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

// ListGroupExpenses returns the active expenses of a group. The requester
// must be an active member.
func (s *Service) ListGroupExpenses(ctx context.Context, groupID, userID string) ([]*domain.Expense, error) {
	group, err := s.GroupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, domain.NewNotFoundError("group", groupID)
	}
	if !group.IsMember(userID) {
		return nil, domain.NewAuthorizationError("not a group member")
	}
	return s.ExpenseRepo.FindByGroupID(ctx, groupID)
}

// splitTransfers builds one transfer per non-payer split, negated when
// reversing. The payer's own split never touches the ledger.
func splitTransfers(e *domain.Expense, negate bool) []domain.Transfer {
	transfers := make([]domain.Transfer, 0, len(e.Splits))
	for _, split := range e.Splits {
		if split.UserID == e.PayerID || split.AmountOwed.IsZero() {
			continue
		}
		amount := split.AmountOwed
		if negate {
			amount = amount.Neg()
		}
		transfers = append(transfers, domain.Transfer{
			DebtorID:   split.UserID,
			CreditorID: e.PayerID,
			Amount:     amount,
		})
	}
	return transfers
}
