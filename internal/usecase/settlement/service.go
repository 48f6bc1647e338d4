package settlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitpro/splitpro-backend/internal/domain"
)

// BalanceLedger is the slice of the ledger settlements drive.
type BalanceLedger interface {
	ApplyTransfersWith(ctx context.Context, transfers []domain.Transfer, commit func(ctx context.Context) error) error
}

// RecordSettlementInput represents the input for recording a settlement.
type RecordSettlementInput struct {
	ToUserID string
	Amount   decimal.Decimal
	Currency string
	GroupID  string // optional
	Note     string
	Method   domain.SettlementMethod
}

// Service records settle-up payments and applies their ledger effect: a
// payment from debtor to creditor reduces what the debtor owes by the paid
// amount, via the inverse of the expense transfer.
type Service struct {
	SettlementRepo domain.SettlementRepository
	UserRepo       domain.UserRepository
	Ledger         BalanceLedger
}

// NewService creates a new settlement Service instance.
func NewService(settlementRepo domain.SettlementRepository, userRepo domain.UserRepository, ledger BalanceLedger) *Service {
	return &Service{SettlementRepo: settlementRepo, UserRepo: userRepo, Ledger: ledger}
}

// Record persists a settlement paid by fromUserID and applies the inverse
// transfer to the ledger. The record and the transfer share one storage
// transaction: a payment is never recorded without its ledger effect.
func (s *Service) Record(ctx context.Context, fromUserID string, input RecordSettlementInput) (*domain.Settlement, error) {
	for _, id := range []string{fromUserID, input.ToUserID} {
		exists, err := s.UserRepo.ExistsByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, domain.NewNotFoundError("user", id)
		}
	}

	currency := input.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	method := input.Method
	if method == "" {
		method = domain.SettlementMethodCash
	}

	stl := &domain.Settlement{
		ID:         uuid.NewString(),
		FromUserID: fromUserID,
		ToUserID:   input.ToUserID,
		Amount:     domain.RoundMoney(input.Amount),
		Currency:   currency,
		GroupID:    input.GroupID,
		Note:       input.Note,
		Method:     method,
		SettledAt:  time.Now(),
		Active:     true,
	}
	if err := stl.Validate(); err != nil {
		return nil, err
	}

	// Paying down debt is the inverse of incurring it.
	transfer := domain.Transfer{
		DebtorID:   fromUserID,
		CreditorID: input.ToUserID,
		Amount:     stl.Amount.Neg(),
	}
	err := s.Ledger.ApplyTransfersWith(ctx, []domain.Transfer{transfer}, func(ctx context.Context) error {
		return s.SettlementRepo.SaveWithTransfer(ctx, stl, transfer)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("settlement recorded",
		"settlement", stl.ID, "from", fromUserID, "to", input.ToUserID, "amount", stl.Amount)
	return stl, nil
}

// ListUserSettlements returns the settlements the user paid or received.
func (s *Service) ListUserSettlements(ctx context.Context, userID string) ([]*domain.Settlement, error) {
	return s.SettlementRepo.FindByUserInvolvement(ctx, userID)
}
