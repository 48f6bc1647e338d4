package balance

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/splitpro/splitpro-backend/internal/domain"
)

// FriendBalance is one friend's entry in a user's balance summary.
type FriendBalance struct {
	FriendID   string
	FriendName string
	Balance    decimal.Decimal // positive: friend owes the user
}

// Summary aggregates a user's balances across all active friendships.
type Summary struct {
	Friends        []FriendBalance
	TotalOwed      decimal.Decimal // what the user owes others
	TotalOwedToYou decimal.Decimal // what others owe the user
	NetBalance     decimal.Decimal
}

// Service reads balance summaries. It never mutates the ledger.
type Service struct {
	FriendRepo domain.FriendRepository
}

// NewService creates a new balance Service instance.
func NewService(friendRepo domain.FriendRepository) *Service {
	return &Service{FriendRepo: friendRepo}
}

// GetUserBalances returns the per-friend balances and the owed/owed-to-you
// totals for a user.
func (s *Service) GetUserBalances(ctx context.Context, userID string) (*Summary, error) {
	edges, err := s.FriendRepo.FindAllByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Friends:        make([]FriendBalance, 0, len(edges)),
		TotalOwed:      decimal.Zero,
		TotalOwedToYou: decimal.Zero,
	}
	for _, edge := range edges {
		summary.Friends = append(summary.Friends, FriendBalance{
			FriendID:   edge.CounterpartID,
			FriendName: edge.CounterpartName,
			Balance:    edge.Balance,
		})
		switch {
		case edge.Balance.IsPositive():
			summary.TotalOwedToYou = summary.TotalOwedToYou.Add(edge.Balance)
		case edge.Balance.IsNegative():
			summary.TotalOwed = summary.TotalOwed.Add(edge.Balance.Abs())
		}
	}
	summary.NetBalance = summary.TotalOwedToYou.Sub(summary.TotalOwed)
	return summary, nil
}
