package friend

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/splitpro/splitpro-backend/internal/domain"
)

// Service manages the friendship lifecycle, which is also the lifecycle of
// balance edges: both directions of a pair are created together with a zero
// balance, and removal deactivates them without losing the balance history.
type Service struct {
	FriendRepo domain.FriendRepository
	UserRepo   domain.UserRepository
}

// NewService creates a new friend Service instance.
func NewService(friendRepo domain.FriendRepository, userRepo domain.UserRepository) *Service {
	return &Service{FriendRepo: friendRepo, UserRepo: userRepo}
}

// AddFriend establishes a friendship between the user and another user,
// creating both balance edges atomically with zero balances.
func (s *Service) AddFriend(ctx context.Context, userID, friendID string) (*domain.BalanceEdge, error) {
	if userID == friendID {
		return nil, domain.NewValidationError("cannot add yourself as a friend")
	}

	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewNotFoundError("user", userID)
	}
	friendUser, err := s.UserRepo.FindByID(ctx, friendID)
	if err != nil {
		return nil, err
	}
	if friendUser == nil {
		return nil, domain.NewNotFoundError("user", friendID)
	}

	existing, err := s.FriendRepo.FindEdge(ctx, userID, friendID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewValidationError("user is already your friend")
	}

	forward, reverse := domain.NewEdgePair(user, friendUser, uuid.NewString(), uuid.NewString())
	if err := s.FriendRepo.SavePair(ctx, forward, reverse); err != nil {
		return nil, err
	}

	slog.Info("friendship created", "user", userID, "friend", friendID)
	return forward, nil
}

// RemoveFriend soft-deletes both directions of the friendship. Balances are
// retained so re-adding the friend later does not erase history.
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID string) error {
	edge, err := s.FriendRepo.FindEdge(ctx, userID, friendID)
	if err != nil {
		return err
	}
	if edge == nil {
		return domain.NewNotFoundError("friendship", friendID)
	}

	if err := s.FriendRepo.DeactivatePair(ctx, userID, friendID); err != nil {
		return err
	}
	slog.Info("friendship removed", "user", userID, "friend", friendID)
	return nil
}

// ListFriends returns the user's active friendships with their balances.
func (s *Service) ListFriends(ctx context.Context, userID string) ([]*domain.BalanceEdge, error) {
	return s.FriendRepo.FindAllByOwner(ctx, userID)
}
