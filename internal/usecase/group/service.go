package group

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/splitpro/splitpro-backend/internal/domain"
)

// CreateGroupInput represents the input for creating a group.
type CreateGroupInput struct {
	Name        string
	Description string
	MemberIDs   []string
}

// Service manages groups and their membership.
type Service struct {
	GroupRepo   domain.GroupRepository
	UserRepo    domain.UserRepository
	ExpenseRepo domain.ExpenseRepository
}

// NewService creates a new group Service instance.
func NewService(groupRepo domain.GroupRepository, userRepo domain.UserRepository, expenseRepo domain.ExpenseRepository) *Service {
	return &Service{GroupRepo: groupRepo, UserRepo: userRepo, ExpenseRepo: expenseRepo}
}

// Create creates a group with the creator and the listed users as active
// members. Every member id must resolve to an existing user.
func (s *Service) Create(ctx context.Context, creatorID string, input CreateGroupInput) (*domain.Group, error) {
	creator, err := s.UserRepo.FindByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, domain.NewNotFoundError("user", creatorID)
	}

	memberIDs := make([]string, 0, len(input.MemberIDs))
	for _, id := range input.MemberIDs {
		if id != creatorID {
			memberIDs = append(memberIDs, id)
		}
	}
	members, err := s.UserRepo.FindAllByID(ctx, memberIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range memberIDs {
		if members[id] == nil {
			return nil, domain.NewNotFoundError("user", id)
		}
	}

	now := time.Now()
	g := &domain.Group{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Active:      true,
	}
	g.AddMember(creator.ID, creator.Name, creator.Email)
	for _, id := range memberIDs {
		g.AddMember(members[id].ID, members[id].Name, members[id].Email)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	if err := s.GroupRepo.Save(ctx, g); err != nil {
		return nil, err
	}
	slog.Info("group created", "group", g.ID, "creator", creatorID, "members", len(g.Members))
	return g, nil
}

// Get returns a group. The requester must be an active member.
func (s *Service) Get(ctx context.Context, groupID, userID string) (*domain.Group, error) {
	g, err := s.GroupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, domain.NewNotFoundError("group", groupID)
	}
	if !g.IsMember(userID) {
		return nil, domain.NewAuthorizationError("not a group member")
	}
	return g, nil
}

// CountExpenses returns the number of active expenses recorded in a group.
// The requester must be an active member.
func (s *Service) CountExpenses(ctx context.Context, groupID, userID string) (int, error) {
	if _, err := s.Get(ctx, groupID, userID); err != nil {
		return 0, err
	}
	return s.ExpenseRepo.CountByGroupID(ctx, groupID)
}
