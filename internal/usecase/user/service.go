package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/splitpro/splitpro-backend/internal/domain"
)

// RegisterInput represents the input for registering a user.
type RegisterInput struct {
	Name  string
	Email string
	Phone string
}

// Service manages user records. Authentication lives upstream; this keeps
// just enough identity for expenses, friendships and groups to reference.
type Service struct {
	UserRepo domain.UserRepository
}

// NewService creates a new user Service instance.
func NewService(userRepo domain.UserRepository) *Service {
	return &Service{UserRepo: userRepo}
}

// Register creates a new user record.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	u := &domain.User{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		CreatedAt: time.Now(),
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.UserRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	slog.Info("user registered", "user", u.ID)
	return u, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NewNotFoundError("user", id)
	}
	return u, nil
}
