package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repositories return (nil, nil) when the requested record does not exist.
// Translating absence into a NotFoundError is the caller's job: only the
// usecase layer decides which absences are errors.

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create persists a new user.
	Create(ctx context.Context, user *User) error

	// FindByID retrieves a user by id.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindAllByID retrieves the users for the given ids, keyed by id.
	// Missing ids are simply absent from the map.
	FindAllByID(ctx context.Context, ids []string) (map[string]*User, error)

	// ExistsByID reports whether a user with the given id exists.
	ExistsByID(ctx context.Context, id string) (bool, error)
}

// GroupRepository defines the interface for group persistence operations.
type GroupRepository interface {
	// Save inserts the group or replaces its mutable state (name,
	// description, members, active flag).
	Save(ctx context.Context, group *Group) error

	// FindByID retrieves an active group by id.
	FindByID(ctx context.Context, id string) (*Group, error)
}

// Transfer is one pairwise balance change: the debtor's edge toward the
// creditor decreases by Amount and the creditor's edge increases by it.
// A negative Amount is the exact inverse.
type Transfer struct {
	DebtorID   string
	CreditorID string
	Amount     decimal.Decimal
}

// ExpenseRepository defines the interface for expense persistence operations.
type ExpenseRepository interface {
	// Save inserts the expense with its splits, or updates the active flag
	// of an existing expense. Splits are immutable after the first save.
	Save(ctx context.Context, expense *Expense) error

	// SaveWithTransfers persists the expense (as Save does) and applies the
	// given balance transfers in the same storage transaction, so the record
	// and its ledger effect commit together or not at all. Transfers on
	// missing edges are skipped, as in FriendRepository.AdjustBalancePair.
	SaveWithTransfers(ctx context.Context, expense *Expense, transfers []Transfer) error

	// FindByID retrieves an expense (active or not) by id.
	FindByID(ctx context.Context, id string) (*Expense, error)

	// FindByUserInvolvement retrieves a page of active expenses where the
	// user is the payer or a participant, most recent first.
	FindByUserInvolvement(ctx context.Context, userID string, limit, offset int) ([]*Expense, error)

	// CountByUserInvolvement returns the number of active expenses where the
	// user is the payer or a participant.
	CountByUserInvolvement(ctx context.Context, userID string) (int, error)

	// FindByGroupID retrieves all active expenses for a group.
	FindByGroupID(ctx context.Context, groupID string) ([]*Expense, error)

	// CountByGroupID returns the number of active expenses for a group.
	CountByGroupID(ctx context.Context, groupID string) (int, error)
}

// FriendRepository defines the interface for balance edge persistence.
// The balance ledger is the only component that mutates balances.
type FriendRepository interface {
	// FindEdge retrieves the active edge owned by ownerID toward
	// counterpartID.
	FindEdge(ctx context.Context, ownerID, counterpartID string) (*BalanceEdge, error)

	// FindAllByOwner retrieves all active edges owned by ownerID.
	FindAllByOwner(ctx context.Context, ownerID string) ([]*BalanceEdge, error)

	// Save inserts the edge or replaces its state, including the balance.
	// Reserved for edge creation and symmetry repair; regular balance
	// mutation must go through AdjustBalancePair.
	Save(ctx context.Context, edge *BalanceEdge) error

	// SavePair persists both directions of a friendship atomically.
	SavePair(ctx context.Context, forward, reverse *BalanceEdge) error

	// DeactivatePair soft-deletes both directions of a friendship
	// atomically. Balances are retained.
	DeactivatePair(ctx context.Context, userID, friendID string) error

	// AdjustBalancePair atomically adds amount to the active edge owned by
	// creditorID toward debtorID and subtracts it from the reverse edge,
	// using in-place increments in a single storage transaction. A missing
	// direction is skipped. Returns the number of directions updated (0-2).
	AdjustBalancePair(ctx context.Context, creditorID, debtorID string, amount decimal.Decimal) (int, error)
}

// SettlementRepository defines the interface for settlement persistence.
type SettlementRepository interface {
	// Save persists a new settlement record.
	Save(ctx context.Context, settlement *Settlement) error

	// SaveWithTransfer persists the settlement and applies its balance
	// transfer in the same storage transaction, so the record and its
	// ledger effect commit together or not at all.
	SaveWithTransfer(ctx context.Context, settlement *Settlement, transfer Transfer) error

	// FindByUserInvolvement retrieves all active settlements where the user
	// paid or was paid, most recent first.
	FindByUserInvolvement(ctx context.Context, userID string) ([]*Settlement, error)
}
