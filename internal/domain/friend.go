package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceEdge is one direction of a friendship: how much the counterpart
// owes the owner. Negative means the owner owes the counterpart.
//
// Edges come in pairs. For every pair where both directions exist the
// ledger maintains balance(A,B) == -balance(B,A); only the balance ledger
// may mutate Balance. Removing a friendship deactivates both directions,
// it never deletes them.
type BalanceEdge struct {
	ID               string
	OwnerID          string
	CounterpartID    string
	CounterpartName  string // cached for display
	CounterpartEmail string
	Balance          decimal.Decimal
	CreatedAt        time.Time
	Active           bool
}

// NewEdgePair builds the two zero-initialized directions of a friendship.
func NewEdgePair(a, b *User, aEdgeID, bEdgeID string) (*BalanceEdge, *BalanceEdge) {
	now := time.Now()
	forward := &BalanceEdge{
		ID:               aEdgeID,
		OwnerID:          a.ID,
		CounterpartID:    b.ID,
		CounterpartName:  b.Name,
		CounterpartEmail: b.Email,
		Balance:          decimal.Zero,
		CreatedAt:        now,
		Active:           true,
	}
	reverse := &BalanceEdge{
		ID:               bEdgeID,
		OwnerID:          b.ID,
		CounterpartID:    a.ID,
		CounterpartName:  a.Name,
		CounterpartEmail: a.Email,
		Balance:          decimal.Zero,
		CreatedAt:        now,
		Active:           true,
	}
	return forward, reverse
}
