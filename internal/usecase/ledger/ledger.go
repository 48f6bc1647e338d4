// Package ledger maintains the pairwise balance ledger: for every pair of
// friends, a signed balance in each direction with the symmetry invariant
// balance(A,B) == -balance(B,A).
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/splitpro/splitpro-backend/internal/domain"
	"github.com/splitpro/splitpro-backend/internal/metrics"
)

// maxAttempts bounds the internal retry of the atomic pair mutation before
// a hard failure is returned to the caller.
const maxAttempts = 3

// Ledger owns all balance mutation. Mutations on the same user pair are
// serialized with a per-pair lock, and the two directional updates are
// applied as a single storage transaction of in-place increments, so a
// read-modify-write race can never lose an update or break symmetry.
type Ledger struct {
	FriendRepo domain.FriendRepository

	locks pairLocks
}

// NewLedger creates a new Ledger over the given friend repository.
func NewLedger(friendRepo domain.FriendRepository) *Ledger {
	return &Ledger{FriendRepo: friendRepo}
}

// ApplyTransfer records that the debtor owes the creditor amount more:
// the creditor's edge toward the debtor increases by amount and the
// debtor's edge decreases by the same amount. A negative amount is the
// exact inverse and reverses a prior transfer bit-for-bit.
//
// If no active friendship edge exists for a direction, that direction is a
// no-op: expenses never implicitly create a balance.
func (l *Ledger) ApplyTransfer(ctx context.Context, debtorID, creditorID string, amount decimal.Decimal) error {
	if debtorID == "" || creditorID == "" {
		return domain.NewValidationError("transfer requires both debtor and creditor")
	}
	if debtorID == creditorID {
		return domain.NewValidationError("cannot transfer between a user and themselves")
	}
	if amount.IsZero() {
		return nil
	}

	mu := l.locks.lock(pairKey(debtorID, creditorID))
	defer mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			metrics.TransferRetries.Inc()
			slog.Warn("retrying ledger transfer",
				"debtor", debtorID, "creditor", creditorID, "attempt", attempt)
		}

		updated, err := l.FriendRepo.AdjustBalancePair(ctx, creditorID, debtorID, amount)
		if err != nil {
			lastErr = err
			continue
		}

		if updated > 0 {
			metrics.TransfersApplied.Inc()
		}
		if updated == 2 {
			return l.verifyLocked(ctx, creditorID, debtorID)
		}
		// Fewer than two directions exist; the missing ones are no-ops
		// and there is no pair invariant to check.
		return nil
	}

	return fmt.Errorf("ledger transfer between %s and %s failed after %d attempts: %w",
		debtorID, creditorID, maxAttempts, lastErr)
}

// ApplyTransfersWith validates the transfers, serializes their pairs and
// runs commit, which must write the caller's record and apply every transfer
// in a single storage transaction (ExpenseRepository.SaveWithTransfers and
// SettlementRepository.SaveWithTransfer do exactly that). Crash or failure
// at any point leaves either all effects durable or none: there is no window
// where the record exists without its ledger effect or vice versa.
//
// commit is retried like ApplyTransfer; it must be safe to re-run after a
// rolled-back attempt. Symmetry is verified for every touched pair after a
// successful commit.
func (l *Ledger) ApplyTransfersWith(ctx context.Context, transfers []domain.Transfer, commit func(ctx context.Context) error) error {
	pairs := make([]string, 0, len(transfers))
	for _, t := range transfers {
		if t.DebtorID == "" || t.CreditorID == "" {
			return domain.NewValidationError("transfer requires both debtor and creditor")
		}
		if t.DebtorID == t.CreditorID {
			return domain.NewValidationError("cannot transfer between a user and themselves")
		}
		pairs = append(pairs, pairKey(t.DebtorID, t.CreditorID))
	}

	unlock := l.locks.lockAll(pairs)
	defer unlock()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			metrics.TransferRetries.Inc()
			slog.Warn("retrying ledger commit", "transfers", len(transfers), "attempt", attempt)
		}
		if err := commit(ctx); err != nil {
			lastErr = err
			continue
		}

		metrics.TransfersApplied.Add(float64(len(transfers)))
		for _, t := range transfers {
			if err := l.verifyLocked(ctx, t.CreditorID, t.DebtorID); err != nil {
				return err
			}
		}
		return nil
	}

	return fmt.Errorf("ledger commit of %d transfers failed after %d attempts: %w",
		len(transfers), maxAttempts, lastErr)
}

// GetBalance returns how much the counterpart owes the owner. Negative
// means the owner owes the counterpart.
func (l *Ledger) GetBalance(ctx context.Context, ownerID, counterpartID string) (decimal.Decimal, error) {
	edge, err := l.FriendRepo.FindEdge(ctx, ownerID, counterpartID)
	if err != nil {
		return decimal.Zero, err
	}
	if edge == nil {
		return decimal.Zero, domain.NewNotFoundError("balance", ownerID+"/"+counterpartID)
	}
	return edge.Balance, nil
}

// VerifyPair checks the symmetry invariant for a pair and returns a
// ConsistencyFault if it is violated. Missing directions are skipped.
func (l *Ledger) VerifyPair(ctx context.Context, ownerID, counterpartID string) error {
	mu := l.locks.lock(pairKey(ownerID, counterpartID))
	defer mu.Unlock()
	return l.verifyLocked(ctx, ownerID, counterpartID)
}

// RepairPair restores symmetry for a pair by rewriting the counterpart's
// edge to the negation of the owner's. Operator tooling only: the owner's
// direction is taken as the source of truth.
func (l *Ledger) RepairPair(ctx context.Context, ownerID, counterpartID string) error {
	mu := l.locks.lock(pairKey(ownerID, counterpartID))
	defer mu.Unlock()

	forward, err := l.FriendRepo.FindEdge(ctx, ownerID, counterpartID)
	if err != nil {
		return err
	}
	reverse, err := l.FriendRepo.FindEdge(ctx, counterpartID, ownerID)
	if err != nil {
		return err
	}
	if forward == nil || reverse == nil {
		return domain.NewNotFoundError("balance pair", ownerID+"/"+counterpartID)
	}
	if forward.Balance.Add(reverse.Balance).IsZero() {
		return nil
	}

	reverse.Balance = forward.Balance.Neg()
	if err := l.FriendRepo.Save(ctx, reverse); err != nil {
		return err
	}
	slog.Info("repaired ledger pair", "owner", ownerID, "counterpart", counterpartID)
	return nil
}

func (l *Ledger) verifyLocked(ctx context.Context, ownerID, counterpartID string) error {
	forward, err := l.FriendRepo.FindEdge(ctx, ownerID, counterpartID)
	if err != nil {
		return err
	}
	reverse, err := l.FriendRepo.FindEdge(ctx, counterpartID, ownerID)
	if err != nil {
		return err
	}
	if forward == nil || reverse == nil {
		return nil
	}
	if sum := forward.Balance.Add(reverse.Balance); !sum.IsZero() {
		metrics.ConsistencyFaults.Inc()
		fault := &domain.ConsistencyFault{
			OwnerID:       ownerID,
			CounterpartID: counterpartID,
			Detail:        fmt.Sprintf("directions sum to %s, want 0", sum),
		}
		slog.Error("ledger symmetry violated", "error", fault)
		return fault
	}
	return nil
}
