package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitpro/splitpro-backend/internal/domain"
)

// friendRepository implements domain.FriendRepository
type friendRepository struct {
	store *Store
}

// NewFriendRepository creates a new friend repository backed by the store.
func NewFriendRepository(store *Store) domain.FriendRepository {
	return &friendRepository{store: store}
}

const edgeColumns = "id, owner_id, counterpart_id, counterpart_name, counterpart_email, balance, created_at, active"

func (r *friendRepository) FindEdge(ctx context.Context, ownerID, counterpartID string) (*domain.BalanceEdge, error) {
	row := r.store.db.QueryRowContext(ctx,
		"SELECT "+edgeColumns+" FROM friends WHERE owner_id = ? AND counterpart_id = ? AND active = 1",
		ownerID, counterpartID)
	edge, err := scanEdge(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get balance edge: %w", err)
	}
	return edge, nil
}

func (r *friendRepository) FindAllByOwner(ctx context.Context, ownerID string) ([]*domain.BalanceEdge, error) {
	rows, err := r.store.db.QueryContext(ctx,
		"SELECT "+edgeColumns+" FROM friends WHERE owner_id = ? AND active = 1 ORDER BY created_at",
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance edges: %w", err)
	}
	defer rows.Close()

	var edges []*domain.BalanceEdge
	for rows.Next() {
		edge, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance edge: %w", err)
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}

func (r *friendRepository) Save(ctx context.Context, edge *domain.BalanceEdge) error {
	return saveEdge(ctx, r.store.db, edge, true)
}

// SavePair persists both directions atomically. Re-adding a removed
// friendship reactivates the existing edges and keeps their balances.
func (r *friendRepository) SavePair(ctx context.Context, forward, reverse *domain.BalanceEdge) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, edge := range []*domain.BalanceEdge{forward, reverse} {
		if err := saveEdge(ctx, tx, edge, false); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *friendRepository) DeactivatePair(ctx context.Context, userID, friendID string) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const query = "UPDATE friends SET active = 0 WHERE owner_id = ? AND counterpart_id = ?"
	if _, err := tx.ExecContext(ctx, query, userID, friendID); err != nil {
		return fmt.Errorf("failed to deactivate edge: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, friendID, userID); err != nil {
		return fmt.Errorf("failed to deactivate reverse edge: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AdjustBalancePair applies both directional increments in one transaction,
// as exact integer cent arithmetic.
func (r *friendRepository) AdjustBalancePair(ctx context.Context, creditorID, debtorID string, amount decimal.Decimal) (int, error) {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	updated, err := adjustBalancePairTx(ctx, tx, creditorID, debtorID, amount)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

// adjustBalancePairTx runs the two directional increments inside the
// caller's transaction.
func adjustBalancePairTx(ctx context.Context, tx execer, creditorID, debtorID string, amount decimal.Decimal) (int, error) {
	cents := centsFromDecimal(amount)

	updated := 0
	forward, err := tx.ExecContext(ctx,
		"UPDATE friends SET balance = balance + ? WHERE owner_id = ? AND counterpart_id = ? AND active = 1",
		cents, creditorID, debtorID)
	if err != nil {
		return 0, fmt.Errorf("failed to adjust balance: %w", err)
	}
	if n, err := forward.RowsAffected(); err == nil {
		updated += int(n)
	}

	reverse, err := tx.ExecContext(ctx,
		"UPDATE friends SET balance = balance - ? WHERE owner_id = ? AND counterpart_id = ? AND active = 1",
		cents, debtorID, creditorID)
	if err != nil {
		return 0, fmt.Errorf("failed to adjust reverse balance: %w", err)
	}
	if n, err := reverse.RowsAffected(); err == nil {
		updated += int(n)
	}
	return updated, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveEdge(ctx context.Context, db execer, edge *domain.BalanceEdge, withBalance bool) error {
	query := `
		INSERT INTO friends (id, owner_id, counterpart_id, counterpart_name, counterpart_email, balance, created_at, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, counterpart_id) DO UPDATE
		SET counterpart_name = excluded.counterpart_name,
		    counterpart_email = excluded.counterpart_email,
		    active = excluded.active
	`
	if withBalance {
		query += ", balance = excluded.balance"
	}
	_, err := db.ExecContext(ctx, query,
		edge.ID, edge.OwnerID, edge.CounterpartID, edge.CounterpartName,
		edge.CounterpartEmail, centsFromDecimal(edge.Balance), edge.CreatedAt.Unix(), edge.Active)
	if err != nil {
		return fmt.Errorf("failed to save balance edge: %w", err)
	}
	return nil
}

func scanEdge(row rowScanner) (*domain.BalanceEdge, error) {
	var edge domain.BalanceEdge
	var cents, createdAt int64
	if err := row.Scan(
		&edge.ID, &edge.OwnerID, &edge.CounterpartID, &edge.CounterpartName,
		&edge.CounterpartEmail, &cents, &createdAt, &edge.Active,
	); err != nil {
		return nil, err
	}
	edge.Balance = decimalFromCents(cents)
	edge.CreatedAt = time.Unix(createdAt, 0)
	return &edge, nil
}
