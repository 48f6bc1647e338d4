package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/splitpro/splitpro-backend/internal/domain"
)

// friendRepository implements domain.FriendRepository
type friendRepository struct {
	db *DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *DB) domain.FriendRepository {
	return &friendRepository{db: db}
}

const edgeColumns = `id, owner_id, counterpart_id, counterpart_name, counterpart_email, balance, created_at, active`

// FindEdge retrieves the active edge owned by ownerID toward counterpartID
func (r *friendRepository) FindEdge(ctx context.Context, ownerID, counterpartID string) (*domain.BalanceEdge, error) {
	query := `
		SELECT ` + edgeColumns + `
		FROM friends
		WHERE owner_id = $1 AND counterpart_id = $2 AND active = TRUE
	`
	edge, err := scanEdge(r.db.QueryRowContext(ctx, query, ownerID, counterpartID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get balance edge: %w", err)
	}
	return edge, nil
}

// FindAllByOwner retrieves all active edges owned by ownerID
func (r *friendRepository) FindAllByOwner(ctx context.Context, ownerID string) ([]*domain.BalanceEdge, error) {
	query := `
		SELECT ` + edgeColumns + `
		FROM friends
		WHERE owner_id = $1 AND active = TRUE
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
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

// Save inserts the edge or replaces its state, including the balance
func (r *friendRepository) Save(ctx context.Context, edge *domain.BalanceEdge) error {
	return saveEdge(ctx, r.db.DB, edge, true)
}

// SavePair persists both directions of a friendship atomically.
// Re-adding a previously removed friendship reactivates the existing edges
// and keeps their balances.
func (r *friendRepository) SavePair(ctx context.Context, forward, reverse *domain.BalanceEdge) error {
	tx, err := r.db.BeginTx(ctx, nil)
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

// DeactivatePair soft-deletes both directions of a friendship atomically
func (r *friendRepository) DeactivatePair(ctx context.Context, userID, friendID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE friends SET active = FALSE WHERE owner_id = $1 AND counterpart_id = $2`
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

// AdjustBalancePair applies the two directional increments of a transfer as
// a single database transaction. The in-place increments make concurrent
// transfers on the same pair safe without a read-modify-write cycle.
func (r *friendRepository) AdjustBalancePair(ctx context.Context, creditorID, debtorID string, amount decimal.Decimal) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
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
// caller's transaction
func adjustBalancePairTx(ctx context.Context, tx execer, creditorID, debtorID string, amount decimal.Decimal) (int, error) {
	updated := 0
	forward, err := tx.ExecContext(ctx, `
		UPDATE friends SET balance = balance + $3
		WHERE owner_id = $1 AND counterpart_id = $2 AND active = TRUE
	`, creditorID, debtorID, amount.String())
	if err != nil {
		return 0, fmt.Errorf("failed to adjust balance: %w", err)
	}
	if n, err := forward.RowsAffected(); err == nil {
		updated += int(n)
	}

	reverse, err := tx.ExecContext(ctx, `
		UPDATE friends SET balance = balance - $3
		WHERE owner_id = $1 AND counterpart_id = $2 AND active = TRUE
	`, debtorID, creditorID, amount.String())
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (owner_id, counterpart_id) DO UPDATE
		SET counterpart_name = EXCLUDED.counterpart_name,
		    counterpart_email = EXCLUDED.counterpart_email,
		    active = EXCLUDED.active
	`
	if withBalance {
		query += `, balance = EXCLUDED.balance`
	}
	_, err := db.ExecContext(ctx, query,
		edge.ID, edge.OwnerID, edge.CounterpartID, edge.CounterpartName,
		edge.CounterpartEmail, edge.Balance.String(), edge.CreatedAt, edge.Active)
	if err != nil {
		return fmt.Errorf("failed to save balance edge: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEdge(row rowScanner) (*domain.BalanceEdge, error) {
	var edge domain.BalanceEdge
	var balanceStr string
	if err := row.Scan(
		&edge.ID, &edge.OwnerID, &edge.CounterpartID, &edge.CounterpartName,
		&edge.CounterpartEmail, &balanceStr, &edge.CreatedAt, &edge.Active,
	); err != nil {
		return nil, err
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	edge.Balance = balance
	return &edge, nil
}
