package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitpro/splitpro-backend/internal/domain"
)

// settlementRepository implements domain.SettlementRepository
type settlementRepository struct {
	store *Store
}

// NewSettlementRepository creates a new settlement repository backed by the store.
func NewSettlementRepository(store *Store) domain.SettlementRepository {
	return &settlementRepository{store: store}
}

func (r *settlementRepository) Save(ctx context.Context, s *domain.Settlement) error {
	return insertSettlement(ctx, r.store.db, s)
}

// SaveWithTransfer writes the settlement and the balance adjustment of its
// transfer in a single transaction.
func (r *settlementRepository) SaveWithTransfer(ctx context.Context, s *domain.Settlement, transfer domain.Transfer) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertSettlement(ctx, tx, s); err != nil {
		return err
	}
	if _, err := adjustBalancePairTx(ctx, tx, transfer.CreditorID, transfer.DebtorID, transfer.Amount); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertSettlement(ctx context.Context, db execer, s *domain.Settlement) error {
	var groupID any
	if s.GroupID != "" {
		groupID = s.GroupID
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO settlements (id, from_user_id, to_user_id, amount, currency, group_id, note, method, settled_at, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.FromUserID, s.ToUserID, s.Amount.String(), s.Currency,
		groupID, s.Note, string(s.Method), s.SettledAt.Unix(), s.Active)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

func (r *settlementRepository) FindByUserInvolvement(ctx context.Context, userID string) ([]*domain.Settlement, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, from_user_id, to_user_id, amount, currency, COALESCE(group_id, ''), note, method, settled_at, active
		FROM settlements
		WHERE (from_user_id = ? OR to_user_id = ?) AND active = 1
		ORDER BY settled_at DESC`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*domain.Settlement
	for rows.Next() {
		var s domain.Settlement
		var amountStr, method string
		var settledAt int64
		if err := rows.Scan(&s.ID, &s.FromUserID, &s.ToUserID, &amountStr, &s.Currency,
			&s.GroupID, &s.Note, &method, &settledAt, &s.Active); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse settlement amount: %w", err)
		}
		s.Amount = amount
		s.Method = domain.SettlementMethod(method)
		s.SettledAt = time.Unix(settledAt, 0)
		settlements = append(settlements, &s)
	}
	return settlements, rows.Err()
}
