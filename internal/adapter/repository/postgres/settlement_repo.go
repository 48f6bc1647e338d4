package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/splitpro/splitpro-backend/internal/domain"
)

// settlementRepository implements domain.SettlementRepository
type settlementRepository struct {
	db *DB
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db *DB) domain.SettlementRepository {
	return &settlementRepository{db: db}
}

// Save persists a new settlement record
func (r *settlementRepository) Save(ctx context.Context, s *domain.Settlement) error {
	return insertSettlement(ctx, r.db.DB, s)
}

// SaveWithTransfer writes the settlement and the balance adjustment of its
// transfer in a single transaction
func (r *settlementRepository) SaveWithTransfer(ctx context.Context, s *domain.Settlement, transfer domain.Transfer) error {
	tx, err := r.db.BeginTx(ctx, nil)
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
	query := `
		INSERT INTO settlements (id, from_user_id, to_user_id, amount, currency, group_id, note, method, settled_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := db.ExecContext(ctx, query,
		s.ID, s.FromUserID, s.ToUserID, s.Amount.String(), s.Currency,
		groupID, s.Note, string(s.Method), s.SettledAt, s.Active)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// FindByUserInvolvement retrieves the active settlements the user paid or
// received, most recent first
func (r *settlementRepository) FindByUserInvolvement(ctx context.Context, userID string) ([]*domain.Settlement, error) {
	query := `
		SELECT id, from_user_id, to_user_id, amount, currency, COALESCE(group_id, ''), note, method, settled_at, active
		FROM settlements
		WHERE (from_user_id = $1 OR to_user_id = $1) AND active = TRUE
		ORDER BY settled_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*domain.Settlement
	for rows.Next() {
		var s domain.Settlement
		var amountStr, method string
		if err := rows.Scan(&s.ID, &s.FromUserID, &s.ToUserID, &amountStr, &s.Currency,
			&s.GroupID, &s.Note, &method, &s.SettledAt, &s.Active); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse settlement amount: %w", err)
		}
		s.Amount = amount
		s.Method = domain.SettlementMethod(method)
		settlements = append(settlements, &s)
	}
	return settlements, rows.Err()
}
