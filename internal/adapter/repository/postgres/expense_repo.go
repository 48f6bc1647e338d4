package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/splitpro/splitpro-backend/internal/domain"
)

// expenseRepository implements domain.ExpenseRepository
type expenseRepository struct {
	db *DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *DB) domain.ExpenseRepository {
	return &expenseRepository{db: db}
}

const expenseColumns = `id, description, total_amount, currency, payer_id, payer_name,
	COALESCE(group_id, ''), group_name, category, notes, created_at, occurred_at, active`

// Save inserts the expense with its splits, or updates the active flag of
// an existing expense. Splits are immutable after the first save.
func (r *expenseRepository) Save(ctx context.Context, e *domain.Expense) error {
	return r.SaveWithTransfers(ctx, e, nil)
}

// SaveWithTransfers writes the expense, its splits and the balance
// adjustments of the given transfers in a single transaction
func (r *expenseRepository) SaveWithTransfers(ctx context.Context, e *domain.Expense, transfers []domain.Transfer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveExpenseTx(ctx, tx, e); err != nil {
		return err
	}
	for _, t := range transfers {
		if _, err := adjustBalancePairTx(ctx, tx, t.CreditorID, t.DebtorID, t.Amount); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func saveExpenseTx(ctx context.Context, tx execer, e *domain.Expense) error {
	var groupID any
	if e.GroupID != "" {
		groupID = e.GroupID
	}

	insertExpenseQuery := `
		INSERT INTO expenses (id, description, total_amount, currency, payer_id, payer_name,
			group_id, group_name, category, notes, created_at, occurred_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET active = EXCLUDED.active
	`
	_, err := tx.ExecContext(ctx, insertExpenseQuery,
		e.ID, e.Description, e.TotalAmount.String(), e.Currency, e.PayerID, e.PayerName,
		groupID, e.GroupName, string(e.Category), e.Notes, e.CreatedAt, e.OccurredAt, e.Active)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	insertSplitQuery := `
		INSERT INTO expense_splits (expense_id, position, user_id, user_name, split_type, split_value, amount_owed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (expense_id, position) DO NOTHING
	`
	for i, split := range e.Splits {
		_, err = tx.ExecContext(ctx, insertSplitQuery,
			e.ID, i, split.UserID, split.UserName, string(split.Type),
			split.Value.String(), split.AmountOwed.String())
		if err != nil {
			return fmt.Errorf("failed to insert expense split: %w", err)
		}
	}
	return nil
}

// FindByID retrieves an expense (active or not) by its ID
func (r *expenseRepository) FindByID(ctx context.Context, id string) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`
	e, err := scanExpense(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense by ID: %w", err)
	}
	if err := r.loadSplits(ctx, []*domain.Expense{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// FindByUserInvolvement retrieves a page of active expenses where the user
// is the payer or a participant, most recent first
func (r *expenseRepository) FindByUserInvolvement(ctx context.Context, userID string, limit, offset int) ([]*domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE active = TRUE
		  AND (payer_id = $1 OR id IN (SELECT expense_id FROM expense_splits WHERE user_id = $1))
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.queryExpenses(ctx, query, userID, limit, offset)
}

// CountByUserInvolvement returns the number of active expenses where the
// user is the payer or a participant
func (r *expenseRepository) CountByUserInvolvement(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM expenses
		WHERE active = TRUE
		  AND (payer_id = $1 OR id IN (SELECT expense_id FROM expense_splits WHERE user_id = $1))
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	return count, nil
}

// FindByGroupID retrieves all active expenses for a group
func (r *expenseRepository) FindByGroupID(ctx context.Context, groupID string) ([]*domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE group_id = $1 AND active = TRUE
		ORDER BY created_at DESC
	`
	return r.queryExpenses(ctx, query, groupID)
}

// CountByGroupID returns the number of active expenses for a group
func (r *expenseRepository) CountByGroupID(ctx context.Context, groupID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE group_id = $1 AND active = TRUE`, groupID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count group expenses: %w", err)
	}
	return count, nil
}

func (r *expenseRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]*domain.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*domain.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadSplits(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *expenseRepository) loadSplits(ctx context.Context, expenses []*domain.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Expense, len(expenses))
	ids := make([]string, 0, len(expenses))
	for _, e := range expenses {
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}

	query := `
		SELECT expense_id, user_id, user_name, split_type, split_value, amount_owed
		FROM expense_splits
		WHERE expense_id = ANY($1)
		ORDER BY expense_id, position
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query expense splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID, valueStr, owedStr string
		var split domain.Split
		var splitType string
		if err := rows.Scan(&expenseID, &split.UserID, &split.UserName, &splitType, &valueStr, &owedStr); err != nil {
			return fmt.Errorf("failed to scan expense split: %w", err)
		}
		split.Type = domain.SplitType(splitType)
		if split.Value, err = decimal.NewFromString(valueStr); err != nil {
			return fmt.Errorf("failed to parse split value: %w", err)
		}
		if split.AmountOwed, err = decimal.NewFromString(owedStr); err != nil {
			return fmt.Errorf("failed to parse amount owed: %w", err)
		}
		e := byID[expenseID]
		e.Splits = append(e.Splits, split)
	}
	return rows.Err()
}

func scanExpense(row rowScanner) (*domain.Expense, error) {
	var e domain.Expense
	var totalStr, category string
	if err := row.Scan(
		&e.ID, &e.Description, &totalStr, &e.Currency, &e.PayerID, &e.PayerName,
		&e.GroupID, &e.GroupName, &category, &e.Notes, &e.CreatedAt, &e.OccurredAt, &e.Active,
	); err != nil {
		return nil, err
	}
	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse total_amount: %w", err)
	}
	e.TotalAmount = total
	e.Category = domain.Category(category)
	return &e, nil
}
