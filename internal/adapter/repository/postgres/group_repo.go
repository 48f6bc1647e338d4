package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/splitpro/splitpro-backend/internal/domain"
)

// groupRepository implements domain.GroupRepository
type groupRepository struct {
	db *DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *DB) domain.GroupRepository {
	return &groupRepository{db: db}
}

// Save inserts the group or replaces its mutable state
func (r *groupRepository) Save(ctx context.Context, g *domain.Group) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	groupQuery := `
		INSERT INTO groups (id, name, description, created_by, created_at, updated_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    updated_at = EXCLUDED.updated_at,
		    active = EXCLUDED.active
	`
	_, err = tx.ExecContext(ctx, groupQuery,
		g.ID, g.Name, g.Description, g.CreatedBy, g.CreatedAt, g.UpdatedAt, g.Active)
	if err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}

	memberQuery := `
		INSERT INTO group_members (group_id, user_id, user_name, user_email, joined_at, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (group_id, user_id) DO UPDATE
		SET user_name = EXCLUDED.user_name,
		    user_email = EXCLUDED.user_email,
		    active = EXCLUDED.active
	`
	for _, m := range g.Members {
		_, err = tx.ExecContext(ctx, memberQuery,
			g.ID, m.UserID, m.UserName, m.UserEmail, m.JoinedAt, m.Active)
		if err != nil {
			return fmt.Errorf("failed to save group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FindByID retrieves an active group with its members by ID
func (r *groupRepository) FindByID(ctx context.Context, id string) (*domain.Group, error) {
	query := `
		SELECT id, name, description, created_by, created_at, updated_at, active
		FROM groups
		WHERE id = $1 AND active = TRUE
	`
	var g domain.Group
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt, &g.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group by ID: %w", err)
	}

	memberQuery := `
		SELECT user_id, user_name, user_email, joined_at, active
		FROM group_members
		WHERE group_id = $1
		ORDER BY joined_at
	`
	rows, err := r.db.QueryContext(ctx, memberQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query group members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.GroupMember
		if err := rows.Scan(&m.UserID, &m.UserName, &m.UserEmail, &m.JoinedAt, &m.Active); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		g.Members = append(g.Members, m)
	}
	return &g, rows.Err()
}
