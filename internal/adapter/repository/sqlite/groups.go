package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/splitpro/splitpro-backend/internal/domain"
)

// groupRepository implements domain.GroupRepository
type groupRepository struct {
	store *Store
}

// NewGroupRepository creates a new group repository backed by the store.
func NewGroupRepository(store *Store) domain.GroupRepository {
	return &groupRepository{store: store}
}

func (r *groupRepository) Save(ctx context.Context, g *domain.Group) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO groups (id, name, description, created_by, created_at, updated_at, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET name = excluded.name,
		    description = excluded.description,
		    updated_at = excluded.updated_at,
		    active = excluded.active`,
		g.ID, g.Name, g.Description, g.CreatedBy, g.CreatedAt.Unix(), g.UpdatedAt.Unix(), g.Active)
	if err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}

	for _, m := range g.Members {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO group_members (group_id, user_id, user_name, user_email, joined_at, active)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (group_id, user_id) DO UPDATE
			SET user_name = excluded.user_name,
			    user_email = excluded.user_email,
			    active = excluded.active`,
			g.ID, m.UserID, m.UserName, m.UserEmail, m.JoinedAt.Unix(), m.Active)
		if err != nil {
			return fmt.Errorf("failed to save group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *groupRepository) FindByID(ctx context.Context, id string) (*domain.Group, error) {
	var g domain.Group
	var createdAt, updatedAt int64
	err := r.store.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_by, created_at, updated_at, active
		FROM groups
		WHERE id = ? AND active = 1`, id).Scan(
		&g.ID, &g.Name, &g.Description, &g.CreatedBy, &createdAt, &updatedAt, &g.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group by ID: %w", err)
	}
	g.CreatedAt = time.Unix(createdAt, 0)
	g.UpdatedAt = time.Unix(updatedAt, 0)

	rows, err := r.store.db.QueryContext(ctx, `
		SELECT user_id, user_name, user_email, joined_at, active
		FROM group_members
		WHERE group_id = ?
		ORDER BY joined_at`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query group members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.GroupMember
		var joinedAt int64
		if err := rows.Scan(&m.UserID, &m.UserName, &m.UserEmail, &joinedAt, &m.Active); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		m.JoinedAt = time.Unix(joinedAt, 0)
		g.Members = append(g.Members, m)
	}
	return &g, rows.Err()
}
