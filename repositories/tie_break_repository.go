package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/CatCodeArbelin/dacarbelin/models"
)

// TieBreakRepository хранит ручные tie-break приоритеты группы. Каждая новая
// фиксация полностью заменяет предыдущие строки группы.
type TieBreakRepository interface {
	ReplaceForGroup(ctx context.Context, exec SQLExecutor, groupID int, tieBreaks []*models.GroupManualTieBreak) error
	PrioritiesByGroup(ctx context.Context, exec SQLExecutor, groupID int) (map[int]int, error)
	DeleteByGroupIDs(ctx context.Context, exec SQLExecutor, groupIDs []int) error
}

type postgresTieBreakRepository struct {
	db *sql.DB
}

func NewPostgresTieBreakRepository(db *sql.DB) TieBreakRepository {
	return &postgresTieBreakRepository{db: db}
}

func (r *postgresTieBreakRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTieBreakRepository) ReplaceForGroup(ctx context.Context, exec SQLExecutor, groupID int, tieBreaks []*models.GroupManualTieBreak) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM group_manual_tie_breaks WHERE group_id = $1`, groupID); err != nil {
		return err
	}
	for _, tb := range tieBreaks {
		err := executor.QueryRowContext(ctx, `
			INSERT INTO group_manual_tie_breaks (group_id, user_id, priority)
			VALUES ($1, $2, $3)
			RETURNING id, created_at`,
			tb.GroupID, tb.UserID, tb.Priority,
		).Scan(&tb.ID, &tb.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresTieBreakRepository) PrioritiesByGroup(ctx context.Context, exec SQLExecutor, groupID int) (map[int]int, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx,
		`SELECT user_id, priority FROM group_manual_tie_breaks WHERE group_id = $1`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	priorities := make(map[int]int)
	for rows.Next() {
		var userID, priority int
		if err := rows.Scan(&userID, &priority); err != nil {
			return nil, err
		}
		priorities[userID] = priority
	}
	return priorities, rows.Err()
}

func (r *postgresTieBreakRepository) DeleteByGroupIDs(ctx context.Context, exec SQLExecutor, groupIDs []int) error {
	if len(groupIDs) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM group_manual_tie_breaks WHERE group_id = ANY($1)`, pq.Array(groupIDs))
	return err
}
