package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/CatCodeArbelin/dacarbelin/models"
)

var ErrGroupResultConflict = errors.New("game result for this place is already recorded")

// GroupResultRepository хранит неизменяемый аудит мест по играм.
type GroupResultRepository interface {
	Create(ctx context.Context, exec SQLExecutor, result *models.GroupGameResult) error
	ExistsForGame(ctx context.Context, exec SQLExecutor, groupID, gameNumber int) (bool, error)
	ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.GroupGameResult, error)
	DeleteByGroupIDs(ctx context.Context, exec SQLExecutor, groupIDs []int) error
}

type postgresGroupResultRepository struct {
	db *sql.DB
}

func NewPostgresGroupResultRepository(db *sql.DB) GroupResultRepository {
	return &postgresGroupResultRepository{db: db}
}

func (r *postgresGroupResultRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresGroupResultRepository) Create(ctx context.Context, exec SQLExecutor, result *models.GroupGameResult) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO group_game_results (group_id, game_number, user_id, place, points_awarded)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		result.GroupID, result.GameNumber, result.UserID, result.Place, result.PointsAwarded,
	).Scan(&result.ID)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrGroupResultConflict
	}
	return err
}

func (r *postgresGroupResultRepository) ExistsForGame(ctx context.Context, exec SQLExecutor, groupID, gameNumber int) (bool, error) {
	executor := r.getExecutor(exec)
	var exists bool
	err := executor.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM group_game_results WHERE group_id = $1 AND game_number = $2)`,
		groupID, gameNumber,
	).Scan(&exists)
	return exists, err
}

func (r *postgresGroupResultRepository) ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.GroupGameResult, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `
		SELECT id, group_id, game_number, user_id, place, points_awarded
		FROM group_game_results
		WHERE group_id = $1
		ORDER BY game_number, place`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*models.GroupGameResult, 0)
	for rows.Next() {
		var res models.GroupGameResult
		if err := rows.Scan(&res.ID, &res.GroupID, &res.GameNumber, &res.UserID, &res.Place, &res.PointsAwarded); err != nil {
			return nil, err
		}
		results = append(results, &res)
	}
	return results, rows.Err()
}

func (r *postgresGroupResultRepository) DeleteByGroupIDs(ctx context.Context, exec SQLExecutor, groupIDs []int) error {
	if len(groupIDs) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM group_game_results WHERE group_id = ANY($1)`, pq.Array(groupIDs))
	return err
}
