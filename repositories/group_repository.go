package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/CatCodeArbelin/dacarbelin/models"
)

var (
	ErrGroupNotFound     = errors.New("tournament group not found")
	ErrGroupNameConflict = errors.New("group name is already in use for this stage")
)

type GroupRepository interface {
	Create(ctx context.Context, exec SQLExecutor, group *models.TournamentGroup) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentGroup, error)
	ListByStage(ctx context.Context, exec SQLExecutor, stage string) ([]*models.TournamentGroup, error)
	ExistsByStageAndName(ctx context.Context, exec SQLExecutor, stage, name string) (bool, error)
	DeleteByIDs(ctx context.Context, exec SQLExecutor, ids []int) error
	UpdateCurrentGame(ctx context.Context, exec SQLExecutor, groupID, currentGame int) error
	UpdateLobbyPassword(ctx context.Context, exec SQLExecutor, groupID int, password string) error
	SetStarted(ctx context.Context, exec SQLExecutor, groupID int, started bool) error
}

type postgresGroupRepository struct {
	db *sql.DB
}

func NewPostgresGroupRepository(db *sql.DB) GroupRepository {
	return &postgresGroupRepository{db: db}
}

func (r *postgresGroupRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const groupColumns = `id, stage, name, lobby_password, scheduled_at, schedule_text,
	current_game, is_started, draw_mode, created_at`

func (r *postgresGroupRepository) scanGroup(rowScanner interface{ Scan(...interface{}) error }) (*models.TournamentGroup, error) {
	var g models.TournamentGroup
	err := rowScanner.Scan(
		&g.ID, &g.Stage, &g.Name, &g.LobbyPassword, &g.ScheduledAt, &g.ScheduleText,
		&g.CurrentGame, &g.IsStarted, &g.DrawMode, &g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *postgresGroupRepository) Create(ctx context.Context, exec SQLExecutor, group *models.TournamentGroup) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_groups
			(stage, name, lobby_password, scheduled_at, schedule_text, current_game, is_started, draw_mode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		group.Stage, group.Name, group.LobbyPassword, group.ScheduledAt, group.ScheduleText,
		group.CurrentGame, group.IsStarted, group.DrawMode,
	).Scan(&group.ID, &group.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrGroupNameConflict
	}
	return err
}

func (r *postgresGroupRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentGroup, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + groupColumns + ` FROM tournament_groups WHERE id = $1`
	return r.scanGroup(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresGroupRepository) ListByStage(ctx context.Context, exec SQLExecutor, stage string) ([]*models.TournamentGroup, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + groupColumns + ` FROM tournament_groups WHERE stage = $1 ORDER BY name, id`

	rows, err := executor.QueryContext(ctx, query, stage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]*models.TournamentGroup, 0)
	for rows.Next() {
		group, scanErr := r.scanGroup(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (r *postgresGroupRepository) ExistsByStageAndName(ctx context.Context, exec SQLExecutor, stage, name string) (bool, error) {
	executor := r.getExecutor(exec)
	var exists bool
	err := executor.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tournament_groups WHERE stage = $1 AND name = $2)`,
		stage, name,
	).Scan(&exists)
	return exists, err
}

func (r *postgresGroupRepository) DeleteByIDs(ctx context.Context, exec SQLExecutor, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM tournament_groups WHERE id = ANY($1)`, pq.Array(ids))
	return err
}

func (r *postgresGroupRepository) UpdateCurrentGame(ctx context.Context, exec SQLExecutor, groupID, currentGame int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournament_groups SET current_game = $1 WHERE id = $2`, currentGame, groupID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

func (r *postgresGroupRepository) UpdateLobbyPassword(ctx context.Context, exec SQLExecutor, groupID int, password string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournament_groups SET lobby_password = $1 WHERE id = $2`, password, groupID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

func (r *postgresGroupRepository) SetStarted(ctx context.Context, exec SQLExecutor, groupID int, started bool) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournament_groups SET is_started = $1 WHERE id = $2`, started, groupID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}
