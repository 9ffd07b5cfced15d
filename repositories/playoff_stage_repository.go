package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/CatCodeArbelin/dacarbelin/models"
)

var ErrPlayoffStageNotFound = errors.New("playoff stage not found")

type PlayoffStageRepository interface {
	Create(ctx context.Context, exec SQLExecutor, stage *models.PlayoffStage) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.PlayoffStage, error)
	GetByOrder(ctx context.Context, exec SQLExecutor, stageOrder int) (*models.PlayoffStage, error)
	ListAll(ctx context.Context, exec SQLExecutor) ([]*models.PlayoffStage, error)
	DeleteAll(ctx context.Context, exec SQLExecutor) error
	SetStarted(ctx context.Context, exec SQLExecutor, stageID int, started bool) error
	SetFinalCandidate(ctx context.Context, exec SQLExecutor, stageID int, userID *int) error
}

type postgresPlayoffStageRepository struct {
	db *sql.DB
}

func NewPostgresPlayoffStageRepository(db *sql.DB) PlayoffStageRepository {
	return &postgresPlayoffStageRepository{db: db}
}

func (r *postgresPlayoffStageRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const stageColumns = `id, key, title, stage_size, stage_order, scoring_mode, stage_code,
	is_started, final_candidate_user_id, created_at`

func (r *postgresPlayoffStageRepository) scanStage(rowScanner interface{ Scan(...interface{}) error }) (*models.PlayoffStage, error) {
	var s models.PlayoffStage
	err := rowScanner.Scan(
		&s.ID, &s.Key, &s.Title, &s.StageSize, &s.StageOrder, &s.ScoringMode, &s.StageCode,
		&s.IsStarted, &s.FinalCandidateUserID, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayoffStageNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresPlayoffStageRepository) Create(ctx context.Context, exec SQLExecutor, stage *models.PlayoffStage) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO playoff_stages
			(key, title, stage_size, stage_order, scoring_mode, stage_code, is_started, final_candidate_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	return executor.QueryRowContext(ctx, query,
		stage.Key, stage.Title, stage.StageSize, stage.StageOrder, stage.ScoringMode,
		stage.StageCode, stage.IsStarted, stage.FinalCandidateUserID,
	).Scan(&stage.ID, &stage.CreatedAt)
}

func (r *postgresPlayoffStageRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.PlayoffStage, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + stageColumns + ` FROM playoff_stages WHERE id = $1`
	return r.scanStage(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresPlayoffStageRepository) GetByOrder(ctx context.Context, exec SQLExecutor, stageOrder int) (*models.PlayoffStage, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + stageColumns + ` FROM playoff_stages WHERE stage_order = $1`
	return r.scanStage(executor.QueryRowContext(ctx, query, stageOrder))
}

func (r *postgresPlayoffStageRepository) ListAll(ctx context.Context, exec SQLExecutor) ([]*models.PlayoffStage, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `SELECT `+stageColumns+` FROM playoff_stages ORDER BY stage_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := make([]*models.PlayoffStage, 0)
	for rows.Next() {
		stage, scanErr := r.scanStage(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		stages = append(stages, stage)
	}
	return stages, rows.Err()
}

func (r *postgresPlayoffStageRepository) DeleteAll(ctx context.Context, exec SQLExecutor) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM playoff_stages`)
	return err
}

func (r *postgresPlayoffStageRepository) SetStarted(ctx context.Context, exec SQLExecutor, stageID int, started bool) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE playoff_stages SET is_started = $1 WHERE id = $2`, started, stageID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayoffStageNotFound)
}

func (r *postgresPlayoffStageRepository) SetFinalCandidate(ctx context.Context, exec SQLExecutor, stageID int, userID *int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE playoff_stages SET final_candidate_user_id = $1 WHERE id = $2`, userID, stageID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayoffStageNotFound)
}
