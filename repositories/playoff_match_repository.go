package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/CatCodeArbelin/dacarbelin/models"
)

var ErrPlayoffMatchNotFound = errors.New("playoff match not found")

type PlayoffMatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.PlayoffMatch) error
	GetByStageAndGroup(ctx context.Context, exec SQLExecutor, stageID, groupNumber int) (*models.PlayoffMatch, error)
	ListByStage(ctx context.Context, exec SQLExecutor, stageID int) ([]*models.PlayoffMatch, error)
	UpdateProgress(ctx context.Context, exec SQLExecutor, match *models.PlayoffMatch) error
	UpdateLobbyPassword(ctx context.Context, exec SQLExecutor, matchID int, password string) error
	DeleteAll(ctx context.Context, exec SQLExecutor) error
}

type postgresPlayoffMatchRepository struct {
	db *sql.DB
}

func NewPostgresPlayoffMatchRepository(db *sql.DB) PlayoffMatchRepository {
	return &postgresPlayoffMatchRepository{db: db}
}

func (r *postgresPlayoffMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, stage_id, match_number, group_number, game_number, lobby_password,
	scheduled_at, schedule_text, state, winner_user_id, manual_winner_user_id, manual_override_note`

func (r *postgresPlayoffMatchRepository) scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.PlayoffMatch, error) {
	var m models.PlayoffMatch
	err := rowScanner.Scan(
		&m.ID, &m.StageID, &m.MatchNumber, &m.GroupNumber, &m.GameNumber, &m.LobbyPassword,
		&m.ScheduledAt, &m.ScheduleText, &m.State, &m.WinnerUserID, &m.ManualWinnerUserID, &m.ManualOverrideNote,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayoffMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresPlayoffMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.PlayoffMatch) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO playoff_matches
			(stage_id, match_number, group_number, game_number, lobby_password,
			 scheduled_at, schedule_text, state, winner_user_id, manual_winner_user_id, manual_override_note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	return executor.QueryRowContext(ctx, query,
		match.StageID, match.MatchNumber, match.GroupNumber, match.GameNumber, match.LobbyPassword,
		match.ScheduledAt, match.ScheduleText, match.State, match.WinnerUserID,
		match.ManualWinnerUserID, match.ManualOverrideNote,
	).Scan(&match.ID)
}

func (r *postgresPlayoffMatchRepository) GetByStageAndGroup(ctx context.Context, exec SQLExecutor, stageID, groupNumber int) (*models.PlayoffMatch, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM playoff_matches WHERE stage_id = $1 AND group_number = $2`
	return r.scanMatch(executor.QueryRowContext(ctx, query, stageID, groupNumber))
}

func (r *postgresPlayoffMatchRepository) ListByStage(ctx context.Context, exec SQLExecutor, stageID int) ([]*models.PlayoffMatch, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM playoff_matches WHERE stage_id = $1 ORDER BY group_number, game_number`
	rows, err := executor.QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.PlayoffMatch, 0)
	for rows.Next() {
		match, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (r *postgresPlayoffMatchRepository) UpdateProgress(ctx context.Context, exec SQLExecutor, match *models.PlayoffMatch) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE playoff_matches SET
			game_number = $1, state = $2, winner_user_id = $3,
			manual_winner_user_id = $4, manual_override_note = $5
		WHERE id = $6`,
		match.GameNumber, match.State, match.WinnerUserID,
		match.ManualWinnerUserID, match.ManualOverrideNote, match.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayoffMatchNotFound)
}

func (r *postgresPlayoffMatchRepository) UpdateLobbyPassword(ctx context.Context, exec SQLExecutor, matchID int, password string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE playoff_matches SET lobby_password = $1 WHERE id = $2`, password, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayoffMatchNotFound)
}

func (r *postgresPlayoffMatchRepository) DeleteAll(ctx context.Context, exec SQLExecutor) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM playoff_matches`)
	return err
}
