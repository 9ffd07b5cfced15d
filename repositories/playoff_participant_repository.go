package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/CatCodeArbelin/dacarbelin/models"
)

var (
	ErrPlayoffParticipantNotFound = errors.New("playoff participant not found")
	ErrPlayoffParticipantConflict = errors.New("player is already present on this stage")
)

type PlayoffParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, participant *models.PlayoffParticipant) error
	GetByStageAndUser(ctx context.Context, exec SQLExecutor, stageID, userID int) (*models.PlayoffParticipant, error)
	ListByStage(ctx context.Context, exec SQLExecutor, stageID int) ([]*models.PlayoffParticipant, error)
	UpdateScore(ctx context.Context, exec SQLExecutor, participant *models.PlayoffParticipant) error
	UpdateUserID(ctx context.Context, exec SQLExecutor, participantID, userID int) error
	AdjustPoints(ctx context.Context, exec SQLExecutor, participantID, pointsDelta int) error
	SetEliminated(ctx context.Context, exec SQLExecutor, participantID int, eliminated bool) error
	DeleteByStage(ctx context.Context, exec SQLExecutor, stageID int) error
	DeleteAll(ctx context.Context, exec SQLExecutor) error
}

type postgresPlayoffParticipantRepository struct {
	db *sql.DB
}

func NewPostgresPlayoffParticipantRepository(db *sql.DB) PlayoffParticipantRepository {
	return &postgresPlayoffParticipantRepository{db: db}
}

func (r *postgresPlayoffParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const participantColumns = `id, stage_id, user_id, seed, points, wins, top4_finishes, last_place, is_eliminated`

func (r *postgresPlayoffParticipantRepository) scanParticipant(rowScanner interface{ Scan(...interface{}) error }) (*models.PlayoffParticipant, error) {
	var p models.PlayoffParticipant
	err := rowScanner.Scan(
		&p.ID, &p.StageID, &p.UserID, &p.Seed, &p.Points, &p.Wins,
		&p.Top4Finishes, &p.LastPlace, &p.IsEliminated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayoffParticipantNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresPlayoffParticipantRepository) Create(ctx context.Context, exec SQLExecutor, participant *models.PlayoffParticipant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO playoff_participants
			(stage_id, user_id, seed, points, wins, top4_finishes, last_place, is_eliminated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		participant.StageID, participant.UserID, participant.Seed, participant.Points,
		participant.Wins, participant.Top4Finishes, participant.LastPlace, participant.IsEliminated,
	).Scan(&participant.ID)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrPlayoffParticipantConflict
	}
	return err
}

func (r *postgresPlayoffParticipantRepository) GetByStageAndUser(ctx context.Context, exec SQLExecutor, stageID, userID int) (*models.PlayoffParticipant, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + participantColumns + ` FROM playoff_participants WHERE stage_id = $1 AND user_id = $2`
	return r.scanParticipant(executor.QueryRowContext(ctx, query, stageID, userID))
}

func (r *postgresPlayoffParticipantRepository) ListByStage(ctx context.Context, exec SQLExecutor, stageID int) ([]*models.PlayoffParticipant, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + participantColumns + ` FROM playoff_participants WHERE stage_id = $1 ORDER BY seed, id`
	rows, err := executor.QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]*models.PlayoffParticipant, 0)
	for rows.Next() {
		participant, scanErr := r.scanParticipant(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		participants = append(participants, participant)
	}
	return participants, rows.Err()
}

func (r *postgresPlayoffParticipantRepository) UpdateScore(ctx context.Context, exec SQLExecutor, participant *models.PlayoffParticipant) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE playoff_participants SET
			points = $1, wins = $2, top4_finishes = $3, last_place = $4
		WHERE id = $5`,
		participant.Points, participant.Wins, participant.Top4Finishes, participant.LastPlace, participant.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayoffParticipantNotFound)
}

func (r *postgresPlayoffParticipantRepository) UpdateUserID(ctx context.Context, exec SQLExecutor, participantID, userID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE playoff_participants SET user_id = $1 WHERE id = $2`, userID, participantID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrPlayoffParticipantConflict
		}
		return err
	}
	return checkAffectedRows(result, ErrPlayoffParticipantNotFound)
}

func (r *postgresPlayoffParticipantRepository) AdjustPoints(ctx context.Context, exec SQLExecutor, participantID, pointsDelta int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE playoff_participants SET points = points + $1 WHERE id = $2`, pointsDelta, participantID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayoffParticipantNotFound)
}

func (r *postgresPlayoffParticipantRepository) SetEliminated(ctx context.Context, exec SQLExecutor, participantID int, eliminated bool) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE playoff_participants SET is_eliminated = $1 WHERE id = $2`, eliminated, participantID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayoffParticipantNotFound)
}

func (r *postgresPlayoffParticipantRepository) DeleteByStage(ctx context.Context, exec SQLExecutor, stageID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM playoff_participants WHERE stage_id = $1`, stageID)
	return err
}

func (r *postgresPlayoffParticipantRepository) DeleteAll(ctx context.Context, exec SQLExecutor) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM playoff_participants`)
	return err
}
