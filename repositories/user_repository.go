package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/CatCodeArbelin/dacarbelin/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserSteamConflict = errors.New("steam id is already registered")
)

type UserRepository interface {
	Create(ctx context.Context, exec SQLExecutor, user *models.User) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error)
	GetBySteamID(ctx context.Context, exec SQLExecutor, steamID string) (*models.User, error)
	ListByBaskets(ctx context.Context, exec SQLExecutor, baskets []models.Basket) ([]*models.User, error)
	ListIDsByDirectInviteStage(ctx context.Context, exec SQLExecutor, stage string) ([]int, error)
	CountByBasket(ctx context.Context, exec SQLExecutor) (map[models.Basket]int, error)
	UpdateBasket(ctx context.Context, exec SQLExecutor, userID int, basket models.Basket) error
	UpdateDirectInviteStage(ctx context.Context, exec SQLExecutor, userID int, stage *string) error
	CountByDirectInviteStage(ctx context.Context, exec SQLExecutor, stage string) (int, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const userColumns = `id, nickname, steam_input, steam_id, game_nickname, current_rank, highest_rank,
	telegram, discord, basket, direct_invite_stage, extra_data, created_at`

func (r *postgresUserRepository) scanUser(rowScanner interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	err := rowScanner.Scan(
		&u.ID, &u.Nickname, &u.SteamInput, &u.SteamID, &u.GameNickname, &u.CurrentRank, &u.HighestRank,
		&u.Telegram, &u.Discord, &u.Basket, &u.DirectInviteStage, &u.ExtraData, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *postgresUserRepository) Create(ctx context.Context, exec SQLExecutor, user *models.User) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO users
			(nickname, steam_input, steam_id, game_nickname, current_rank, highest_rank,
			 telegram, discord, basket, direct_invite_stage, extra_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		user.Nickname, user.SteamInput, user.SteamID, user.GameNickname, user.CurrentRank,
		user.HighestRank, user.Telegram, user.Discord, user.Basket, user.DirectInviteStage, user.ExtraData,
	).Scan(&user.ID, &user.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrUserSteamConflict
	}
	return err
}

func (r *postgresUserRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error) {
	executor := r.getExecutor(exec)
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.scanUser(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresUserRepository) GetBySteamID(ctx context.Context, exec SQLExecutor, steamID string) (*models.User, error) {
	executor := r.getExecutor(exec)
	query := fmt.Sprintf(`SELECT %s FROM users WHERE steam_id = $1`, userColumns)
	return r.scanUser(executor.QueryRowContext(ctx, query, steamID))
}

func (r *postgresUserRepository) ListByBaskets(ctx context.Context, exec SQLExecutor, baskets []models.Basket) ([]*models.User, error) {
	executor := r.getExecutor(exec)
	basketValues := make([]string, len(baskets))
	for i, basket := range baskets {
		basketValues[i] = string(basket)
	}
	query := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE basket = ANY($1)
		ORDER BY created_at, id`, userColumns)

	rows, err := executor.QueryContext(ctx, query, pq.Array(basketValues))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, scanErr := r.scanUser(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *postgresUserRepository) ListIDsByDirectInviteStage(ctx context.Context, exec SQLExecutor, stage string) ([]int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id FROM users
		WHERE direct_invite_stage = $1
		ORDER BY created_at, id`

	rows, err := executor.QueryContext(ctx, query, stage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresUserRepository) CountByBasket(ctx context.Context, exec SQLExecutor) (map[models.Basket]int, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `SELECT basket, COUNT(*) FROM users GROUP BY basket`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.Basket]int)
	for rows.Next() {
		var basket models.Basket
		var count int
		if err := rows.Scan(&basket, &count); err != nil {
			return nil, err
		}
		counts[basket] = count
	}
	return counts, rows.Err()
}

func (r *postgresUserRepository) UpdateBasket(ctx context.Context, exec SQLExecutor, userID int, basket models.Basket) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE users SET basket = $1 WHERE id = $2`, basket, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateDirectInviteStage(ctx context.Context, exec SQLExecutor, userID int, stage *string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE users SET direct_invite_stage = $1 WHERE id = $2`, stage, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) CountByDirectInviteStage(ctx context.Context, exec SQLExecutor, stage string) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE direct_invite_stage = $1`, stage).Scan(&count)
	return count, err
}
