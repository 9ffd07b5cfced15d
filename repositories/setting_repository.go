package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/CatCodeArbelin/dacarbelin/models"
)

var ErrSettingNotFound = errors.New("site setting not found")

type SettingRepository interface {
	Get(ctx context.Context, exec SQLExecutor, key string) (*models.SiteSetting, error)
	Upsert(ctx context.Context, exec SQLExecutor, key, value string) error
}

type postgresSettingRepository struct {
	db *sql.DB
}

func NewPostgresSettingRepository(db *sql.DB) SettingRepository {
	return &postgresSettingRepository{db: db}
}

func (r *postgresSettingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSettingRepository) Get(ctx context.Context, exec SQLExecutor, key string) (*models.SiteSetting, error) {
	executor := r.getExecutor(exec)
	var s models.SiteSetting
	err := executor.QueryRowContext(ctx,
		`SELECT id, key, value FROM site_settings WHERE key = $1`, key,
	).Scan(&s.ID, &s.Key, &s.Value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresSettingRepository) Upsert(ctx context.Context, exec SQLExecutor, key, value string) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `
		INSERT INTO site_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value)
	return err
}
