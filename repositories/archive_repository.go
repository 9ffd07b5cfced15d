package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/CatCodeArbelin/dacarbelin/models"
)

var ErrArchiveEntryNotFound = errors.New("archive entry not found")

type ArchiveRepository interface {
	Create(ctx context.Context, exec SQLExecutor, entry *models.ArchiveEntry) error
	List(ctx context.Context, exec SQLExecutor, publishedOnly bool) ([]*models.ArchiveEntry, error)
	UpdateSnapshotURL(ctx context.Context, exec SQLExecutor, entryID int, url string) error
	SetPublished(ctx context.Context, exec SQLExecutor, entryID int, published bool) error
}

type postgresArchiveRepository struct {
	db *sql.DB
}

func NewPostgresArchiveRepository(db *sql.DB) ArchiveRepository {
	return &postgresArchiveRepository{db: db}
}

func (r *postgresArchiveRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresArchiveRepository) Create(ctx context.Context, exec SQLExecutor, entry *models.ArchiveEntry) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO archive_entries
			(public_key, season, title, champion_name, bracket_payload, snapshot_url, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	return executor.QueryRowContext(ctx, query,
		entry.PublicKey, entry.Season, entry.Title, entry.ChampionName,
		entry.BracketPayload, entry.SnapshotURL, entry.IsPublished,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *postgresArchiveRepository) List(ctx context.Context, exec SQLExecutor, publishedOnly bool) ([]*models.ArchiveEntry, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, public_key, season, title, champion_name, bracket_payload, snapshot_url, is_published, created_at
		FROM archive_entries`
	if publishedOnly {
		query += ` WHERE is_published`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.ArchiveEntry, 0)
	for rows.Next() {
		var e models.ArchiveEntry
		err := rows.Scan(&e.ID, &e.PublicKey, &e.Season, &e.Title, &e.ChampionName,
			&e.BracketPayload, &e.SnapshotURL, &e.IsPublished, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *postgresArchiveRepository) UpdateSnapshotURL(ctx context.Context, exec SQLExecutor, entryID int, url string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE archive_entries SET snapshot_url = $1 WHERE id = $2`, url, entryID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrArchiveEntryNotFound)
}

func (r *postgresArchiveRepository) SetPublished(ctx context.Context, exec SQLExecutor, entryID int, published bool) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE archive_entries SET is_published = $1 WHERE id = $2`, published, entryID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrArchiveEntryNotFound)
}
