package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/CatCodeArbelin/dacarbelin/models"
)

var ErrGroupMemberNotFound = errors.New("group member not found")

type GroupMemberRepository interface {
	Create(ctx context.Context, exec SQLExecutor, member *models.GroupMember) error
	GetByGroupAndUser(ctx context.Context, exec SQLExecutor, groupID, userID int) (*models.GroupMember, error)
	ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.GroupMember, error)
	ListByGroupIDs(ctx context.Context, exec SQLExecutor, groupIDs []int) ([]*models.GroupMember, error)
	CountByGroup(ctx context.Context, exec SQLExecutor, groupID int) (int, error)
	ListStageMemberIDs(ctx context.Context, exec SQLExecutor, groupIDs []int, userID int) ([]int, error)
	UpdateSeat(ctx context.Context, exec SQLExecutor, memberID, seat int) error
	UpdateGroupAndSeat(ctx context.Context, exec SQLExecutor, memberID, groupID, seat int) error
	UpdateAggregates(ctx context.Context, exec SQLExecutor, member *models.GroupMember) error
	Delete(ctx context.Context, exec SQLExecutor, memberID int) error
	DeleteByGroupIDs(ctx context.Context, exec SQLExecutor, groupIDs []int) error
}

type postgresGroupMemberRepository struct {
	db *sql.DB
}

func NewPostgresGroupMemberRepository(db *sql.DB) GroupMemberRepository {
	return &postgresGroupMemberRepository{db: db}
}

func (r *postgresGroupMemberRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const memberColumns = `id, group_id, user_id, seat, total_points, first_places,
	top4_finishes, eighth_places, last_game_place`

func (r *postgresGroupMemberRepository) scanMember(rowScanner interface{ Scan(...interface{}) error }) (*models.GroupMember, error) {
	var m models.GroupMember
	err := rowScanner.Scan(
		&m.ID, &m.GroupID, &m.UserID, &m.Seat, &m.TotalPoints, &m.FirstPlaces,
		&m.Top4Finishes, &m.EighthPlaces, &m.LastGamePlace,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresGroupMemberRepository) Create(ctx context.Context, exec SQLExecutor, member *models.GroupMember) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO group_members
			(group_id, user_id, seat, total_points, first_places, top4_finishes, eighth_places, last_game_place)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	return executor.QueryRowContext(ctx, query,
		member.GroupID, member.UserID, member.Seat, member.TotalPoints, member.FirstPlaces,
		member.Top4Finishes, member.EighthPlaces, member.LastGamePlace,
	).Scan(&member.ID)
}

func (r *postgresGroupMemberRepository) GetByGroupAndUser(ctx context.Context, exec SQLExecutor, groupID, userID int) (*models.GroupMember, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + memberColumns + ` FROM group_members WHERE group_id = $1 AND user_id = $2`
	return r.scanMember(executor.QueryRowContext(ctx, query, groupID, userID))
}

func (r *postgresGroupMemberRepository) ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.GroupMember, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + memberColumns + ` FROM group_members WHERE group_id = $1 ORDER BY seat, id`
	rows, err := executor.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectMembers(rows)
}

func (r *postgresGroupMemberRepository) ListByGroupIDs(ctx context.Context, exec SQLExecutor, groupIDs []int) ([]*models.GroupMember, error) {
	if len(groupIDs) == 0 {
		return []*models.GroupMember{}, nil
	}
	executor := r.getExecutor(exec)
	query := `SELECT ` + memberColumns + ` FROM group_members WHERE group_id = ANY($1) ORDER BY group_id, seat, id`
	rows, err := executor.QueryContext(ctx, query, pq.Array(groupIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectMembers(rows)
}

func (r *postgresGroupMemberRepository) collectMembers(rows *sql.Rows) ([]*models.GroupMember, error) {
	members := make([]*models.GroupMember, 0)
	for rows.Next() {
		member, err := r.scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (r *postgresGroupMemberRepository) CountByGroup(ctx context.Context, exec SQLExecutor, groupID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM group_members WHERE group_id = $1`, groupID).Scan(&count)
	return count, err
}

func (r *postgresGroupMemberRepository) ListStageMemberIDs(ctx context.Context, exec SQLExecutor, groupIDs []int, userID int) ([]int, error) {
	if len(groupIDs) == 0 {
		return []int{}, nil
	}
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx,
		`SELECT id FROM group_members WHERE group_id = ANY($1) AND user_id = $2`,
		pq.Array(groupIDs), userID)
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

func (r *postgresGroupMemberRepository) UpdateSeat(ctx context.Context, exec SQLExecutor, memberID, seat int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE group_members SET seat = $1 WHERE id = $2`, seat, memberID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGroupMemberNotFound)
}

func (r *postgresGroupMemberRepository) UpdateGroupAndSeat(ctx context.Context, exec SQLExecutor, memberID, groupID, seat int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE group_members SET group_id = $1, seat = $2 WHERE id = $3`, groupID, seat, memberID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGroupMemberNotFound)
}

func (r *postgresGroupMemberRepository) UpdateAggregates(ctx context.Context, exec SQLExecutor, member *models.GroupMember) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE group_members SET
			total_points = $1, first_places = $2, top4_finishes = $3,
			eighth_places = $4, last_game_place = $5
		WHERE id = $6`,
		member.TotalPoints, member.FirstPlaces, member.Top4Finishes,
		member.EighthPlaces, member.LastGamePlace, member.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGroupMemberNotFound)
}

func (r *postgresGroupMemberRepository) Delete(ctx context.Context, exec SQLExecutor, memberID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM group_members WHERE id = $1`, memberID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGroupMemberNotFound)
}

func (r *postgresGroupMemberRepository) DeleteByGroupIDs(ctx context.Context, exec SQLExecutor, groupIDs []int) error {
	if len(groupIDs) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ANY($1)`, pq.Array(groupIDs))
	return err
}
