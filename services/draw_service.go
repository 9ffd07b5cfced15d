package services

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"github.com/CatCodeArbelin/dacarbelin/brackets"
	"github.com/CatCodeArbelin/dacarbelin/models"
	"github.com/CatCodeArbelin/dacarbelin/repositories"
	"github.com/CatCodeArbelin/dacarbelin/utils"
)

// DrawService собирает групповой этап: автожеребьёвка 7x8, ручная
// жеребьёвка и все операции над составами групп. Каждая операция выполняется
// в одной транзакции и не оставляет частичных изменений при ошибке.
type DrawService struct {
	tx           repositories.TxRunner
	groupRepo    repositories.GroupRepository
	memberRepo   repositories.GroupMemberRepository
	resultRepo   repositories.GroupResultRepository
	tieBreakRepo repositories.TieBreakRepository
	userRepo     repositories.UserRepository
	rng          *rand.Rand
}

func NewDrawService(
	tx repositories.TxRunner,
	groupRepo repositories.GroupRepository,
	memberRepo repositories.GroupMemberRepository,
	resultRepo repositories.GroupResultRepository,
	tieBreakRepo repositories.TieBreakRepository,
	userRepo repositories.UserRepository,
	rng *rand.Rand,
) *DrawService {
	return &DrawService{
		tx:           tx,
		groupRepo:    groupRepo,
		memberRepo:   memberRepo,
		resultRepo:   resultRepo,
		tieBreakRepo: tieBreakRepo,
		userRepo:     userRepo,
		rng:          rng,
	}
}

// clearGroupStage полностью очищает групповой этап: результаты, tie-break
// строки, участников и сами группы - явный каскад в одной транзакции.
func (s *DrawService) clearGroupStage(ctx context.Context, exec repositories.SQLExecutor) error {
	groups, err := s.groupRepo.ListByStage(ctx, exec, models.GroupStage)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		return nil
	}
	groupIDs := make([]int, len(groups))
	for i, group := range groups {
		groupIDs[i] = group.ID
	}
	if err := s.resultRepo.DeleteByGroupIDs(ctx, exec, groupIDs); err != nil {
		return err
	}
	if err := s.tieBreakRepo.DeleteByGroupIDs(ctx, exec, groupIDs); err != nil {
		return err
	}
	if err := s.memberRepo.DeleteByGroupIDs(ctx, exec, groupIDs); err != nil {
		return err
	}
	return s.groupRepo.DeleteByIDs(ctx, exec, groupIDs)
}

// CreateAutoDraw создаёт автоматическую жеребьёвку 7x8 для стартового этапа.
// При нехватке игроков запись не выполняется вовсе.
func (s *DrawService) CreateAutoDraw(ctx context.Context) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		users, err := s.userRepo.ListByBaskets(ctx, exec, models.PrimaryBaskets)
		if err != nil {
			return err
		}
		if len(users) < brackets.AutoDrawGroupCount*brackets.AutoDrawGroupSize {
			return brackets.ErrAutoDrawNotEnoughPlayers
		}

		byBasket := make(map[models.Basket][]*models.User)
		for _, user := range users {
			byBasket[user.Basket] = append(byBasket[user.Basket], user)
		}

		assigned, err := brackets.AssembleAutoDrawGroups(byBasket, s.rng)
		if err != nil {
			return err
		}

		if err := s.clearGroupStage(ctx, exec); err != nil {
			return err
		}

		for idx, players := range assigned {
			group := &models.TournamentGroup{
				Stage:         models.GroupStage,
				Name:          utils.GroupNameForIndex(idx),
				LobbyPassword: utils.GenerateLobbyPassword(s.rng),
				ScheduleText:  "TBD",
				CurrentGame:   1,
				DrawMode:      models.DrawModeAuto,
			}
			if err := s.groupRepo.Create(ctx, exec, group); err != nil {
				return err
			}
			for seat, player := range players {
				member := &models.GroupMember{
					GroupID:       group.ID,
					UserID:        player.ID,
					Seat:          seat + 1,
					LastGamePlace: 8,
				}
				if err := s.memberRepo.Create(ctx, exec, member); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// CreateManualDraw создаёт пустые группы и раскладывает игроков по кругу.
func (s *DrawService) CreateManualDraw(ctx context.Context, groupCount int, userIDs []int) error {
	if groupCount < 1 || groupCount > 8 {
		return ErrManualDrawGroupCount
	}
	if len(userIDs) > groupCount*8 {
		return ErrManualDrawTooManyPlayers
	}
	seen := make(map[int]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, dup := seen[id]; dup {
			return ErrManualDrawDuplicateIDs
		}
		seen[id] = struct{}{}
	}

	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.clearGroupStage(ctx, exec); err != nil {
			return err
		}

		groups := make([]*models.TournamentGroup, 0, groupCount)
		for idx := 0; idx < groupCount; idx++ {
			group := &models.TournamentGroup{
				Stage:         models.GroupStage,
				Name:          utils.GroupNameForIndex(idx),
				LobbyPassword: utils.GenerateLobbyPassword(s.rng),
				ScheduleText:  "TBD",
				CurrentGame:   1,
				DrawMode:      models.DrawModeManual,
			}
			if err := s.groupRepo.Create(ctx, exec, group); err != nil {
				return err
			}
			groups = append(groups, group)
		}

		for offset, userID := range userIDs {
			group := groups[offset%groupCount]
			if err := s.validateMemberConstraints(ctx, exec, group.ID, userID, nil); err != nil {
				return err
			}
			count, err := s.memberRepo.CountByGroup(ctx, exec, group.ID)
			if err != nil {
				return err
			}
			member := &models.GroupMember{
				GroupID:       group.ID,
				UserID:        userID,
				Seat:          count + 1,
				LastGamePlace: 8,
			}
			if err := s.memberRepo.Create(ctx, exec, member); err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateManualGroup создаёт одну пустую группу с проверкой имени.
func (s *DrawService) CreateManualGroup(ctx context.Context, name, lobbyPassword string) (*models.TournamentGroup, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrGroupNameRequired
	}

	var group *models.TournamentGroup
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		exists, err := s.groupRepo.ExistsByStageAndName(ctx, exec, models.GroupStage, trimmed)
		if err != nil {
			return err
		}
		if exists {
			return ErrGroupNameConflict
		}
		group = &models.TournamentGroup{
			Stage:         models.GroupStage,
			Name:          trimmed,
			LobbyPassword: utils.NormalizeLobbyPassword(lobbyPassword),
			ScheduleText:  "TBD",
			CurrentGame:   1,
			DrawMode:      models.DrawModeManual,
		}
		return s.groupRepo.Create(ctx, exec, group)
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// validateMemberConstraints проверяет лимит 8 участников и уникальность
// игрока в рамках стадии. ignoreMemberIDs позволяет не учитывать строки,
// вытесняемые текущей операцией (move/swap).
func (s *DrawService) validateMemberConstraints(
	ctx context.Context,
	exec repositories.SQLExecutor,
	groupID, userID int,
	ignoreMemberIDs map[int]struct{},
) error {
	group, err := s.groupRepo.GetByID(ctx, exec, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return ErrGroupNotFound
		}
		return err
	}
	if _, err := s.userRepo.GetByID(ctx, exec, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	existing, err := s.memberRepo.GetByGroupAndUser(ctx, exec, groupID, userID)
	if err != nil && !errors.Is(err, repositories.ErrGroupMemberNotFound) {
		return err
	}
	if existing != nil {
		if _, ignored := ignoreMemberIDs[existing.ID]; !ignored {
			return ErrPlayerAlreadyInGroup
		}
	}

	stageGroups, err := s.groupRepo.ListByStage(ctx, exec, group.Stage)
	if err != nil {
		return err
	}
	stageGroupIDs := make([]int, len(stageGroups))
	for i, stageGroup := range stageGroups {
		stageGroupIDs[i] = stageGroup.ID
	}
	stageMemberIDs, err := s.memberRepo.ListStageMemberIDs(ctx, exec, stageGroupIDs, userID)
	if err != nil {
		return err
	}
	for _, memberID := range stageMemberIDs {
		if _, ignored := ignoreMemberIDs[memberID]; !ignored {
			return ErrPlayerInAnotherGroup
		}
	}

	members, err := s.memberRepo.ListByGroup(ctx, exec, groupID)
	if err != nil {
		return err
	}
	memberCount := 0
	for _, groupMember := range members {
		if _, ignored := ignoreMemberIDs[groupMember.ID]; !ignored {
			memberCount++
		}
	}
	if memberCount >= 8 {
		return ErrGroupFull
	}
	return nil
}

// reseatGroupMembers перенумеровывает места группы в плотный ряд 1..k.
func (s *DrawService) reseatGroupMembers(ctx context.Context, exec repositories.SQLExecutor, groupID int) error {
	members, err := s.memberRepo.ListByGroup(ctx, exec, groupID)
	if err != nil {
		return err
	}
	for idx, member := range members {
		if member.Seat == idx+1 {
			continue
		}
		if err := s.memberRepo.UpdateSeat(ctx, exec, member.ID, idx+1); err != nil {
			return err
		}
	}
	return nil
}

// AddGroupMember добавляет игрока в группу на следующее свободное место.
func (s *DrawService) AddGroupMember(ctx context.Context, groupID, userID int) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.validateMemberConstraints(ctx, exec, groupID, userID, nil); err != nil {
			return err
		}
		count, err := s.memberRepo.CountByGroup(ctx, exec, groupID)
		if err != nil {
			return err
		}
		member := &models.GroupMember{
			GroupID:       groupID,
			UserID:        userID,
			Seat:          count + 1,
			LastGamePlace: 8,
		}
		return s.memberRepo.Create(ctx, exec, member)
	})
}

// RemoveGroupMember убирает игрока из группы и уплотняет места.
func (s *DrawService) RemoveGroupMember(ctx context.Context, groupID, userID int) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		member, err := s.memberRepo.GetByGroupAndUser(ctx, exec, groupID, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrGroupMemberNotFound) {
				return ErrGroupMemberNotFound
			}
			return err
		}
		if err := s.memberRepo.Delete(ctx, exec, member.ID); err != nil {
			return err
		}
		return s.reseatGroupMembers(ctx, exec, groupID)
	})
}

// MoveGroupMember переносит игрока между группами одной стадии.
func (s *DrawService) MoveGroupMember(ctx context.Context, fromGroupID, toGroupID, userID int) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		member, err := s.memberRepo.GetByGroupAndUser(ctx, exec, fromGroupID, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrGroupMemberNotFound) {
				return ErrGroupMemberNotFound
			}
			return err
		}

		ignore := map[int]struct{}{member.ID: {}}
		if err := s.validateMemberConstraints(ctx, exec, toGroupID, userID, ignore); err != nil {
			return err
		}

		targetCount, err := s.memberRepo.CountByGroup(ctx, exec, toGroupID)
		if err != nil {
			return err
		}
		if err := s.memberRepo.UpdateGroupAndSeat(ctx, exec, member.ID, toGroupID, targetCount+1); err != nil {
			return err
		}
		if err := s.reseatGroupMembers(ctx, exec, fromGroupID); err != nil {
			return err
		}
		return s.reseatGroupMembers(ctx, exec, toGroupID)
	})
}

// SwapGroupMembers меняет местами двух игроков из разных групп.
func (s *DrawService) SwapGroupMembers(ctx context.Context, firstGroupID, firstUserID, secondGroupID, secondUserID int) error {
	if firstGroupID == secondGroupID {
		return ErrSameGroupSwap
	}
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		first, err := s.memberRepo.GetByGroupAndUser(ctx, exec, firstGroupID, firstUserID)
		if err != nil {
			if errors.Is(err, repositories.ErrGroupMemberNotFound) {
				return ErrGroupMemberNotFound
			}
			return err
		}
		second, err := s.memberRepo.GetByGroupAndUser(ctx, exec, secondGroupID, secondUserID)
		if err != nil {
			if errors.Is(err, repositories.ErrGroupMemberNotFound) {
				return ErrGroupMemberNotFound
			}
			return err
		}

		ignore := map[int]struct{}{first.ID: {}, second.ID: {}}
		if err := s.validateMemberConstraints(ctx, exec, firstGroupID, secondUserID, ignore); err != nil {
			return err
		}
		if err := s.validateMemberConstraints(ctx, exec, secondGroupID, firstUserID, ignore); err != nil {
			return err
		}

		if err := s.memberRepo.UpdateGroupAndSeat(ctx, exec, first.ID, secondGroupID, second.Seat); err != nil {
			return err
		}
		if err := s.memberRepo.UpdateGroupAndSeat(ctx, exec, second.ID, firstGroupID, first.Seat); err != nil {
			return err
		}
		if err := s.reseatGroupMembers(ctx, exec, firstGroupID); err != nil {
			return err
		}
		return s.reseatGroupMembers(ctx, exec, secondGroupID)
	})
}

// UpdateGroupLobbyPassword меняет пароль лобби группы.
func (s *DrawService) UpdateGroupLobbyPassword(ctx context.Context, groupID int, password string) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		err := s.groupRepo.UpdateLobbyPassword(ctx, exec, groupID, utils.NormalizeLobbyPassword(password))
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return ErrGroupNotFound
		}
		return err
	})
}

