package services

import (
	"context"
	"errors"
	"math/rand"

	"github.com/CatCodeArbelin/dacarbelin/brackets"
	"github.com/CatCodeArbelin/dacarbelin/models"
	"github.com/CatCodeArbelin/dacarbelin/repositories"
)

// ScoringService ведёт счёт группового этапа: фиксация результатов игр,
// итоговая таблица и ручные/coin-toss tie-break решения.
type ScoringService struct {
	tx           repositories.TxRunner
	groupRepo    repositories.GroupRepository
	memberRepo   repositories.GroupMemberRepository
	resultRepo   repositories.GroupResultRepository
	tieBreakRepo repositories.TieBreakRepository
	rng          *rand.Rand
}

func NewScoringService(
	tx repositories.TxRunner,
	groupRepo repositories.GroupRepository,
	memberRepo repositories.GroupMemberRepository,
	resultRepo repositories.GroupResultRepository,
	tieBreakRepo repositories.TieBreakRepository,
	rng *rand.Rand,
) *ScoringService {
	return &ScoringService{
		tx:           tx,
		groupRepo:    groupRepo,
		memberRepo:   memberRepo,
		resultRepo:   resultRepo,
		tieBreakRepo: tieBreakRepo,
		rng:          rng,
	}
}

// ApplyGameResults проставляет места одной игры и пересчитывает агрегаты.
// Порядок orderedUserIDs - это места 1..8. Слот игры берётся из
// current_game группы; повторная запись слота отклоняется.
func (s *ScoringService) ApplyGameResults(ctx context.Context, groupID int, orderedUserIDs []int) error {
	if err := requireEightUnique(orderedUserIDs); err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		group, err := s.groupRepo.GetByID(ctx, exec, groupID)
		if err != nil {
			if errors.Is(err, repositories.ErrGroupNotFound) {
				return ErrGroupNotFound
			}
			return err
		}

		members, err := s.memberRepo.ListByGroup(ctx, exec, groupID)
		if err != nil {
			return err
		}
		membersByUser := make(map[int]*models.GroupMember, len(members))
		for _, member := range members {
			membersByUser[member.UserID] = member
		}
		for _, userID := range orderedUserIDs {
			if _, ok := membersByUser[userID]; !ok {
				return ErrResultPlayerNotInGroup
			}
		}

		gameNumber := group.CurrentGame
		alreadyScored, err := s.resultRepo.ExistsForGame(ctx, exec, groupID, gameNumber)
		if err != nil {
			return err
		}
		if alreadyScored {
			return ErrGameAlreadyScored
		}

		for idx, userID := range orderedUserIDs {
			place := idx + 1
			member := membersByUser[userID]
			points := brackets.ApplyPlaceToMember(member, place)
			result := &models.GroupGameResult{
				GroupID:       groupID,
				GameNumber:    gameNumber,
				UserID:        userID,
				Place:         place,
				PointsAwarded: points,
			}
			if err := s.resultRepo.Create(ctx, exec, result); err != nil {
				return err
			}
			if err := s.memberRepo.UpdateAggregates(ctx, exec, member); err != nil {
				return err
			}
		}

		// Группа играет максимум 3 игры: счётчик не растёт дальше.
		if group.CurrentGame < brackets.GroupStageGameLimit {
			return s.groupRepo.UpdateCurrentGame(ctx, exec, groupID, group.CurrentGame+1)
		}
		return nil
	})
}

// GroupTable возвращает участников группы в порядке итоговой таблицы с
// учётом зафиксированных tie-break приоритетов.
func (s *ScoringService) GroupTable(ctx context.Context, groupID int) ([]*models.GroupMember, error) {
	var table []*models.GroupMember
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		members, err := s.memberRepo.ListByGroup(ctx, exec, groupID)
		if err != nil {
			return err
		}
		priorities, err := s.tieBreakRepo.PrioritiesByGroup(ctx, exec, groupID)
		if err != nil {
			return err
		}
		table = brackets.SortMembersForTable(members, priorities)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// GroupsWithTables возвращает все группы этапа с участниками в порядке
// итоговой таблицы, для публичной страницы турнира.
func (s *ScoringService) GroupsWithTables(ctx context.Context) ([]*models.TournamentGroup, error) {
	var groups []*models.TournamentGroup
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var listErr error
		groups, listErr = s.groupRepo.ListByStage(ctx, exec, models.GroupStage)
		if listErr != nil {
			return listErr
		}
		for _, group := range groups {
			members, memberErr := s.memberRepo.ListByGroup(ctx, exec, group.ID)
			if memberErr != nil {
				return memberErr
			}
			priorities, prioErr := s.tieBreakRepo.PrioritiesByGroup(ctx, exec, group.ID)
			if prioErr != nil {
				return prioErr
			}
			group.Members = brackets.SortMembersForTable(members, priorities)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// FullyTiedGroups возвращает подмножества участников группы с полностью
// совпадающими метриками - кандидатов на ручной tie-break или coin toss.
func (s *ScoringService) FullyTiedGroups(ctx context.Context, groupID int) ([][]*models.GroupMember, error) {
	var tied [][]*models.GroupMember
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		members, err := s.memberRepo.ListByGroup(ctx, exec, groupID)
		if err != nil {
			return err
		}
		tied = brackets.FullyTiedMemberGroups(members)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tied, nil
}

// ApplyManualTieBreak фиксирует ручной порядок для полностью равных игроков.
// Первый id списка получает наибольший приоритет, последний - 1. Прежние
// tie-break строки группы заменяются целиком.
func (s *ScoringService) ApplyManualTieBreak(ctx context.Context, groupID int, orderedUserIDs []int) error {
	if len(orderedUserIDs) < 2 || hasDuplicates(orderedUserIDs) {
		return ErrTieBreakNeedTwoUniqueIDs
	}

	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		members, err := s.memberRepo.ListByGroup(ctx, exec, groupID)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			return ErrGroupNotFound
		}
		membersByUser := make(map[int]*models.GroupMember, len(members))
		for _, member := range members {
			membersByUser[member.UserID] = member
		}
		for _, userID := range orderedUserIDs {
			if _, ok := membersByUser[userID]; !ok {
				return ErrTieBreakPlayerNotInGroup
			}
		}

		// Ручной порядок допустим только среди действительно равных игроков.
		first := metricsTuple(membersByUser[orderedUserIDs[0]])
		for _, userID := range orderedUserIDs[1:] {
			if metricsTuple(membersByUser[userID]) != first {
				return ErrTieBreakNotFullyTied
			}
		}

		tieBreaks := make([]*models.GroupManualTieBreak, 0, len(orderedUserIDs))
		for idx, userID := range orderedUserIDs {
			tieBreaks = append(tieBreaks, &models.GroupManualTieBreak{
				GroupID:  groupID,
				UserID:   userID,
				Priority: len(orderedUserIDs) - idx,
			})
		}
		return s.tieBreakRepo.ReplaceForGroup(ctx, exec, groupID, tieBreaks)
	})
}

// ApplyCoinTossTieBreak разыгрывает случайный порядок среди равных игроков
// и сохраняет его как обычный ручной tie-break: исход монетки становится
// долговечной, проверяемой записью, а не разовым жребием.
func (s *ScoringService) ApplyCoinTossTieBreak(ctx context.Context, groupID int, tiedUserIDs []int) error {
	if len(tiedUserIDs) < 2 {
		return ErrTieBreakNeedTwoUniqueIDs
	}
	shuffled := make([]int, len(tiedUserIDs))
	copy(shuffled, tiedUserIDs)
	s.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return s.ApplyManualTieBreak(ctx, groupID, shuffled)
}

type memberTuple struct {
	points, firsts, top4, eighths, lastPlace int
}

func metricsTuple(m *models.GroupMember) memberTuple {
	return memberTuple{m.TotalPoints, m.FirstPlaces, m.Top4Finishes, m.EighthPlaces, m.LastGamePlace}
}

func requireEightUnique(ids []int) error {
	if len(ids) != 8 || hasDuplicates(ids) {
		return ErrResultsNeedEightUniqueIDs
	}
	return nil
}

func hasDuplicates(ids []int) bool {
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
