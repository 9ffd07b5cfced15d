package services

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/CatCodeArbelin/dacarbelin/brackets"
	"github.com/CatCodeArbelin/dacarbelin/models"
	"github.com/CatCodeArbelin/dacarbelin/repositories"
	"github.com/CatCodeArbelin/dacarbelin/utils"
)

// PlayoffService строит playoff-сетку из группового этапа и ведёт её:
// результаты матч-групп, продвижение между этапами, финальный протокол
// "22 очка + подтверждающая победа" и ручные административные операции.
type PlayoffService struct {
	tx              repositories.TxRunner
	stageRepo       repositories.PlayoffStageRepository
	participantRepo repositories.PlayoffParticipantRepository
	matchRepo       repositories.PlayoffMatchRepository
	groupRepo       repositories.GroupRepository
	memberRepo      repositories.GroupMemberRepository
	tieBreakRepo    repositories.TieBreakRepository
	userRepo        repositories.UserRepository
	rng             *rand.Rand
}

func NewPlayoffService(
	tx repositories.TxRunner,
	stageRepo repositories.PlayoffStageRepository,
	participantRepo repositories.PlayoffParticipantRepository,
	matchRepo repositories.PlayoffMatchRepository,
	groupRepo repositories.GroupRepository,
	memberRepo repositories.GroupMemberRepository,
	tieBreakRepo repositories.TieBreakRepository,
	userRepo repositories.UserRepository,
	rng *rand.Rand,
) *PlayoffService {
	return &PlayoffService{
		tx:              tx,
		stageRepo:       stageRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		groupRepo:       groupRepo,
		memberRepo:      memberRepo,
		tieBreakRepo:    tieBreakRepo,
		userRepo:        userRepo,
		rng:             rng,
	}
}

// GeneratePlayoffFromGroups собирает playoff из завершённого группового
// этапа: топ-3 каждой группы (ровно 21 игрок) плюс 11 прямых инвайтов
// образуют состав второго этапа. Все прежние playoff-данные заменяются
// целиком.
func (s *PlayoffService) GeneratePlayoffFromGroups(ctx context.Context) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		groups, err := s.groupRepo.ListByStage(ctx, exec, models.GroupStage)
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			return ErrGroupStageMissing
		}
		for _, group := range groups {
			if group.CurrentGame < brackets.GroupStageGameLimit {
				return ErrGroupStageUnfinished
			}
		}

		groupIDs := make([]int, 0, len(groups))
		for _, group := range groups {
			groupIDs = append(groupIDs, group.ID)
		}
		members, err := s.memberRepo.ListByGroupIDs(ctx, exec, groupIDs)
		if err != nil {
			return err
		}
		byGroup := make(map[int][]*models.GroupMember)
		for _, member := range members {
			byGroup[member.GroupID] = append(byGroup[member.GroupID], member)
		}

		promotedIDs := make([]int, 0, len(groups)*3)
		for _, group := range groups {
			priorities, prioErr := s.tieBreakRepo.PrioritiesByGroup(ctx, exec, group.ID)
			if prioErr != nil {
				return prioErr
			}
			ranked := brackets.SortMembersForTable(byGroup[group.ID], priorities)
			for idx, member := range ranked {
				if idx >= 3 {
					break
				}
				promotedIDs = append(promotedIDs, member.UserID)
			}
		}
		if len(promotedIDs) != brackets.Stage2PromotedCount {
			return ErrStage1PromotedCount
		}

		inviteIDs, err := s.userRepo.ListIDsByDirectInviteStage(ctx, exec, models.DirectInviteStage2)
		if err != nil {
			return err
		}
		roster, err := brackets.BuildStage2PlayerIDs(promotedIDs, inviteIDs)
		if err != nil {
			return err
		}
		return s.rebuildStages(ctx, exec, roster)
	})
}

// rebuildStages пересоздаёт все playoff-этапы для набора игроков: удаляет
// старые матчи, участников и этапы, создаёт этапы по фиксированной сетке,
// сеет первый этап в переданном порядке и заводит по матч-группе на
// каждые 8 мест каждого этапа.
func (s *PlayoffService) rebuildStages(ctx context.Context, exec repositories.SQLExecutor, playerIDs []int) error {
	blueprint := brackets.StageBlueprint(len(playerIDs))
	if len(blueprint) == 0 {
		return ErrNotEnoughPlayoffPlayers
	}

	if err := s.matchRepo.DeleteAll(ctx, exec); err != nil {
		return err
	}
	if err := s.participantRepo.DeleteAll(ctx, exec); err != nil {
		return err
	}
	if err := s.stageRepo.DeleteAll(ctx, exec); err != nil {
		return err
	}

	stages := make([]*models.PlayoffStage, 0, len(blueprint))
	for order, plan := range blueprint {
		stage := &models.PlayoffStage{
			Key:         plan.Key,
			Title:       plan.Title,
			StageSize:   plan.StageSize,
			StageOrder:  order,
			ScoringMode: plan.ScoringMode,
			StageCode:   string(plan.Key),
		}
		if err := s.stageRepo.Create(ctx, exec, stage); err != nil {
			return err
		}
		stages = append(stages, stage)
	}

	first := stages[0]
	seeded := playerIDs
	if len(seeded) > first.StageSize {
		seeded = seeded[:first.StageSize]
	}
	for idx, userID := range seeded {
		participant := &models.PlayoffParticipant{
			StageID: first.ID,
			UserID:  userID,
			Seed:    idx + 1,
		}
		if err := s.participantRepo.Create(ctx, exec, participant); err != nil {
			return err
		}
	}

	for _, stage := range stages {
		for groupNumber := 1; groupNumber <= brackets.GroupCountForStage(stage.StageSize); groupNumber++ {
			match := &models.PlayoffMatch{
				StageID:       stage.ID,
				MatchNumber:   groupNumber,
				GroupNumber:   groupNumber,
				GameNumber:    1,
				LobbyPassword: utils.GenerateLobbyPassword(s.rng),
				ScheduleText:  "TBD",
				State:         models.MatchPending,
			}
			if err := s.matchRepo.Create(ctx, exec, match); err != nil {
				return err
			}
		}
	}
	return nil
}

// ApplyPlayoffMatchResults проставляет места одной игры матч-группы этапа.
// Обычные этапы ограничены 3 играми на группу: четвёртая попытка
// отклоняется до любых изменений. В финальном режиме после начисления
// очков работает протокол кандидата: лидер с 22+ очками фиксируется и
// должен подтвердить титул победой в следующей игре.
func (s *PlayoffService) ApplyPlayoffMatchResults(ctx context.Context, stageID, groupNumber int, orderedUserIDs []int) error {
	if err := requireEightUnique(orderedUserIDs); err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		stage, err := s.stageRepo.GetByID(ctx, exec, stageID)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayoffStageNotFound) {
				return ErrStageNotFound
			}
			return err
		}

		participants, err := s.participantRepo.ListByStage(ctx, exec, stageID)
		if err != nil {
			return err
		}
		byUser := make(map[int]*models.PlayoffParticipant, len(participants))
		inGroup := make(map[int]struct{})
		for _, participant := range participants {
			byUser[participant.UserID] = participant
			if brackets.StageGroupNumberBySeed(participant.Seed) == groupNumber {
				inGroup[participant.UserID] = struct{}{}
			}
		}
		for _, userID := range orderedUserIDs {
			if _, ok := byUser[userID]; !ok {
				return ErrResultPlayerNotInStage
			}
			if _, ok := inGroup[userID]; !ok {
				return ErrResultPlayerWrongGroup
			}
		}

		match, err := s.matchRepo.GetByStageAndGroup(ctx, exec, stageID, groupNumber)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayoffMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		if brackets.IsGameLimitedStage(stage.Key) && match.GameNumber > brackets.GroupStageGameLimit {
			return ErrPlayoffGameLimitReached
		}

		for idx, userID := range orderedUserIDs {
			participant := byUser[userID]
			brackets.ApplyPlaceToParticipant(participant, idx+1, stage.ScoringMode)
			if err := s.participantRepo.UpdateScore(ctx, exec, participant); err != nil {
				return err
			}
		}

		match.State = models.MatchInProgress
		match.GameNumber++

		if stage.ScoringMode == models.ScoringFinal22Top1 {
			ranked := brackets.SortPlayoffParticipants(participants)
			leader := ranked[0]
			if stage.FinalCandidateUserID != nil {
				// Кандидат подтверждает титул только собственной победой.
				// Смена лидера его не сбрасывает.
				if orderedUserIDs[0] == *stage.FinalCandidateUserID {
					match.State = models.MatchFinished
					winnerID := *stage.FinalCandidateUserID
					match.WinnerUserID = &winnerID
				}
			} else if leader.Points >= brackets.FinalPointsThreshold {
				candidateID := leader.UserID
				if err := s.stageRepo.SetFinalCandidate(ctx, exec, stageID, &candidateID); err != nil {
					return err
				}
			}
		}

		return s.matchRepo.UpdateProgress(ctx, exec, match)
	})
}

// PromoteTopBetweenStages переносит лучших игроков этапа в следующий.
// Для stage_1_8 состав собирается по правилу 21+11=32 с прямыми
// инвайтами; на поздних этапах недобор добивается из общего рейтинга.
// Участники следующего этапа пересоздаются, у текущего выставляется
// is_eliminated по факту прохождения.
func (s *PlayoffService) PromoteTopBetweenStages(ctx context.Context, stageID, topN int) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		stage, err := s.stageRepo.GetByID(ctx, exec, stageID)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayoffStageNotFound) {
				return ErrStageNotFound
			}
			return err
		}
		nextStage, err := s.stageRepo.GetByOrder(ctx, exec, stage.StageOrder+1)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayoffStageNotFound) {
				return ErrNextStageNotFound
			}
			return err
		}

		targetSize := brackets.PromotedCountForStage(stage.Key)
		if targetSize == 0 {
			return ErrStagePromotionUnsupported
		}
		if topN > 0 && topN < targetSize {
			targetSize = topN
		}

		participants, err := s.participantRepo.ListByStage(ctx, exec, stageID)
		if err != nil {
			return err
		}
		ranked := brackets.SortPlayoffParticipants(participants)
		grouped := brackets.SplitParticipantsByGroup(participants)
		groupNumbers := make([]int, 0, len(grouped))
		for number := range grouped {
			groupNumbers = append(groupNumbers, number)
		}
		sort.Ints(groupNumbers)

		perGroupLimit := brackets.PerGroupPromotionLimit(stage.Key)
		topPlayers := make([]*models.PlayoffParticipant, 0, targetSize)
		for _, number := range groupNumbers {
			groupRanked := brackets.SortPlayoffParticipants(grouped[number])
			if len(groupRanked) > perGroupLimit {
				groupRanked = groupRanked[:perGroupLimit]
			}
			topPlayers = append(topPlayers, groupRanked...)
		}

		var invitedIDs []int
		switch {
		case stage.Key == models.StageKey18:
			inviteIDs, inviteErr := s.userRepo.ListIDsByDirectInviteStage(ctx, exec, models.DirectInviteStage2)
			if inviteErr != nil {
				return inviteErr
			}
			promotedIDs := make([]int, 0, len(topPlayers))
			for _, participant := range topPlayers {
				promotedIDs = append(promotedIDs, participant.UserID)
			}
			roster, rosterErr := brackets.BuildStage2PlayerIDs(promotedIDs, inviteIDs)
			if rosterErr != nil {
				return rosterErr
			}
			onStage := make(map[int]*models.PlayoffParticipant, len(participants))
			for _, participant := range participants {
				onStage[participant.UserID] = participant
			}
			topPlayers = topPlayers[:0]
			for _, userID := range roster {
				if participant, ok := onStage[userID]; ok {
					topPlayers = append(topPlayers, participant)
				} else {
					invitedIDs = append(invitedIDs, userID)
				}
			}
		case len(topPlayers) < targetSize:
			selected := make(map[int]struct{}, len(topPlayers))
			for _, participant := range topPlayers {
				selected[participant.UserID] = struct{}{}
			}
			for _, participant := range ranked {
				if len(topPlayers) >= targetSize {
					break
				}
				if _, ok := selected[participant.UserID]; ok {
					continue
				}
				topPlayers = append(topPlayers, participant)
				selected[participant.UserID] = struct{}{}
			}
		default:
			topPlayers = brackets.SortPlayoffParticipants(topPlayers)
			if len(topPlayers) > targetSize {
				topPlayers = topPlayers[:targetSize]
			}
		}

		if err := s.participantRepo.DeleteByStage(ctx, exec, nextStage.ID); err != nil {
			return err
		}
		seed := 1
		promoted := make(map[int]struct{}, len(topPlayers)+len(invitedIDs))
		for _, participant := range topPlayers {
			next := &models.PlayoffParticipant{
				StageID: nextStage.ID,
				UserID:  participant.UserID,
				Seed:    seed,
			}
			if err := s.participantRepo.Create(ctx, exec, next); err != nil {
				return err
			}
			promoted[participant.UserID] = struct{}{}
			seed++
		}
		for _, userID := range invitedIDs {
			next := &models.PlayoffParticipant{
				StageID: nextStage.ID,
				UserID:  userID,
				Seed:    seed,
			}
			if err := s.participantRepo.Create(ctx, exec, next); err != nil {
				return err
			}
			promoted[userID] = struct{}{}
			seed++
		}

		for _, participant := range participants {
			_, stays := promoted[participant.UserID]
			if err := s.participantRepo.SetEliminated(ctx, exec, participant.ID, !stays); err != nil {
				return err
			}
		}
		return nil
	})
}

// StartStage помечает этап стартовавшим.
func (s *PlayoffService) StartStage(ctx context.Context, stageID int) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		err := s.stageRepo.SetStarted(ctx, exec, stageID, true)
		if errors.Is(err, repositories.ErrPlayoffStageNotFound) {
			return ErrStageNotFound
		}
		return err
	})
}

// MoveUserToStage переносит игрока на другой этап: на исходном он
// помечается выбывшим, на целевом создаётся с прежним посевом.
func (s *PlayoffService) MoveUserToStage(ctx context.Context, fromStageID, toStageID, userID int) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		participant, err := s.participantRepo.GetByStageAndUser(ctx, exec, fromStageID, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayoffParticipantNotFound) {
				return ErrSourceParticipantNotFound
			}
			return err
		}
		if _, err := s.participantRepo.GetByStageAndUser(ctx, exec, toStageID, userID); err == nil {
			return ErrPlayerAlreadyOnStage
		} else if !errors.Is(err, repositories.ErrPlayoffParticipantNotFound) {
			return err
		}

		if err := s.participantRepo.SetEliminated(ctx, exec, participant.ID, true); err != nil {
			return err
		}
		moved := &models.PlayoffParticipant{
			StageID: toStageID,
			UserID:  userID,
			Seed:    participant.Seed,
		}
		return s.participantRepo.Create(ctx, exec, moved)
	})
}

// ReplaceStagePlayer заменяет игрока на этапе другим пользователем,
// сохраняя посев и накопленные очки.
func (s *PlayoffService) ReplaceStagePlayer(ctx context.Context, stageID, fromUserID, toUserID int) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		participant, err := s.participantRepo.GetByStageAndUser(ctx, exec, stageID, fromUserID)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayoffParticipantNotFound) {
				return ErrReplacedPlayerNotFound
			}
			return err
		}
		if _, err := s.participantRepo.GetByStageAndUser(ctx, exec, stageID, toUserID); err == nil {
			return ErrPlayerAlreadyOnStage
		} else if !errors.Is(err, repositories.ErrPlayoffParticipantNotFound) {
			return err
		}
		return s.participantRepo.UpdateUserID(ctx, exec, participant.ID, toUserID)
	})
}

// AdjustStagePoints корректирует очки участника этапа на знаковую дельту.
func (s *PlayoffService) AdjustStagePoints(ctx context.Context, stageID, userID, pointsDelta int) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		participant, err := s.participantRepo.GetByStageAndUser(ctx, exec, stageID, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayoffParticipantNotFound) {
				return ErrStageParticipantNotFound
			}
			return err
		}
		return s.participantRepo.AdjustPoints(ctx, exec, participant.ID, pointsDelta)
	})
}

// OverridePlayoffMatchWinner назначает победителя матч-группы вручную с
// пометкой для аудита. Матч закрывается безусловно, минуя протокол
// подтверждения финала.
func (s *PlayoffService) OverridePlayoffMatchWinner(ctx context.Context, stageID, groupNumber, winnerUserID int, note string) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetByStageAndGroup(ctx, exec, stageID, groupNumber)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayoffMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		if _, err := s.participantRepo.GetByStageAndUser(ctx, exec, stageID, winnerUserID); err != nil {
			if errors.Is(err, repositories.ErrPlayoffParticipantNotFound) {
				return ErrWinnerNotOnStage
			}
			return err
		}

		winnerID := winnerUserID
		match.WinnerUserID = &winnerID
		match.ManualWinnerUserID = &winnerID
		match.ManualOverrideNote = strings.TrimSpace(note)
		match.State = models.MatchFinished
		return s.matchRepo.UpdateProgress(ctx, exec, match)
	})
}

// StagesWithData возвращает все этапы с матчами и участниками. Этапов не
// больше четырёх, поэтому данные подгружаются параллельно на пул
// соединений, без транзакции.
func (s *PlayoffService) StagesWithData(ctx context.Context) ([]*models.PlayoffStage, error) {
	stages, err := s.stageRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, err
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, stage := range stages {
		stage := stage
		eg.Go(func() error {
			matches, matchErr := s.matchRepo.ListByStage(egCtx, nil, stage.ID)
			if matchErr != nil {
				return matchErr
			}
			stage.Matches = matches
			return nil
		})
		eg.Go(func() error {
			participants, partErr := s.participantRepo.ListByStage(egCtx, nil, stage.ID)
			if partErr != nil {
				return partErr
			}
			stage.Participants = participants
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return stages, nil
}
