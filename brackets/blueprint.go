package brackets

import (
	"errors"

	"github.com/CatCodeArbelin/dacarbelin/models"
)

// StageSpec описывает одну фазу playoff в фиксированной сетке 56→32→16→8.
type StageSpec struct {
	Key         models.StageKey
	Title       string
	StageSize   int
	ScoringMode models.ScoringMode
}

// StageSequence - полная последовательность playoff-этапов турнира.
var StageSequence = []StageSpec{
	{Key: models.StageKey18, Title: "Stage 1/8", StageSize: 56, ScoringMode: models.ScoringStandard},
	{Key: models.StageKey14, Title: "Stage 1/4", StageSize: 32, ScoringMode: models.ScoringStandard},
	{Key: models.StageKeySemifinalGroups, Title: "Semifinal Groups", StageSize: 16, ScoringMode: models.ScoringStandard},
	{Key: models.StageKeyFinal, Title: "Final", StageSize: 8, ScoringMode: models.ScoringFinal22Top1},
}

// Stage2PromotedCount и Stage2DirectInvitesLimit задают правило 21+11=32
// для формирования второго этапа.
const (
	Stage2PromotedCount      = 21
	Stage2DirectInvitesLimit = 11
)

var (
	ErrStage2PromotedCount  = errors.New("exactly 21 players must advance from stage 1")
	ErrStage2InvitesTooMany = errors.New("stage 2 direct invites cannot exceed 11")
	ErrStage2InvitesTooFew  = errors.New("stage 2 requires exactly 11 direct invites")
	ErrStage2DuplicateIDs   = errors.New("duplicate player ids in stage 2 rosters")
	ErrStage2InviteOverlap  = errors.New("a player cannot be both promoted and directly invited")
	ErrStage2RosterSize     = errors.New("stage 2 roster must contain exactly 32 players")
)

// StageBlueprint возвращает суффикс последовательности этапов, чей первый
// этап вмещается в usableCount игроков. Пустой срез означает, что игроков
// недостаточно даже для сетки на 32.
func StageBlueprint(usableCount int) []StageSpec {
	if usableCount >= StageSequence[0].StageSize {
		return StageSequence
	}
	if usableCount >= StageSequence[1].StageSize {
		return StageSequence[1:]
	}
	return nil
}

// GroupCountForStage - число матч-групп этапа (по 8 игроков на группу).
func GroupCountForStage(stageSize int) int {
	count := stageSize / 8
	if count < 1 {
		return 1
	}
	return count
}

// PromotedCountForStage - сколько игроков этап передаёт дальше.
func PromotedCountForStage(key models.StageKey) int {
	switch key {
	case models.StageKey18:
		return 32
	case models.StageKey14:
		return 16
	case models.StageKeySemifinalGroups:
		return 8
	default:
		return 0
	}
}

// PerGroupPromotionLimit - лимит проходящих из одной матч-группы.
func PerGroupPromotionLimit(key models.StageKey) int {
	if key == models.StageKey18 {
		return 3
	}
	return 4
}

// StageGroupNumberBySeed отображает посев в номер матч-группы:
// посевы 1–8 → группа 1, 9–16 → группа 2 и так далее.
func StageGroupNumberBySeed(seed int) int {
	return ((seed - 1) / 8) + 1
}

// IsGameLimitedStage сообщает, ограничен ли этап тремя играми на группу.
// Финал лимита не имеет: гонка до 22 очков длится сколько потребуется.
func IsGameLimitedStage(key models.StageKey) bool {
	switch key {
	case models.StageKey18, models.StageKey14, models.StageKeySemifinalGroups:
		return true
	default:
		return false
	}
}

// BuildStage2PlayerIDs собирает состав второго этапа из 21 прошедшего и 11
// прямых инвайтов, отклоняя любые отклонения от правила 21+11=32.
func BuildStage2PlayerIDs(promotedIDs, directInviteIDs []int) ([]int, error) {
	if len(promotedIDs) != Stage2PromotedCount {
		return nil, ErrStage2PromotedCount
	}
	if len(directInviteIDs) > Stage2DirectInvitesLimit {
		return nil, ErrStage2InvitesTooMany
	}
	if len(directInviteIDs) < Stage2DirectInvitesLimit {
		return nil, ErrStage2InvitesTooFew
	}

	promotedSet := make(map[int]struct{}, len(promotedIDs))
	for _, id := range promotedIDs {
		promotedSet[id] = struct{}{}
	}
	inviteSet := make(map[int]struct{}, len(directInviteIDs))
	for _, id := range directInviteIDs {
		inviteSet[id] = struct{}{}
	}
	if len(promotedSet) != len(promotedIDs) || len(inviteSet) != len(directInviteIDs) {
		return nil, ErrStage2DuplicateIDs
	}
	for id := range inviteSet {
		if _, clash := promotedSet[id]; clash {
			return nil, ErrStage2InviteOverlap
		}
	}

	roster := make([]int, 0, len(promotedIDs)+len(directInviteIDs))
	roster = append(roster, promotedIDs...)
	roster = append(roster, directInviteIDs...)
	if len(roster) != 32 {
		return nil, ErrStage2RosterSize
	}
	return roster, nil
}

// SplitParticipantsByGroup раскладывает участников этапа по номерам
// матч-групп согласно посеву.
func SplitParticipantsByGroup(participants []*models.PlayoffParticipant) map[int][]*models.PlayoffParticipant {
	grouped := make(map[int][]*models.PlayoffParticipant)
	for _, participant := range participants {
		number := StageGroupNumberBySeed(participant.Seed)
		grouped[number] = append(grouped[number], participant)
	}
	return grouped
}
