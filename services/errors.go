package services

import "errors"

// Общие ошибки движка, используемые в сервисах и маппинге HTTP.
// Каждая ошибка детерминирована: при том же входе и состоянии БД повтор
// запроса даст тот же результат.
var (
	// Не найдено
	ErrGroupNotFound              = errors.New("group not found")
	ErrUserNotFound               = errors.New("user not found")
	ErrGroupMemberNotFound        = errors.New("player is not a member of this group")
	ErrStageNotFound              = errors.New("playoff stage not found")
	ErrNextStageNotFound          = errors.New("next playoff stage not found")
	ErrMatchNotFound              = errors.New("playoff match group not found")
	ErrStageParticipantNotFound   = errors.New("stage participant not found")
	ErrSourceParticipantNotFound  = errors.New("participant not found on the source stage")
	ErrReplacedPlayerNotFound     = errors.New("player to replace not found on the stage")
	ErrArchiveEntryNotFound       = errors.New("archive entry not found")

	// Валидация входа
	ErrResultsNeedEightUniqueIDs = errors.New("exactly 8 unique player ids are required")
	ErrTieBreakNeedTwoUniqueIDs  = errors.New("at least 2 unique player ids are required")
	ErrManualDrawDuplicateIDs    = errors.New("manual draw player ids must be unique")
	ErrManualDrawGroupCount      = errors.New("group count must be between 1 and 8")
	ErrManualDrawTooManyPlayers  = errors.New("too many players for the selected group count")
	ErrGroupNameRequired         = errors.New("group name is required")
	ErrSameGroupSwap             = errors.New("two different groups are required for a swap")

	// Нарушения инвариантов
	ErrPlayerAlreadyInGroup      = errors.New("player is already in this group")
	ErrPlayerInAnotherGroup      = errors.New("player is already in another group of this stage")
	ErrGroupFull                 = errors.New("group is already full (8 players max)")
	ErrGroupNameConflict         = errors.New("a group with this name already exists")
	ErrGameAlreadyScored         = errors.New("results for the current game are already entered")
	ErrResultPlayerNotInGroup    = errors.New("results contain a player outside this group")
	ErrTieBreakPlayerNotInGroup  = errors.New("tie break contains a player outside this group")
	ErrTieBreakNotFullyTied      = errors.New("manual tie break is only allowed for fully tied players")
	ErrGroupStageMissing         = errors.New("the group stage must be created first")
	ErrGroupStageUnfinished      = errors.New("promotion requires 3 completed games in every group")
	ErrStage1PromotedCount       = errors.New("exactly 21 players must advance from the group stage")
	ErrNotEnoughPlayoffPlayers   = errors.New("not enough players for playoff stages")
	ErrPlayoffGameLimitReached   = errors.New("game limit reached for this stage group")
	ErrResultPlayerNotInStage    = errors.New("results contain a player outside this stage")
	ErrResultPlayerWrongGroup    = errors.New("results contain a player from another stage group")
	ErrStagePromotionUnsupported = errors.New("promotion is not supported for this stage")
	ErrPlayerAlreadyOnStage      = errors.New("player is already present on the target stage")
	ErrWinnerNotOnStage          = errors.New("the winner must be a participant of the stage")
	ErrDirectInviteLimit         = errors.New("stage 2 direct invite limit reached")
	ErrRegistrationClosed        = errors.New("registration is closed")
	ErrSteamIDConflict           = errors.New("this steam id is already registered")
	ErrFinalNotFinished          = errors.New("the final stage has no confirmed winner yet")
)
