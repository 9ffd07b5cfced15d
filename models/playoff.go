package models

import "time"

// StageKey идентифицирует фазу playoff-сетки.
type StageKey string

const (
	StageKey18              StageKey = "stage_1_8"
	StageKey14              StageKey = "stage_1_4"
	StageKeySemifinalGroups StageKey = "stage_semifinal_groups"
	StageKeyFinal           StageKey = "stage_final"
)

// ScoringMode определяет правило начисления очков на этапе.
type ScoringMode string

const (
	ScoringStandard ScoringMode = "standard"
	// ScoringFinal22Top1 - финальный режим: гонка до 22 очков с
	// подтверждением победой в следующей игре.
	ScoringFinal22Top1 ScoringMode = "final_22_top1"
)

// MatchState - состояние матч-группы этапа.
type MatchState string

const (
	MatchPending    MatchState = "pending"
	MatchInProgress MatchState = "in_progress"
	MatchFinished   MatchState = "finished"
)

// PlayoffStage представляет одну фазу сетки. Этапы пересоздаются целиком
// при каждой генерации playoff из группового этапа.
type PlayoffStage struct {
	ID                   int         `json:"id"`
	Key                  StageKey    `json:"key"`
	Title                string      `json:"title"`
	StageSize            int         `json:"stage_size"`
	StageOrder           int         `json:"stage_order"`
	ScoringMode          ScoringMode `json:"scoring_mode"`
	StageCode            string      `json:"stage_code"`
	IsStarted            bool        `json:"is_started"`
	FinalCandidateUserID *int        `json:"final_candidate_user_id,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`

	// Связанные сущности, подгружаются отдельно.
	Matches      []*PlayoffMatch       `json:"matches,omitempty"`
	Participants []*PlayoffParticipant `json:"participants,omitempty"`
}

// PlayoffParticipant - (этап, игрок) с посевом и накопленными очками.
type PlayoffParticipant struct {
	ID           int  `json:"id"`
	StageID      int  `json:"stage_id"`
	UserID       int  `json:"user_id"`
	Seed         int  `json:"seed"`
	Points       int  `json:"points"`
	Wins         int  `json:"wins"`
	Top4Finishes int  `json:"top4_finishes"`
	LastPlace    int  `json:"last_place"`
	IsEliminated bool `json:"is_eliminated"`
}

// PlayoffMatch - одна матч-группа внутри этапа (до 8 участников по посеву).
type PlayoffMatch struct {
	ID                 int        `json:"id"`
	StageID            int        `json:"stage_id"`
	MatchNumber        int        `json:"match_number"`
	GroupNumber        int        `json:"group_number"`
	GameNumber         int        `json:"game_number"`
	LobbyPassword      string     `json:"lobby_password"`
	ScheduledAt        *time.Time `json:"scheduled_at,omitempty"`
	ScheduleText       string     `json:"schedule_text"`
	State              MatchState `json:"state"`
	WinnerUserID       *int       `json:"winner_user_id,omitempty"`
	ManualWinnerUserID *int       `json:"manual_winner_user_id,omitempty"`
	ManualOverrideNote string     `json:"manual_override_note"`
}
