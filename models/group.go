package models

import "time"

// GroupStage - единственная стадия, на которой существуют группы.
const GroupStage = "group_stage"

// DrawMode показывает, как была собрана группа.
type DrawMode string

const (
	DrawModeAuto   DrawMode = "auto"
	DrawModeManual DrawMode = "manual"
)

// TournamentGroup представляет одну группу группового этапа (до 8 участников).
type TournamentGroup struct {
	ID            int        `json:"id"`
	Stage         string     `json:"stage"`
	Name          string     `json:"name"`
	LobbyPassword string     `json:"lobby_password"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	ScheduleText  string     `json:"schedule_text"`
	CurrentGame   int        `json:"current_game"`
	IsStarted     bool       `json:"is_started"`
	DrawMode      DrawMode   `json:"draw_mode"`
	CreatedAt     time.Time  `json:"created_at"`

	// Заполняется при выборке полной таблицы, не мапится напрямую.
	Members []*GroupMember `json:"members,omitempty"`
}

// GroupMember - пара (группа, игрок) с накопленными агрегатами трёх игр.
type GroupMember struct {
	ID            int `json:"id"`
	GroupID       int `json:"group_id"`
	UserID        int `json:"user_id"`
	Seat          int `json:"seat"`
	TotalPoints   int `json:"total_points"`
	FirstPlaces   int `json:"first_places"`
	Top4Finishes  int `json:"top4_finishes"`
	EighthPlaces  int `json:"eighth_places"`
	LastGamePlace int `json:"last_game_place"`
}

// GroupGameResult - неизменяемая запись одного места одной игры.
// Аудиторский след для пересчёта агрегатов: никогда не обновляется.
type GroupGameResult struct {
	ID            int `json:"id"`
	GroupID       int `json:"group_id"`
	GameNumber    int `json:"game_number"`
	UserID        int `json:"user_id"`
	Place         int `json:"place"`
	PointsAwarded int `json:"points_awarded"`
}

// GroupManualTieBreak - зафиксированный оператором порядок для полностью
// равных игроков. Чем выше priority, тем выше место в таблице.
type GroupManualTieBreak struct {
	ID        int       `json:"id"`
	GroupID   int       `json:"group_id"`
	UserID    int       `json:"user_id"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}
