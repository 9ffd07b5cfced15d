package handlers

import (
	"errors"
	"net/http"

	"github.com/CatCodeArbelin/dacarbelin/middleware"
	"github.com/CatCodeArbelin/dacarbelin/models"
	"github.com/CatCodeArbelin/dacarbelin/services"
	"github.com/CatCodeArbelin/dacarbelin/utils"
)

// AdminHandler объединяет все административные операции турнира: сессии,
// регистрацию, жеребьёвку, счёт и управление playoff.
type AdminHandler struct {
	auth                *middleware.AdminAuth
	registrationService *services.RegistrationService
	drawService         *services.DrawService
	scoringService      *services.ScoringService
	playoffService      *services.PlayoffService
	archiveService      *services.ArchiveService
}

func NewAdminHandler(
	auth *middleware.AdminAuth,
	registrationService *services.RegistrationService,
	drawService *services.DrawService,
	scoringService *services.ScoringService,
	playoffService *services.PlayoffService,
	archiveService *services.ArchiveService,
) *AdminHandler {
	return &AdminHandler{
		auth:                auth,
		registrationService: registrationService,
		drawService:         drawService,
		scoringService:      scoringService,
		playoffService:      playoffService,
		archiveService:      archiveService,
	}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		AdminKey string `json:"admin_key"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !h.auth.VerifyAdminKey(input.AdminKey) {
		unauthorizedResponse(w, r, "invalid admin key")
		return
	}

	token, err := h.auth.IssueSession()
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	h.auth.SetSessionCookie(w, token)
	writeJSON(w, http.StatusOK, jsonResponse{"status": "authenticated"}, nil)
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, jsonResponse{"status": "logged out"}, nil)
}

func (h *AdminHandler) ToggleRegistration(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Open bool `json:"open"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.registrationService.SetRegistrationOpen(r.Context(), input.Open); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"registration_open": input.Open}, nil)
}

func (h *AdminHandler) InviteUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Nickname     string `json:"nickname"`
		SteamInput   string `json:"steam_input"`
		GameNickname string `json:"game_nickname"`
		CurrentRank  string `json:"current_rank"`
		HighestRank  string `json:"highest_rank"`
		Telegram     string `json:"telegram"`
		Discord      string `json:"discord"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	steamID := utils.NormalizeSteamID(input.SteamInput)
	if steamID == "" {
		badRequestResponse(w, r, errors.New("invalid steam id"))
		return
	}

	user, err := h.registrationService.InviteUser(r.Context(), services.RegistrationInput{
		Nickname:     input.Nickname,
		SteamInput:   input.SteamInput,
		SteamID:      steamID,
		GameNickname: input.GameNickname,
		CurrentRank:  input.CurrentRank,
		HighestRank:  input.HighestRank,
		Telegram:     input.Telegram,
		Discord:      input.Discord,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"user": user}, nil)
}

func (h *AdminHandler) SetDirectInvite(w http.ResponseWriter, r *http.Request) {
	userID, err := readIDParam(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Tagged bool `json:"tagged"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.registrationService.SetDirectInvite(r.Context(), userID, input.Tagged); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"user_id": userID, "tagged": input.Tagged}, nil)
}

func (h *AdminHandler) UpdateUserBasket(w http.ResponseWriter, r *http.Request) {
	userID, err := readIDParam(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Basket string `json:"basket"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.registrationService.UpdateUserBasket(r.Context(), userID, models.Basket(input.Basket)); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"user_id": userID, "basket": input.Basket}, nil)
}

func (h *AdminHandler) CreateAutoDraw(w http.ResponseWriter, r *http.Request) {
	if err := h.drawService.CreateAutoDraw(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"status": "auto draw created"}, nil)
}

func (h *AdminHandler) CreateManualDraw(w http.ResponseWriter, r *http.Request) {
	var input struct {
		GroupCount int    `json:"group_count"`
		UserIDs    string `json:"user_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userIDs, err := utils.ParseIDList(input.UserIDs)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.drawService.CreateManualDraw(r.Context(), input.GroupCount, userIDs); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"status": "manual draw created"}, nil)
}

func (h *AdminHandler) CreateManualGroup(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name          string `json:"name"`
		LobbyPassword string `json:"lobby_password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	group, err := h.drawService.CreateManualGroup(r.Context(), input.Name, input.LobbyPassword)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"group": group}, nil)
}

func (h *AdminHandler) AddGroupMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := readIDParam(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		UserID int `json:"user_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.drawService.AddGroupMember(r.Context(), groupID, input.UserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "member added"}, nil)
}

func (h *AdminHandler) RemoveGroupMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := readIDParam(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := readIDParam(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.drawService.RemoveGroupMember(r.Context(), groupID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "member removed"}, nil)
}

func (h *AdminHandler) MoveGroupMember(w http.ResponseWriter, r *http.Request) {
	var input struct {
		FromGroupID int `json:"from_group_id"`
		ToGroupID   int `json:"to_group_id"`
		UserID      int `json:"user_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.drawService.MoveGroupMember(r.Context(), input.FromGroupID, input.ToGroupID, input.UserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "member moved"}, nil)
}

func (h *AdminHandler) SwapGroupMembers(w http.ResponseWriter, r *http.Request) {
	var input struct {
		FirstGroupID  int `json:"first_group_id"`
		FirstUserID   int `json:"first_user_id"`
		SecondGroupID int `json:"second_group_id"`
		SecondUserID  int `json:"second_user_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	err := h.drawService.SwapGroupMembers(r.Context(), input.FirstGroupID, input.FirstUserID, input.SecondGroupID, input.SecondUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "members swapped"}, nil)
}

func (h *AdminHandler) UpdateGroupPassword(w http.ResponseWriter, r *http.Request) {
	groupID, err := readIDParam(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.drawService.UpdateGroupLobbyPassword(r.Context(), groupID, input.Password); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "lobby password updated"}, nil)
}

// RecordGroupGame принимает порядок мест одной игры строкой вида
// "12,7,30,..." и начисляет очки участникам группы.
func (h *AdminHandler) RecordGroupGame(w http.ResponseWriter, r *http.Request) {
	groupID, err := readIDParam(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Placements string `json:"placements"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	orderedUserIDs, err := utils.ParseIDList(input.Placements)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.scoringService.ApplyGameResults(r.Context(), groupID, orderedUserIDs); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "game recorded"}, nil)
}

func (h *AdminHandler) RecordManualTieBreak(w http.ResponseWriter, r *http.Request) {
	groupID, err := readIDParam(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		OrderedUserIDs string `json:"ordered_user_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	orderedUserIDs, err := utils.ParseIDList(input.OrderedUserIDs)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.scoringService.ApplyManualTieBreak(r.Context(), groupID, orderedUserIDs); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "manual tie break saved"}, nil)
}

func (h *AdminHandler) RecordCoinTossTieBreak(w http.ResponseWriter, r *http.Request) {
	groupID, err := readIDParam(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		TiedUserIDs string `json:"tied_user_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tiedUserIDs, err := utils.ParseIDList(input.TiedUserIDs)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.scoringService.ApplyCoinTossTieBreak(r.Context(), groupID, tiedUserIDs); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "coin toss tie break saved"}, nil)
}

func (h *AdminHandler) GeneratePlayoff(w http.ResponseWriter, r *http.Request) {
	if err := h.playoffService.GeneratePlayoffFromGroups(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"status": "playoff stages created"}, nil)
}

func (h *AdminHandler) RecordPlayoffGame(w http.ResponseWriter, r *http.Request) {
	stageID, err := readIDParam(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		GroupNumber int    `json:"group_number"`
		Placements  string `json:"placements"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.GroupNumber < 1 {
		input.GroupNumber = 1
	}
	orderedUserIDs, err := utils.ParseIDList(input.Placements)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.playoffService.ApplyPlayoffMatchResults(r.Context(), stageID, input.GroupNumber, orderedUserIDs); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "playoff game recorded"}, nil)
}

func (h *AdminHandler) PromoteStage(w http.ResponseWriter, r *http.Request) {
	stageID, err := readIDParam(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		TopN int `json:"top_n"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.playoffService.PromoteTopBetweenStages(r.Context(), stageID, input.TopN); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "players promoted"}, nil)
}

func (h *AdminHandler) StartStage(w http.ResponseWriter, r *http.Request) {
	stageID, err := readIDParam(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.playoffService.StartStage(r.Context(), stageID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "stage started"}, nil)
}

func (h *AdminHandler) MoveUserToStage(w http.ResponseWriter, r *http.Request) {
	var input struct {
		FromStageID int `json:"from_stage_id"`
		ToStageID   int `json:"to_stage_id"`
		UserID      int `json:"user_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.playoffService.MoveUserToStage(r.Context(), input.FromStageID, input.ToStageID, input.UserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "player moved"}, nil)
}

func (h *AdminHandler) ReplaceStagePlayer(w http.ResponseWriter, r *http.Request) {
	stageID, err := readIDParam(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		FromUserID int `json:"from_user_id"`
		ToUserID   int `json:"to_user_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.playoffService.ReplaceStagePlayer(r.Context(), stageID, input.FromUserID, input.ToUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "player replaced"}, nil)
}

func (h *AdminHandler) AdjustStagePoints(w http.ResponseWriter, r *http.Request) {
	stageID, err := readIDParam(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		UserID      int `json:"user_id"`
		PointsDelta int `json:"points_delta"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.playoffService.AdjustStagePoints(r.Context(), stageID, input.UserID, input.PointsDelta); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "points adjusted"}, nil)
}

func (h *AdminHandler) OverrideMatchWinner(w http.ResponseWriter, r *http.Request) {
	stageID, err := readIDParam(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		GroupNumber  int    `json:"group_number"`
		WinnerUserID int    `json:"winner_user_id"`
		Note         string `json:"note"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.GroupNumber < 1 {
		input.GroupNumber = 1
	}
	err = h.playoffService.OverridePlayoffMatchWinner(r.Context(), stageID, input.GroupNumber, input.WinnerUserID, input.Note)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "winner overridden"}, nil)
}

func (h *AdminHandler) ArchiveTournament(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Season string `json:"season"`
		Title  string `json:"title"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	entry, err := h.archiveService.ArchiveTournament(r.Context(), input.Season, input.Title)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"archive": entry}, nil)
}

func (h *AdminHandler) PublishArchiveEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := readIDParam(r, "entryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Published bool `json:"published"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.archiveService.SetArchivePublished(r.Context(), entryID, input.Published); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"entry_id": entryID, "published": input.Published}, nil)
}
