package handlers

import (
	"errors"
	"net/http"

	"github.com/CatCodeArbelin/dacarbelin/services"
	"github.com/CatCodeArbelin/dacarbelin/utils"
)

// TournamentHandler обслуживает публичную часть сайта: регистрацию,
// таблицы групп, playoff-сетку и архив.
type TournamentHandler struct {
	registrationService *services.RegistrationService
	scoringService      *services.ScoringService
	playoffService      *services.PlayoffService
	archiveService      *services.ArchiveService
}

func NewTournamentHandler(
	registrationService *services.RegistrationService,
	scoringService *services.ScoringService,
	playoffService *services.PlayoffService,
	archiveService *services.ArchiveService,
) *TournamentHandler {
	return &TournamentHandler{
		registrationService: registrationService,
		scoringService:      scoringService,
		playoffService:      playoffService,
		archiveService:      archiveService,
	}
}

func (h *TournamentHandler) Register(w http.ResponseWriter, r *http.Request) {
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
	if input.Nickname == "" || input.SteamInput == "" {
		badRequestResponse(w, r, errors.New("nickname and steam_input are required"))
		return
	}

	steamID := utils.NormalizeSteamID(input.SteamInput)
	if steamID == "" {
		badRequestResponse(w, r, errors.New("invalid steam id"))
		return
	}

	user, err := h.registrationService.Register(r.Context(), services.RegistrationInput{
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

func (h *TournamentHandler) RegistrationStatus(w http.ResponseWriter, r *http.Request) {
	open, err := h.registrationService.RegistrationOpen(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"registration_open": open}, nil)
}

func (h *TournamentHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.scoringService.GroupsWithTables(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"groups": groups}, nil)
}

func (h *TournamentHandler) GroupTable(w http.ResponseWriter, r *http.Request) {
	groupID, err := readIDParam(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	table, err := h.scoringService.GroupTable(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"table": table}, nil)
}

// TiedGroups показывает подмножества полностью равных игроков группы,
// для которых допустим ручной tie-break или coin toss.
func (h *TournamentHandler) TiedGroups(w http.ResponseWriter, r *http.Request) {
	groupID, err := readIDParam(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tied, err := h.scoringService.FullyTiedGroups(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tied_groups": tied}, nil)
}

func (h *TournamentHandler) PlayoffStages(w http.ResponseWriter, r *http.Request) {
	stages, err := h.playoffService.StagesWithData(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"stages": stages}, nil)
}

func (h *TournamentHandler) Archive(w http.ResponseWriter, r *http.Request) {
	entries, err := h.archiveService.ListArchive(r.Context(), true)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"archive": entries}, nil)
}
