package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/CatCodeArbelin/dacarbelin/brackets"
	"github.com/CatCodeArbelin/dacarbelin/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	if err != nil {
		return err
	}

	return nil
}

func readIDParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Не найдено
	case errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrGroupMemberNotFound),
		errors.Is(err, services.ErrStageNotFound),
		errors.Is(err, services.ErrNextStageNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrStageParticipantNotFound),
		errors.Is(err, services.ErrSourceParticipantNotFound),
		errors.Is(err, services.ErrReplacedPlayerNotFound),
		errors.Is(err, services.ErrArchiveEntryNotFound):
		notFoundResponse(w, r)

	// Конфликты состояния
	case errors.Is(err, services.ErrPlayerAlreadyInGroup),
		errors.Is(err, services.ErrPlayerInAnotherGroup),
		errors.Is(err, services.ErrGroupFull),
		errors.Is(err, services.ErrGroupNameConflict),
		errors.Is(err, services.ErrGameAlreadyScored),
		errors.Is(err, services.ErrPlayoffGameLimitReached),
		errors.Is(err, services.ErrPlayerAlreadyOnStage),
		errors.Is(err, services.ErrDirectInviteLimit),
		errors.Is(err, services.ErrSteamIDConflict):
		conflictResponse(w, r, err.Error())

	// Невалидные данные и нарушенные бизнес-правила
	case errors.Is(err, services.ErrResultsNeedEightUniqueIDs),
		errors.Is(err, services.ErrTieBreakNeedTwoUniqueIDs),
		errors.Is(err, services.ErrManualDrawDuplicateIDs),
		errors.Is(err, services.ErrManualDrawGroupCount),
		errors.Is(err, services.ErrManualDrawTooManyPlayers),
		errors.Is(err, services.ErrGroupNameRequired),
		errors.Is(err, services.ErrSameGroupSwap),
		errors.Is(err, services.ErrResultPlayerNotInGroup),
		errors.Is(err, services.ErrTieBreakPlayerNotInGroup),
		errors.Is(err, services.ErrTieBreakNotFullyTied),
		errors.Is(err, services.ErrGroupStageMissing),
		errors.Is(err, services.ErrGroupStageUnfinished),
		errors.Is(err, services.ErrStage1PromotedCount),
		errors.Is(err, services.ErrNotEnoughPlayoffPlayers),
		errors.Is(err, services.ErrResultPlayerNotInStage),
		errors.Is(err, services.ErrResultPlayerWrongGroup),
		errors.Is(err, services.ErrStagePromotionUnsupported),
		errors.Is(err, services.ErrWinnerNotOnStage),
		errors.Is(err, services.ErrFinalNotFinished),
		errors.Is(err, brackets.ErrAutoDrawNotEnoughPlayers),
		errors.Is(err, brackets.ErrAutoDrawGroupAssembly),
		errors.Is(err, brackets.ErrAutoDrawInvalidResult),
		errors.Is(err, brackets.ErrStage2PromotedCount),
		errors.Is(err, brackets.ErrStage2InvitesTooMany),
		errors.Is(err, brackets.ErrStage2InvitesTooFew),
		errors.Is(err, brackets.ErrStage2DuplicateIDs),
		errors.Is(err, brackets.ErrStage2InviteOverlap),
		errors.Is(err, brackets.ErrStage2RosterSize):
		badRequestResponse(w, r, err)

	// Доступ
	case errors.Is(err, services.ErrRegistrationClosed):
		forbiddenResponse(w, r, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}
