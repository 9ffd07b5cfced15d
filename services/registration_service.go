package services

import (
	"context"
	"errors"
	"strings"

	"github.com/CatCodeArbelin/dacarbelin/brackets"
	"github.com/CatCodeArbelin/dacarbelin/models"
	"github.com/CatCodeArbelin/dacarbelin/repositories"
)

// RegistrationInput - данные регистрации после нормализации Steam id и
// запроса игрового профиля во внешнем слое.
type RegistrationInput struct {
	Nickname     string
	SteamInput   string
	SteamID      string
	GameNickname string
	CurrentRank  string
	HighestRank  string
	Telegram     string
	Discord      string
	ExtraData    string
}

// RegistrationService отвечает за набор участников: публичную регистрацию
// с посевом по корзинам, ручные инвайты администратора и учёт прямых
// инвайтов второго этапа.
type RegistrationService struct {
	tx          repositories.TxRunner
	userRepo    repositories.UserRepository
	settingRepo repositories.SettingRepository
}

func NewRegistrationService(
	tx repositories.TxRunner,
	userRepo repositories.UserRepository,
	settingRepo repositories.SettingRepository,
) *RegistrationService {
	return &RegistrationService{
		tx:          tx,
		userRepo:    userRepo,
		settingRepo: settingRepo,
	}
}

// RegistrationOpen сообщает, принимается ли публичная регистрация.
// Отсутствие настройки трактуется как открытую регистрацию.
func (s *RegistrationService) RegistrationOpen(ctx context.Context) (bool, error) {
	var open bool
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		setting, err := s.settingRepo.Get(ctx, exec, models.SettingRegistrationOpen)
		if err != nil {
			if errors.Is(err, repositories.ErrSettingNotFound) {
				open = true
				return nil
			}
			return err
		}
		open = setting.Value == "1"
		return nil
	})
	return open, err
}

// SetRegistrationOpen переключает доступность регистрации.
func (s *RegistrationService) SetRegistrationOpen(ctx context.Context, open bool) error {
	value := "0"
	if open {
		value = "1"
	}
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.settingRepo.Upsert(ctx, exec, models.SettingRegistrationOpen, value)
	})
}

// Register создаёт участника по данным публичной формы. Целевая корзина
// выводится из рангов; переполнение основной корзины уводит игрока в
// резерв.
func (s *RegistrationService) Register(ctx context.Context, input RegistrationInput) (*models.User, error) {
	var user *models.User
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		setting, err := s.settingRepo.Get(ctx, exec, models.SettingRegistrationOpen)
		if err != nil && !errors.Is(err, repositories.ErrSettingNotFound) {
			return err
		}
		if setting != nil && setting.Value != "1" {
			return ErrRegistrationClosed
		}

		if _, err := s.userRepo.GetBySteamID(ctx, exec, input.SteamID); err == nil {
			return ErrSteamIDConflict
		} else if !errors.Is(err, repositories.ErrUserNotFound) {
			return err
		}

		target := brackets.PickBasket(input.HighestRank, input.CurrentRank)
		counts, err := s.userRepo.CountByBasket(ctx, exec)
		if err != nil {
			return err
		}
		basket := brackets.AllocateBasket(target, counts, brackets.DefaultBasketLimit)

		user = buildUser(input, basket)
		if createErr := s.userRepo.Create(ctx, exec, user); createErr != nil {
			if errors.Is(createErr, repositories.ErrUserSteamConflict) {
				return ErrSteamIDConflict
			}
			return createErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// InviteUser добавляет участника вручную в корзину invited, минуя и флаг
// регистрации, и лимиты корзин.
func (s *RegistrationService) InviteUser(ctx context.Context, input RegistrationInput) (*models.User, error) {
	var user *models.User
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.userRepo.GetBySteamID(ctx, exec, input.SteamID); err == nil {
			return ErrSteamIDConflict
		} else if !errors.Is(err, repositories.ErrUserNotFound) {
			return err
		}

		user = buildUser(input, models.BasketInvited)
		if createErr := s.userRepo.Create(ctx, exec, user); createErr != nil {
			if errors.Is(createErr, repositories.ErrUserSteamConflict) {
				return ErrSteamIDConflict
			}
			return createErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SetDirectInvite помечает или снимает у игрока прямой инвайт во II этап.
// Одновременно помеченных игроков не может быть больше одиннадцати.
func (s *RegistrationService) SetDirectInvite(ctx context.Context, userID int, tagged bool) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		user, err := s.userRepo.GetByID(ctx, exec, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if !tagged {
			return s.userRepo.UpdateDirectInviteStage(ctx, exec, userID, nil)
		}
		if user.DirectInviteStage != nil && *user.DirectInviteStage == models.DirectInviteStage2 {
			return nil
		}
		tally, err := s.userRepo.CountByDirectInviteStage(ctx, exec, models.DirectInviteStage2)
		if err != nil {
			return err
		}
		if tally >= brackets.Stage2DirectInvitesLimit {
			return ErrDirectInviteLimit
		}
		stage := models.DirectInviteStage2
		return s.userRepo.UpdateDirectInviteStage(ctx, exec, userID, &stage)
	})
}

// UpdateUserBasket вручную перекладывает игрока в другую корзину.
func (s *RegistrationService) UpdateUserBasket(ctx context.Context, userID int, basket models.Basket) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		err := s.userRepo.UpdateBasket(ctx, exec, userID, basket)
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	})
}

func buildUser(input RegistrationInput, basket models.Basket) *models.User {
	user := &models.User{
		Nickname:     strings.TrimSpace(input.Nickname),
		SteamInput:   strings.TrimSpace(input.SteamInput),
		SteamID:      input.SteamID,
		GameNickname: input.GameNickname,
		CurrentRank:  input.CurrentRank,
		HighestRank:  input.HighestRank,
		Basket:       basket,
	}
	if telegram := strings.TrimSpace(input.Telegram); telegram != "" {
		user.Telegram = &telegram
	}
	if discord := strings.TrimSpace(input.Discord); discord != "" {
		user.Discord = &discord
	}
	if input.ExtraData != "" {
		extra := input.ExtraData
		user.ExtraData = &extra
	}
	return user
}
