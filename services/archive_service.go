package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/CatCodeArbelin/dacarbelin/models"
	"github.com/CatCodeArbelin/dacarbelin/repositories"
	"github.com/CatCodeArbelin/dacarbelin/storage"
)

// ArchiveService замораживает завершённый турнир: сериализует сетку в JSON,
// сохраняет запись архива и выгружает снапшот в объектное хранилище.
type ArchiveService struct {
	tx              repositories.TxRunner
	stageRepo       repositories.PlayoffStageRepository
	participantRepo repositories.PlayoffParticipantRepository
	matchRepo       repositories.PlayoffMatchRepository
	userRepo        repositories.UserRepository
	archiveRepo     repositories.ArchiveRepository
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewArchiveService(
	tx repositories.TxRunner,
	stageRepo repositories.PlayoffStageRepository,
	participantRepo repositories.PlayoffParticipantRepository,
	matchRepo repositories.PlayoffMatchRepository,
	userRepo repositories.UserRepository,
	archiveRepo repositories.ArchiveRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) *ArchiveService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveService{
		tx:              tx,
		stageRepo:       stageRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		userRepo:        userRepo,
		archiveRepo:     archiveRepo,
		uploader:        uploader,
		logger:          logger,
	}
}

type archivedStage struct {
	Key          models.StageKey              `json:"key"`
	Title        string                       `json:"title"`
	StageOrder   int                          `json:"stage_order"`
	ScoringMode  models.ScoringMode           `json:"scoring_mode"`
	Participants []*models.PlayoffParticipant `json:"participants"`
	Matches      []*models.PlayoffMatch       `json:"matches"`
}

type bracketSnapshot struct {
	Season         string          `json:"season"`
	Title          string          `json:"title"`
	ChampionUserID int             `json:"champion_user_id"`
	ChampionName   string          `json:"champion_name"`
	Stages         []archivedStage `json:"stages"`
}

// ArchiveTournament создаёт запись архива по текущему состоянию playoff.
// Требует подтверждённого победителя финала. Выгрузка снапшота в хранилище
// идёт в лучшем случае: её провал не откатывает запись.
func (s *ArchiveService) ArchiveTournament(ctx context.Context, season, title string) (*models.ArchiveEntry, error) {
	var entry *models.ArchiveEntry
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		stages, err := s.stageRepo.ListAll(ctx, exec)
		if err != nil {
			return err
		}

		var champion *models.User
		snapshot := bracketSnapshot{Season: season, Title: strings.TrimSpace(title)}
		for _, stage := range stages {
			participants, listErr := s.participantRepo.ListByStage(ctx, exec, stage.ID)
			if listErr != nil {
				return listErr
			}
			matches, listErr := s.matchRepo.ListByStage(ctx, exec, stage.ID)
			if listErr != nil {
				return listErr
			}
			snapshot.Stages = append(snapshot.Stages, archivedStage{
				Key:          stage.Key,
				Title:        stage.Title,
				StageOrder:   stage.StageOrder,
				ScoringMode:  stage.ScoringMode,
				Participants: participants,
				Matches:      matches,
			})

			if stage.Key != models.StageKeyFinal {
				continue
			}
			for _, match := range matches {
				if match.State == models.MatchFinished && match.WinnerUserID != nil {
					champion, err = s.userRepo.GetByID(ctx, exec, *match.WinnerUserID)
					if err != nil {
						if errors.Is(err, repositories.ErrUserNotFound) {
							return ErrUserNotFound
						}
						return err
					}
				}
			}
		}
		if champion == nil {
			return ErrFinalNotFinished
		}
		snapshot.ChampionUserID = champion.ID
		snapshot.ChampionName = champion.Nickname

		payload, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("failed to encode bracket snapshot: %w", err)
		}

		entry = &models.ArchiveEntry{
			PublicKey:      uuid.NewString(),
			Season:         season,
			Title:          snapshot.Title,
			ChampionName:   champion.Nickname,
			BracketPayload: string(payload),
		}
		return s.archiveRepo.Create(ctx, exec, entry)
	})
	if err != nil {
		return nil, err
	}

	s.uploadSnapshot(ctx, entry)
	return entry, nil
}

// uploadSnapshot выгружает JSON архива в R2 и сохраняет URL зеркала в записи.
// Неудача только логируется: запись архива уже зафиксирована и остаётся
// источником истины.
func (s *ArchiveService) uploadSnapshot(ctx context.Context, entry *models.ArchiveEntry) {
	if s.uploader == nil {
		return
	}
	key := fmt.Sprintf("archive/%s.json", entry.PublicKey)
	result, err := s.uploader.Upload(ctx, key, "application/json", strings.NewReader(entry.BracketPayload))
	if err != nil {
		s.logger.Warn("archive snapshot upload failed", "key", key, "error", err)
		return
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.archiveRepo.UpdateSnapshotURL(ctx, exec, entry.ID, result.Location)
	})
	if err != nil {
		s.logger.Warn("archive snapshot url update failed", "key", key, "error", err)
		return
	}
	entry.SnapshotURL = &result.Location
}

// ListArchive возвращает записи архива, опционально только опубликованные.
func (s *ArchiveService) ListArchive(ctx context.Context, publishedOnly bool) ([]*models.ArchiveEntry, error) {
	var entries []*models.ArchiveEntry
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var listErr error
		entries, listErr = s.archiveRepo.List(ctx, exec, publishedOnly)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// SetArchivePublished открывает или скрывает запись архива на сайте.
func (s *ArchiveService) SetArchivePublished(ctx context.Context, entryID int, published bool) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		err := s.archiveRepo.SetPublished(ctx, exec, entryID, published)
		if errors.Is(err, repositories.ErrArchiveEntryNotFound) {
			return ErrArchiveEntryNotFound
		}
		return err
	})
}
