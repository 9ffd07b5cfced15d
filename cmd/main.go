package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/CatCodeArbelin/dacarbelin/config"
	"github.com/CatCodeArbelin/dacarbelin/db"
	"github.com/CatCodeArbelin/dacarbelin/handlers"
	"github.com/CatCodeArbelin/dacarbelin/middleware"
	"github.com/CatCodeArbelin/dacarbelin/repositories"
	api "github.com/CatCodeArbelin/dacarbelin/routes"
	"github.com/CatCodeArbelin/dacarbelin/services"
	"github.com/CatCodeArbelin/dacarbelin/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Хранилище снапшотов архива (опционально)
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("R2 storage is not configured, archive snapshots stay in the database only")
	}

	// Инициализация репозиториев
	txRunner := repositories.NewSQLTxRunner(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	groupRepo := repositories.NewPostgresGroupRepository(dbConn)
	memberRepo := repositories.NewPostgresGroupMemberRepository(dbConn)
	resultRepo := repositories.NewPostgresGroupResultRepository(dbConn)
	tieBreakRepo := repositories.NewPostgresTieBreakRepository(dbConn)
	stageRepo := repositories.NewPostgresPlayoffStageRepository(dbConn)
	participantRepo := repositories.NewPostgresPlayoffParticipantRepository(dbConn)
	matchRepo := repositories.NewPostgresPlayoffMatchRepository(dbConn)
	settingRepo := repositories.NewPostgresSettingRepository(dbConn)
	archiveRepo := repositories.NewPostgresArchiveRepository(dbConn)
	logger.Info("repositories initialized")

	// Единый источник случайности для жеребьёвок и паролей лобби
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// Инициализация сервисов
	registrationService := services.NewRegistrationService(txRunner, userRepo, settingRepo)
	drawService := services.NewDrawService(txRunner, groupRepo, memberRepo, resultRepo, tieBreakRepo, userRepo, rng)
	scoringService := services.NewScoringService(txRunner, groupRepo, memberRepo, resultRepo, tieBreakRepo, rng)
	playoffService := services.NewPlayoffService(
		txRunner,
		stageRepo,
		participantRepo,
		matchRepo,
		groupRepo,
		memberRepo,
		tieBreakRepo,
		userRepo,
		rng,
	)
	archiveService := services.NewArchiveService(
		txRunner,
		stageRepo,
		participantRepo,
		matchRepo,
		userRepo,
		archiveRepo,
		uploader,
		logger,
	)
	logger.Info("services initialized")

	// Инициализация обработчиков HTTP
	adminAuth := middleware.NewAdminAuth(cfg.JWTSecretKey, cfg.AdminKeyHash)
	tournamentHandler := handlers.NewTournamentHandler(registrationService, scoringService, playoffService, archiveService)
	adminHandler := handlers.NewAdminHandler(adminAuth, registrationService, drawService, scoringService, playoffService, archiveService)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, adminAuth, tournamentHandler, adminHandler)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
