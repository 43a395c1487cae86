package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/debate-tab/brackets"
	"github.com/Dosada05/debate-tab/config"
	"github.com/Dosada05/debate-tab/db"
	"github.com/Dosada05/debate-tab/handlers"
	"github.com/Dosada05/debate-tab/repositories"
	api "github.com/Dosada05/debate-tab/routes"
	"github.com/Dosada05/debate-tab/services"
	"github.com/Dosada05/debate-tab/storage"
	"github.com/go-chi/chi/v5"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.Int("draw_swap_attempts", cfg.DrawSwapAttempts),
		slog.Bool("r2_enabled", cfg.R2.Enabled()))

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	// Подключение к базе данных
	dbConn, err := db.Connect(startupCtx, cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
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
	logger.Info("database connection established", slog.Int("max_open_conns", cfg.DB.MaxOpenConns))

	if err := db.CreateSchema(startupCtx, dbConn); err != nil {
		logger.Error("failed to create schema", slog.Any("error", err))
		os.Exit(1)
	}

	// Снимки жеребьёвки и таблицы в R2 (опционально)
	var snapshots services.SnapshotPublisher
	if cfg.R2.Enabled() {
		uploader, err := storage.NewCloudflareR2Uploader(startupCtx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		snapshots = storage.NewSnapshotPublisher(uploader)
		logger.Info("Cloudflare R2 snapshot publisher initialized")
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	participationRepo := repositories.NewPostgresParticipationRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	pairingRepo := repositories.NewPostgresPairingRepository(dbConn)
	pairingJudgeRepo := repositories.NewPostgresPairingJudgeRepository(dbConn)
	ballotRepo := repositories.NewPostgresBallotRepository(dbConn)
	resultRepo := repositories.NewPostgresResultRepository(dbConn)
	standingRepo := repositories.NewPostgresTournamentStandingRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo, logger)
	userService := services.NewUserService(userRepo)
	tournamentService := services.NewTournamentService(dbConn, tournamentRepo, teamRepo, participationRepo, logger)
	standingsService := services.NewStandingsService(
		dbConn, tournamentRepo, teamRepo, pairingRepo, standingRepo, wsHub, snapshots, logger,
	)
	drawService := services.NewDrawService(
		dbConn,
		brackets.NewPowerPairingGenerator(),
		tournamentRepo,
		roundRepo,
		teamRepo,
		pairingRepo,
		pairingJudgeRepo,
		wsHub,
		cfg.DrawSwapAttempts,
		logger,
	)
	allocationService := services.NewAllocationService(
		dbConn, brackets.NewAllocator(), roundRepo, pairingRepo, pairingJudgeRepo, participationRepo, wsHub, logger,
	)
	roundService := services.NewRoundService(
		dbConn, tournamentRepo, roundRepo, pairingRepo, pairingJudgeRepo, wsHub, snapshots, logger,
	)
	resultService := services.NewResultService(
		dbConn, roundRepo, pairingRepo, pairingJudgeRepo, ballotRepo, resultRepo, wsHub, logger,
	)
	logger.Info("Services initialized")

	if cfg.AdminEmail != "" {
		if err := authService.EnsureAdmin(startupCtx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Error("failed to create bootstrap admin", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, standingsService)
	roundHandler := handlers.NewRoundHandler(roundService, drawService, allocationService)
	pairingHandler := handlers.NewPairingHandler(allocationService, resultService)
	userHandler := handlers.NewUserHandler(userService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		cfg.CORSAllowedOrigins,
		authHandler,
		tournamentHandler,
		roundHandler,
		pairingHandler,
		userHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
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
