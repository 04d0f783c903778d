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

	_ "github.com/lib/pq"

	"github.com/dufire/tournament-backend/config"
	"github.com/dufire/tournament-backend/db"
	_ "github.com/dufire/tournament-backend/docs"
	"github.com/dufire/tournament-backend/handlers"
	"github.com/dufire/tournament-backend/realtime"
	"github.com/dufire/tournament-backend/repositories"
	api "github.com/dufire/tournament-backend/routes"
	"github.com/dufire/tournament-backend/services"
	"github.com/dufire/tournament-backend/storage"
)

// @title Tournament Backend API
// @version 1.0
// @description Esports tournament platform with USDT entry fees and prize distribution.
// @BasePath /
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

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

	var uploader storage.FileUploader
	if cfg.HasR2() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
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
		logger.Warn("R2 storage not configured, avatar and banner uploads disabled")
	}

	hub := realtime.NewHub(logger)
	go hub.Run()
	logger.Info("realtime hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	paymentRepo := repositories.NewPostgresPaymentRepository(dbConn)
	scoreRepo := repositories.NewPostgresScoreRepository(dbConn)
	prizeRepo := repositories.NewPostgresPrizeRepository(dbConn)
	ledgerRepo := repositories.NewPostgresPoolLedgerRepository(dbConn)
	logger.Info("repositories initialized")

	txBeginner := services.NewTxBeginner(dbConn)

	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, tournamentRepo, uploader)
	tournamentService := services.NewTournamentService(
		txBeginner,
		tournamentRepo,
		participantRepo,
		paymentRepo,
		scoreRepo,
		prizeRepo,
		ledgerRepo,
		userRepo,
		uploader,
		hub,
		logger,
	)
	scoreService := services.NewScoreService(userRepo, tournamentRepo, scoreRepo, hub, logger)
	paymentService := services.NewPaymentService(
		txBeginner,
		paymentRepo,
		participantRepo,
		tournamentRepo,
		ledgerRepo,
		userRepo,
		logger,
	)
	prizeService := services.NewPrizeService(
		txBeginner,
		tournamentRepo,
		scoreRepo,
		prizeRepo,
		userRepo,
		hub,
		logger,
	)
	logger.Info("services initialized")

	router := api.InitRoutes(api.Handlers{
		Auth:       handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		User:       handlers.NewUserHandler(userService),
		Tournament: handlers.NewTournamentHandler(tournamentService, scoreService),
		Score:      handlers.NewScoreHandler(scoreService, cfg.JWTSecretKey),
		Payment:    handlers.NewPaymentHandler(paymentService, cfg.CentralWallet),
		Prize:      handlers.NewPrizeHandler(prizeService),
		WebSocket:  handlers.NewWebSocketHandler(hub, scoreService, tournamentService, logger),
	}, cfg.JWTSecretKey)
	logger.Info("routes configured")

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
		} else {
			logger.Info("server shut down gracefully")
		}
	}
}
