package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-interview-api/internal/config"
	"github.com/noah-isme/gema-interview-api/internal/database"
	"github.com/noah-isme/gema-interview-api/internal/handler"
	"github.com/noah-isme/gema-interview-api/internal/middleware"
	"github.com/noah-isme/gema-interview-api/internal/models"
	"github.com/noah-isme/gema-interview-api/internal/repository"
	"github.com/noah-isme/gema-interview-api/internal/resume"
	"github.com/noah-isme/gema-interview-api/internal/router"
	"github.com/noah-isme/gema-interview-api/internal/service"
	cloud "github.com/noah-isme/gema-interview-api/pkg/cloudinary"
	"github.com/noah-isme/gema-interview-api/pkg/scoring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.AutoMigrate(&models.SessionRecord{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, completion events go to redis only")
		} else {
			defer natsConn.Drain()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	archive := repository.NewSessionRecordRepository(db)
	snapshots := repository.NewSessionSnapshotStore(redisClient, cfg.SnapshotTTL)

	deps := service.InterviewDependencies{
		Archive:   archive,
		Snapshots: snapshots,
		Evaluator: scoring.NewHeuristicEvaluator(scoring.HeuristicConfig{Delay: cfg.EvaluationDelay, Logger: logger}),
		Extractor: resume.NewExtractor(nil, logger),
		Publisher: service.NewCompletionPublisher(redisClient, natsConn, cfg.EventChannel, logger),
	}

	if cfg.CloudinaryEnabled() {
		store, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		deps.Storage = store
	} else {
		logger.Info().Msg("cloudinary not configured, resume files are not stored")
	}

	interviewService := service.NewInterviewService(deps, service.InterviewConfig{
		Role:            cfg.InterviewRole,
		MaxResumeSizeMB: cfg.ResumeMaxSizeMB,
	}, validate, logger)
	reviewService := service.NewReviewService(archive, validate, logger)

	if err := interviewService.Init(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("failed to restore live session, starting fresh")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.ResumeMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AppEnv != "production"})
	router.Register(app, cfg, router.Dependencies{
		InterviewHandler: handler.NewInterviewSessionHandler(interviewService, logger),
		ReviewHandler:    handler.NewReviewHandler(reviewService, interviewService, logger),
		HealthProbes: map[string]handler.HealthProbe{
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		},
		JWTMiddleware: middleware.JWTProtected(cfg.JWTSecret),
		AnswerLimiter: middleware.RateLimit("answers", cfg.AnswerRateLimit, cfg.AnswerRateWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, interviewService, logger)
}

func waitForShutdown(app *fiber.App, interviews service.InterviewService, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := interviews.Dispose(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to persist live session on shutdown")
	}

	logger.Info().Msg("server stopped")
}
