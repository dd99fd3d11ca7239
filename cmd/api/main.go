package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/unishare-api/internal/config"
	"github.com/noah-isme/unishare-api/internal/database"
	"github.com/noah-isme/unishare-api/internal/handler"
	"github.com/noah-isme/unishare-api/internal/middleware"
	"github.com/noah-isme/unishare-api/internal/observability"
	"github.com/noah-isme/unishare-api/internal/repository"
	"github.com/noah-isme/unishare-api/internal/router"
	"github.com/noah-isme/unishare-api/internal/scheduler"
	"github.com/noah-isme/unishare-api/internal/service"
	cloud "github.com/noah-isme/unishare-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}
	logger = logger.With().Str("service", cfg.AppName).Str("env", cfg.AppEnv).Logger()

	observability.RegisterMetrics()

	db, err := database.ConnectPostgres(context.Background(), cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnLifetime,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Close()
	}

	var storage service.FileStorage
	if cfg.CloudinaryEnabled() {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		storage = uploader
	} else {
		logger.Warn().Msg("cloudinary not configured; notes must reference an external file_url")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	hub := service.NewRealtimeHub(redisClient, cfg.RealtimeChannel, natsConn, logger)
	hub.Start(rootCtx)

	activityService := service.NewActivityService(activityRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, hub, cfg.NotificationRetention, logger)
	schedulerLocation, err := scheduler.LoadLocation(cfg.SchedulerTimezone)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load scheduler timezone")
	}
	gamificationService := service.NewGamificationService(userRepo, notificationService, redisClient, cfg.LeaderboardCacheTTL, schedulerLocation, logger)

	var files service.NoteFileUploader
	if storage != nil {
		files = service.NewNoteFileUploader(storage, cfg.UploadMaxSizeMB, logger)
	}
	noteService := service.NewNoteService(noteRepo, gamificationService, files, activityService, validate, logger)
	commentService := service.NewCommentService(commentRepo, noteRepo, gamificationService, notificationService, activityService, validate, logger)
	reactionService := service.NewReactionService(reactionRepo, noteRepo, gamificationService, notificationService, activityService, validate, cfg.ReportThreshold, logger)

	jobs := scheduler.New(scheduler.Config{
		Enabled:          cfg.SchedulerEnabled,
		Timezone:         cfg.SchedulerTimezone,
		MonthlyResetSpec: cfg.MonthlyResetCron,
		RetentionSpec:    cfg.RetentionCron,
	}, gamificationService, notificationService, logger)
	if err := jobs.Start(rootCtx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start scheduler")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:    cfg.AccessLog,
	})
	router.Register(app, cfg, router.Dependencies{
		NoteHandler:          handler.NewNoteHandler(noteService, logger),
		CommentHandler:       handler.NewCommentHandler(commentService, logger),
		ReactionHandler:      handler.NewReactionHandler(reactionService, logger),
		NotificationHandler:  handler.NewNotificationHandler(notificationService, logger),
		ScoreboardHandler:    handler.NewScoreboardHandler(gamificationService, validate, logger),
		RealtimeHandler:      handler.NewRealtimeHandler(hub, logger, 30*time.Second),
		AdminActivityHandler: handler.NewAdminActivityHandler(activityService, logger),
		HealthChecks:         healthChecks(db, redisClient, natsConn),
		JWTMiddleware:        middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("http server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
	cancelRoot()
	jobs.Stop()
}

func healthChecks(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) map[string]handler.DependencyCheck {
	checks := map[string]handler.DependencyCheck{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if natsConn != nil {
		checks["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		}
	}
	return checks
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
