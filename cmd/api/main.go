package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dotk/api/internal/cache"
	"dotk/api/internal/config"
	"dotk/api/internal/database"
	"dotk/api/internal/handlers"
	"dotk/api/internal/jobs"
	"dotk/api/internal/log"
	"dotk/api/internal/models"
	"dotk/api/internal/repository"
	"dotk/api/internal/security"
	"dotk/api/internal/server"
	"dotk/api/internal/service"
	"dotk/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	if err := database.Migrate(cfg.Postgres); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		// Public listings fall back to hitting postgres directly.
		logger.Warn().Err(err).Msg("redis unavailable, running without cache")
		redisClient = nil
	}

	fileStore, err := storage.NewFileStore(cfg.Uploads, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init file store")
	}

	tokens, err := security.NewTokenService(cfg.Security.JWTSecret, cfg.Security.JWTAlgorithm, cfg.Security.JWTTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init token service")
	}

	users := repository.NewUserRepository(dbPool)
	tenders := repository.NewTenderRepository(dbPool)
	events := repository.NewEventRepository(dbPool)

	if err := bootstrapAdmin(ctx, cfg, logger, users); err != nil {
		logger.Fatal().Err(err).Msg("bootstrap admin failed")
	}

	handlerSet := handlers.NewHandlerSet(cfg, logger, handlers.Deps{
		DB:      dbPool,
		Cache:   redisClient,
		Tokens:  tokens,
		Users:   users,
		Tenders: tenders,
		Events:  events,
		Uploads: service.NewUploadService(fileStore, cfg.Uploads, logger),
		Files:   fileStore,
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(tenders, redisClient, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

// bootstrapAdmin seeds the first super admin when the users table is
// empty, so a fresh deployment can be logged into at all. The password
// must come from the environment; nothing is generated or printed.
func bootstrapAdmin(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger, users *repository.UserRepository) error {
	count, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if cfg.Security.InitialAdminPassword == "" {
		logger.Warn().Msg("users table empty and no initial admin password configured")
		return nil
	}

	hash, err := security.HashPassword(cfg.Security.InitialAdminPassword, cfg.Security.BcryptCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:     cfg.Security.InitialAdminUsername,
		Email:        cfg.Security.InitialAdminEmail,
		PasswordHash: hash,
		FullName:     "Administrator",
		Role:         models.RoleSuperAdmin,
		IsActive:     true,
	}
	if err := users.Create(ctx, &admin); err != nil {
		return err
	}

	logger.Info().Str("username", admin.Username).Msg("initial super admin created")
	return nil
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	db.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
