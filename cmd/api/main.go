package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"stellarreg/api/internal/cache"
	"stellarreg/api/internal/config"
	"stellarreg/api/internal/database"
	"stellarreg/api/internal/handlers"
	"stellarreg/api/internal/jobs"
	"stellarreg/api/internal/log"
	"stellarreg/api/internal/metrics"
	"stellarreg/api/internal/ratelimit"
	"stellarreg/api/internal/repository"
	"stellarreg/api/internal/security"
	"stellarreg/api/internal/server"
	"stellarreg/api/internal/service"
)

type stores struct {
	admins interface {
		service.AccountStore
		service.AdminProvisioner
	}
	registrations service.RegistrationStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Log)

	ctx := context.Background()

	var dbPool *pgxpool.Pool
	var st stores
	if cfg.Postgres.DSN == "" {
		logger.Warn().Msg("postgres.dsn not set, using in-memory stores")
		st = stores{
			admins:        repository.NewMemoryAdminRepository(),
			registrations: repository.NewMemoryRegistrationRepository(),
		}
	} else {
		dbPool, err = database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect postgres")
		}
		if cfg.Postgres.AutoMigrate {
			if err := database.Migrate(ctx, dbPool); err != nil {
				logger.Fatal().Err(err).Msg("failed to apply schema")
			}
		}
		st = stores{
			admins:        repository.NewAdminRepository(dbPool),
			registrations: repository.NewRegistrationRepository(dbPool),
		}
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	passwords := security.NewHasher(security.ParamsFromConfig(cfg.Security.PasswordHash, security.DefaultPasswordParams))
	sessions := security.NewHasher(security.ParamsFromConfig(cfg.Security.SessionHash, security.DefaultSessionParams))

	if cfg.Admin.BootstrapUsername != "" {
		created, err := service.ProvisionAdmin(ctx, st.admins, passwords, cfg.Admin.BootstrapUsername, cfg.Admin.BootstrapPassword, false)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to bootstrap admin")
		}
		logger.Info().Str("username", cfg.Admin.BootstrapUsername).Bool("created", created).Msg("bootstrap admin ready")
	}

	authService, err := service.NewAuthService(st.admins, passwords, sessions, service.AuthOptions{
		SessionTTL:        cfg.Security.SessionTTL,
		BestEffortSession: cfg.Security.BestEffortSession,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init auth service")
	}

	limiter, err := ratelimit.New(cfg.RateLimit, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init rate limiter")
	}

	m := metrics.NewManager("api")

	deps := handlers.Dependencies{
		Cache:         redisClient,
		Auth:          authService,
		Registrations: service.NewRegistrationService(st.registrations),
		SearchLimiter: limiter,
		Metrics:       m,
	}
	if dbPool != nil {
		deps.DB = dbPool
	}
	handlerSet := handlers.NewHandlerSet(logger, cfg, deps)

	httpServer, err := server.NewHTTPServer(cfg, logger, m, handlerSet)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init http server")
	}

	scheduler := jobs.NewScheduler(cfg.Jobs, cfg.RateLimit, limiter, authService, m, logger)
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

	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("scheduler jobs still running")
	}

	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
