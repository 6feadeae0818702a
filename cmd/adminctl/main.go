// Command adminctl provisions admin accounts out of band. There is no
// sign-up endpoint; this is the only way to create one.
//
//	adminctl -username ops -password '...'            create, skip if present
//	adminctl -username ops -password '...' -rotate    create or replace password
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"stellarreg/api/internal/config"
	"stellarreg/api/internal/database"
	"stellarreg/api/internal/log"
	"stellarreg/api/internal/repository"
	"stellarreg/api/internal/security"
	"stellarreg/api/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: search ./config.yaml)")
	username := flag.String("username", "", "admin username")
	password := flag.String("password", os.Getenv("STELLARREG_ADMIN_PASSWORD"), "admin password (or STELLARREG_ADMIN_PASSWORD)")
	rotate := flag.Bool("rotate", false, "replace the password of an existing admin and end its session")
	flag.Parse()

	if err := run(*configPath, *username, *password, *rotate); err != nil {
		fmt.Fprintln(os.Stderr, "adminctl:", err)
		os.Exit(1)
	}
}

func run(configPath, username, password string, rotate bool) error {
	var (
		cfg *config.AppConfig
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required; in-memory runs use admin.bootstrapusername instead")
	}

	logger := log.New(cfg.Environment, cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if cfg.Postgres.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	hasher := security.NewHasher(security.ParamsFromConfig(cfg.Security.PasswordHash, security.DefaultPasswordParams))
	created, err := service.ProvisionAdmin(ctx, repository.NewAdminRepository(pool), hasher, username, password, rotate)
	if err != nil {
		return err
	}

	switch {
	case created:
		logger.Info().Str("username", username).Msg("admin created")
	case rotate:
		logger.Info().Str("username", username).Msg("admin password rotated")
	default:
		logger.Warn().Str("username", username).Msg("admin already exists, nothing changed (use -rotate)")
	}
	return nil
}
