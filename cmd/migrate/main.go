package main

import (
	"errors"
	"flag"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"

	"github.com/Skotchmaster/storepanel/pkg/config"
	"github.com/Skotchmaster/storepanel/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	logger := logging.New(config.EnvDefault("LOG_LEVEL", "info")).With("service", "storepanel-migrate")

	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		logger.Error("usage: migrate <up|down|version>")
		os.Exit(1)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Error("DATABASE_URL environment variable is required")
		os.Exit(1)
	}
	source := config.EnvDefault("MIGRATIONS_PATH", "file://migrations")

	m, err := migrate.New(source, databaseURL)
	if err != nil {
		logger.Error("migrate_init_failed", "error", err)
		os.Exit(1)
	}
	defer func() { _, _ = m.Close() }()

	switch args[0] {
	case "up":
		err = m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no pending migrations")
			return
		}
		if err != nil {
			logger.Error("migration_up_failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")

	case "down":
		err = m.Steps(-1)
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to roll back")
			return
		}
		if err != nil {
			logger.Error("migration_down_failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migration rolled back")

	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied yet")
			return
		}
		if err != nil {
			logger.Error("version_failed", "error", err)
			os.Exit(1)
		}
		logger.Info("current migration version", "version", v, "dirty", dirty)

	default:
		logger.Error("unknown command", "command", args[0])
		os.Exit(1)
	}
}
