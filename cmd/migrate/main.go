package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/koekalenteri/qualification/internal/logger"
	"github.com/koekalenteri/qualification/migrations"
)

func main() {
	var databaseURL string
	var migrationsPath string
	var command string

	flag.StringVar(&databaseURL, "database", "", "Database URL (required)")
	flag.StringVar(&migrationsPath, "path", "", "Migrations directory, the embedded schema when empty")
	flag.StringVar(&command, "command", "up", "Migration command: up, down, steps, version, force")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		logger.Fatal("Database URL is required. Use -database flag or DATABASE_URL environment variable")
	}

	m, err := open(databaseURL, migrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migration instance", "error", err)
	}
	defer m.Close()

	switch command {
	case "up":
		logger.Info("Running migrations up")
		err = m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("No migrations to run, result store schema is up to date")
			return
		}
		if err != nil {
			logger.Fatal("Failed to run migrations", "error", err)
		}
		logger.Info("Migrations completed")

	case "down":
		logger.Info("Rolling back migrations")
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal("Failed to rollback migrations", "error", err)
		}
		logger.Info("Rollback completed")

	case "steps":
		n, err := intArg("steps")
		if err != nil {
			logger.Fatal("Invalid step count", "error", err)
		}
		if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal("Failed to migrate", "steps", n, "error", err)
		}
		logger.Info("Migrated", "steps", n)

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			logger.Fatal("Failed to get version", "error", err)
		}
		logger.Info("Current version", "version", version, "dirty", dirty)

	case "force":
		version, err := intArg("force")
		if err != nil {
			logger.Fatal("Invalid version number", "error", err)
		}
		if err := m.Force(version); err != nil {
			logger.Fatal("Failed to force version", "error", err)
		}
		logger.Info("Forced version", "version", version)

	default:
		logger.Fatal(fmt.Sprintf("Unknown command: %s (use: up, down, steps, version, force)", command))
	}
}

func open(databaseURL, path string) (*migrate.Migrate, error) {
	if path == "" {
		return migrations.New(databaseURL)
	}
	logger.Info("Reading migrations", "path", path)
	return migrate.New("file://"+path, databaseURL)
}

func intArg(command string) (int, error) {
	if flag.NArg() < 1 {
		return 0, fmt.Errorf("%s requires a number: -command %s <n>", command, command)
	}
	return strconv.Atoi(flag.Arg(0))
}
