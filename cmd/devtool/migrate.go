package main

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/osse101/TriviaCast_Go/internal/database"
)

// migrationsDir is where new migration files are created
const migrationsDir = "migrations"

type MigrateCommand struct{}

func (c *MigrateCommand) Name() string {
	return "migrate"
}

func (c *MigrateCommand) Description() string {
	return "Manage database migrations (up, status, create)"
}

func (c *MigrateCommand) Run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("subcommand required: up, status, create")
	}
	subcmd := args[0]

	// Handle create command (no DB connection needed)
	if subcmd == "create" {
		if len(args) < 2 {
			return fmt.Errorf("migration name required for create")
		}
		migrationType := "sql"
		if len(args) > 2 {
			migrationType = args[2]
		}
		goose.SetSequential(true)
		return goose.Create(nil, migrationsDir, args[1], migrationType)
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.Timeout)
	defer cancel()

	pool, err := openPool(ctx, e)
	if err != nil {
		return err
	}
	defer pool.Close()

	switch subcmd {
	case "up":
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		PrintSuccess("Migrations applied")
		return nil
	case "status":
		return database.MigrationStatus(ctx, pool)
	default:
		return fmt.Errorf("unknown subcommand: %s", subcmd)
	}
}
