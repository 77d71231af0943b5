package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"

	"github.com/osse101/TriviaCast_Go/internal/database"
)

// maintenanceDB is the database used to create and drop the application database
const maintenanceDB = "postgres"

type DBCommand struct{}

func (c *DBCommand) Name() string {
	return "db"
}

func (c *DBCommand) Description() string {
	return "Create (if missing) or reset the database, then apply migrations (create, reset)"
}

func (c *DBCommand) Run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("subcommand required: create, reset")
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.Timeout)
	defer cancel()

	dbName, serverURL, err := splitDatabase(e.dbURL())
	if err != nil {
		return err
	}

	conn, err := pgx.Connect(ctx, serverURL)
	if err != nil {
		return fmt.Errorf("connect to %s database: %w", maintenanceDB, err)
	}
	defer conn.Close(ctx)

	ident := pgx.Identifier{dbName}.Sanitize()

	switch args[0] {
	case "create":
		var exists bool
		if err := conn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists); err != nil {
			return fmt.Errorf("check database exists: %w", err)
		}
		if exists {
			PrintInfo("Database %s already exists", dbName)
			break
		}
		if _, err := conn.Exec(ctx, "CREATE DATABASE "+ident); err != nil {
			return fmt.Errorf("create database: %w", err)
		}
		PrintSuccess("Database %s created", dbName)

	case "reset":
		PrintInfo("Terminating existing connections to %s...", dbName)
		if _, err := conn.Exec(ctx, `
			SELECT pg_terminate_backend(pid)
			FROM pg_stat_activity
			WHERE datname = $1 AND pid <> pg_backend_pid()`, dbName); err != nil {
			PrintWarning("Failed to terminate connections: %v", err)
		}
		if _, err := conn.Exec(ctx, "DROP DATABASE IF EXISTS "+ident); err != nil {
			return fmt.Errorf("drop database: %w", err)
		}
		if _, err := conn.Exec(ctx, "CREATE DATABASE "+ident); err != nil {
			return fmt.Errorf("create database: %w", err)
		}
		PrintSuccess("Database %s recreated", dbName)

	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}

	pool, err := openPool(ctx, e)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}
	PrintSuccess("Migrations applied")
	return nil
}

// splitDatabase returns the database name from connStr and the same URL
// pointed at the maintenance database
func splitDatabase(connStr string) (string, string, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return "", "", fmt.Errorf("parse database URL: %w", err)
	}
	name := u.Path
	if len(name) > 0 && name[0] == '/' {
		name = name[1:]
	}
	if name == "" {
		return "", "", fmt.Errorf("database URL has no database name")
	}
	u.Path = "/" + maintenanceDB
	return name, u.String(), nil
}
