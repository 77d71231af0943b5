package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/osse101/TriviaCast_Go/migrations"
)

// Migrate applies all pending embedded migrations
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := useEmbeddedMigrations(); err != nil {
		return err
	}
	defer goose.SetBaseFS(nil)

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToMigrate, err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToMigrate, err)
	}
	slog.Default().Info(LogMsgMigrationsApplied, "version", version)
	return nil
}

// MigrationStatus logs the applied state of every embedded migration
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := useEmbeddedMigrations(); err != nil {
		return err
	}
	defer goose.SetBaseFS(nil)

	return goose.StatusContext(ctx, db, ".")
}

func useEmbeddedMigrations() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(MigrationsDialect); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToSetDialect, err)
	}
	return nil
}
