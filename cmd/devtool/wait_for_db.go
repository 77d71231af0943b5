package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
)

const (
	waitMaxRetries    = 30
	waitRetryInterval = 2 * time.Second
)

type WaitForDBCommand struct{}

func (c *WaitForDBCommand) Name() string {
	return "wait-for-db"
}

func (c *WaitForDBCommand) Description() string {
	return "Wait for database to be ready (with retries)"
}

func (c *WaitForDBCommand) Run(args []string) error {
	PrintHeader("Waiting for database...")

	e, err := loadEnv()
	if err != nil {
		return err
	}

	attempt := 0
	ping := func() error {
		attempt++
		ctx, cancel := context.WithTimeout(context.Background(), waitRetryInterval)
		defer cancel()

		conn, err := pgx.Connect(ctx, e.dbURL())
		if err == nil {
			defer conn.Close(ctx)
			err = conn.Ping(ctx)
		}
		if err != nil {
			fmt.Printf("Database not ready (%d/%d): %v\n", attempt, waitMaxRetries, err)
		}
		return err
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(waitRetryInterval), waitMaxRetries-1)
	if err := backoff.Retry(ping, policy); err != nil {
		return fmt.Errorf("database failed to become ready after %d attempts: %w", attempt, err)
	}

	PrintSuccess("Database is ready")
	return nil
}
