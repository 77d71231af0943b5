// Package pgtest runs a disposable Postgres container for integration tests.
package pgtest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	image          = "postgres:16-alpine"
	databaseName   = "triviacast_test"
	username       = "testuser"
	password       = "testpass"
	startupTimeout = 30 * time.Second

	// EnvDatabaseURL points the integration tests at an existing database
	// instead of starting a container.
	EnvDatabaseURL = "TEST_DATABASE_URL"
)

// Container is a running database. ConnString is empty when none could be started.
type Container struct {
	ConnString string
	terminate  func(context.Context) error
}

// Start returns TEST_DATABASE_URL when set, otherwise starts a container.
// A missing Docker daemon is not an error: the returned Container has an empty
// ConnString and tests should skip.
func Start(ctx context.Context) (c *Container) {
	if url := os.Getenv(EnvDatabaseURL); url != "" {
		return &Container{ConnString: url}
	}

	// testcontainers panics when no Docker daemon is reachable
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "pgtest: docker unavailable: %v\n", r)
			c = &Container{}
		}
	}()

	pg, err := postgres.Run(ctx, image,
		postgres.WithDatabase(databaseName),
		postgres.WithUsername(username),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(startupTimeout)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pgtest: failed to start postgres: %v\n", err)
		return &Container{}
	}

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "pgtest: failed to get connection string: %v\n", err)
		_ = pg.Terminate(ctx)
		return &Container{}
	}

	return &Container{
		ConnString: connStr,
		terminate:  func(ctx context.Context) error { return pg.Terminate(ctx) },
	}
}

// Available reports whether a database is reachable
func (c *Container) Available() bool {
	return c != nil && c.ConnString != ""
}

// Close terminates the container, if this package started one
func (c *Container) Close(ctx context.Context) {
	if c == nil || c.terminate == nil {
		return
	}
	if err := c.terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pgtest: failed to terminate container: %v\n", err)
	}
}

// Skip skips t in -short mode or when c has no database
func Skip(t testing.TB, c *Container) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if !c.Available() {
		t.Skip("Skipping integration test: database not available")
	}
}
