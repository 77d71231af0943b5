package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/TriviaCast_Go/internal/database"
)

// devEnv is the subset of the service environment the devtool needs.
// It deliberately skips config.Load so commands work without CRON_SECRET.
type devEnv struct {
	DBURL      string `env:"DB_URL"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBName     string `env:"DB_NAME" envDefault:"triviacast"`

	ServerURL  string        `env:"SERVER_URL" envDefault:"http://localhost:8080"`
	CronSecret string        `env:"CRON_SECRET"`
	Timeout    time.Duration `env:"DEVTOOL_TIMEOUT" envDefault:"60s"`
}

func loadEnv() (devEnv, error) {
	var e devEnv
	if err := env.Parse(&e); err != nil {
		return devEnv{}, fmt.Errorf("parse environment: %w", err)
	}
	return e, nil
}

func (e devEnv) dbURL() string {
	if e.DBURL != "" {
		return e.DBURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		e.DBUser, e.DBPassword, e.DBHost, e.DBPort, e.DBName)
}

func openPool(ctx context.Context, e devEnv) (*pgxpool.Pool, error) {
	PrintInfo("Connecting to database: %s", redactPassword(e.dbURL()))
	return database.NewPool(ctx, e.dbURL(), database.PoolConfig{MaxConns: 4})
}

// redactPassword hides the password in a connection string for logging
func redactPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil || u.User == nil {
		return connStr
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
