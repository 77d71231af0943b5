// @title TriviaCast Lifecycle API
// @version 1.0
// @description Ranks finished trivia games, pays prizes on-chain and notifies players.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @securityDefinitions.apikey QuickAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/osse101/TriviaCast_Go/internal/bootstrap"
	"github.com/osse101/TriviaCast_Go/internal/config"
	"github.com/osse101/TriviaCast_Go/internal/database"
	"github.com/osse101/TriviaCast_Go/internal/database/postgres"
	"github.com/osse101/TriviaCast_Go/internal/domain"
	"github.com/osse101/TriviaCast_Go/internal/lifecycle"
	"github.com/osse101/TriviaCast_Go/internal/notification"
	"github.com/osse101/TriviaCast_Go/internal/scheduler"
	"github.com/osse101/TriviaCast_Go/internal/server"
	"github.com/osse101/TriviaCast_Go/internal/worker"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logFile, err := bootstrap.SetupLogger(cfg)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	warnings, err := config.ValidateEnvWithWarnings()
	if err != nil {
		slog.Warn("Environment validation failed", "error", err)
	}
	for _, w := range warnings {
		slog.Warn(w)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStartup()

	dbPool, err := database.NewPool(startupCtx, cfg.GetDBConnString(), database.PoolConfig{
		MaxConns: cfg.DBMaxConns,
		MaxIdle:  cfg.DBMaxConnIdle,
		MaxLife:  cfg.DBMaxConnLife,
	})
	if err != nil {
		return err
	}
	defer dbPool.Close()

	if err := database.Migrate(startupCtx, dbPool); err != nil {
		return err
	}

	gameRepo := postgres.NewGameRepository(dbPool)

	distributor, closeChain, err := bootstrap.InitializeDistributor(startupCtx, cfg)
	if err != nil {
		return err
	}
	defer closeChain()

	eventBus, resilientPublisher, err := bootstrap.InitializeEventSystem(cfg)
	if err != nil {
		return err
	}
	if err := bootstrap.RegisterEventHandlers(bootstrap.EventHandlerDependencies{
		EventBus: eventBus,
		Config:   cfg,
	}); err != nil {
		return err
	}

	workerPool := worker.NewPool(cfg.NotifyWorkers, cfg.NotifyQueueSize)
	workerPool.Start()

	notifier := notification.NewDispatcher(notification.Config{
		AppURL:        cfg.AppURL,
		TokenSymbol:   cfg.TokenSymbol,
		TokenDecimals: cfg.TokenDecimals,
		MaxElapsed:    cfg.NotifyMaxElapsed,
	}, workerPool, nil)

	lifecycleService, err := lifecycle.NewService(gameRepo, distributor, notifier, resilientPublisher, lifecycle.NewRealClock(), lifecycle.Config{
		DefaultPrizeCurve:     domain.PrizeCurve(cfg.DefaultPrizeCurve),
		PublishClaimLease:     cfg.PublishClaimLease,
		FinalizeTimeout:       cfg.FinalizeTimeout,
		NotifyAllParticipants: cfg.NotifyAllParticipants,
		StatusCacheSize:       cfg.StatusCacheSize,
		StatusCacheTTL:        cfg.StatusCacheTTL,
	})
	if err != nil {
		return err
	}

	var sched *scheduler.Scheduler
	if cfg.SweepInterval > 0 {
		sched = scheduler.New(workerPool)
		sched.Schedule(cfg.SweepInterval, worker.NewSweepJob(lifecycleService, cfg.SweepBatchSize, cfg.SweepInterval))
	}

	var adminVerifier *server.QuickAuthVerifier
	if cfg.AdminAuthEnabled() {
		adminVerifier, err = server.NewQuickAuthVerifier(cfg.AuthIssuer, cfg.AuthAudience, cfg.AuthPublicKey, cfg.AdminFIDs, nil)
		if err != nil {
			return err
		}
	}

	srv := server.NewServer(cfg, dbPool, lifecycleService, adminVerifier)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-stop:
		slog.Info("Shutdown signal received", "signal", sig.String())
	case err, ok := <-serverErr:
		if ok {
			runErr = err
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
		Server:             srv,
		Scheduler:          sched,
		WorkerPool:         workerPool,
		ResilientPublisher: resilientPublisher,
	})

	return runErr
}
