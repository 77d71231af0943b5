package bootstrap

import (
	"context"
	"log/slog"

	"github.com/osse101/TriviaCast_Go/internal/event"
	"github.com/osse101/TriviaCast_Go/internal/scheduler"
	"github.com/osse101/TriviaCast_Go/internal/server"
	"github.com/osse101/TriviaCast_Go/internal/worker"
)

// ShutdownComponents holds all components that need graceful shutdown.
type ShutdownComponents struct {
	Server             *server.Server
	Scheduler          *scheduler.Scheduler
	WorkerPool         *worker.Pool
	ResilientPublisher *event.ResilientPublisher
}

// GracefulShutdown performs graceful shutdown of all application components.
// It shuts down in order:
// 1. HTTP server (stop accepting new requests, finish in-flight finalizations)
// 2. Scheduler (no new sweeps)
// 3. Worker pool (drain queued notifications and sweeps)
// 4. Event publisher (flush pending events)
//
// Errors during shutdown are logged but do not stop the shutdown sequence.
func GracefulShutdown(ctx context.Context, components ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)

	if err := components.Server.Stop(ctx); err != nil {
		slog.Error(LogMsgServerForcedShutdown, "error", err)
	}

	if components.Scheduler != nil {
		components.Scheduler.Stop()
	}

	if components.WorkerPool != nil {
		if err := components.WorkerPool.Stop(ctx); err != nil {
			slog.Error(LogMsgWorkerPoolShutdownFailed, "error", err)
		}
	}

	slog.Info(LogMsgShuttingDownEventPublisher)
	if err := components.ResilientPublisher.Shutdown(ctx); err != nil {
		slog.Error(LogMsgResilientPublisherFailed, "error", err)
	}

	slog.Info(LogMsgServerStopped)
}
