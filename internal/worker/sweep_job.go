package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/osse101/TriviaCast_Go/internal/domain"
	"github.com/osse101/TriviaCast_Go/internal/logger"
)

// Sweeper is the part of the lifecycle service the sweep job drives
type Sweeper interface {
	Sweep(ctx context.Context, limit int) (*domain.SweepReport, error)
}

// SweepJob finalizes due games on a schedule. Overlapping ticks are skipped.
type SweepJob struct {
	sweeper Sweeper
	limit   int
	timeout time.Duration
	running atomic.Bool
}

// NewSweepJob creates a sweep job. timeout bounds a whole sweep, not a single game.
func NewSweepJob(sweeper Sweeper, limit int, timeout time.Duration) *SweepJob {
	return &SweepJob{
		sweeper: sweeper,
		limit:   limit,
		timeout: timeout,
	}
}

// Name implements Job
func (j *SweepJob) Name() string {
	return JobNameSweep
}

// Process implements Job
func (j *SweepJob) Process(ctx context.Context) error {
	if !j.running.CompareAndSwap(false, true) {
		logger.FromContext(ctx).Info(LogMsgSweepSkipped)
		return nil
	}
	defer j.running.Store(false)

	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	ctx = logger.WithRequestID(ctx, logger.GenerateRequestID())
	log := logger.FromContext(ctx)
	log.Info(LogMsgSweepStarting, "limit", j.limit)

	report, err := j.sweeper.Sweep(ctx, j.limit)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	log.Info(LogMsgSweepCompleted,
		"processed", report.Processed,
		"ranked", report.Ranked,
		"published", report.Published,
		"failures", len(report.Failures))
	return nil
}
