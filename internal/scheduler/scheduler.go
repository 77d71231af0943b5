package scheduler

import (
	"sync"
	"time"

	"github.com/osse101/TriviaCast_Go/internal/logger"
	"github.com/osse101/TriviaCast_Go/internal/worker"
)

// Enqueuer is the part of worker.Pool the scheduler needs
type Enqueuer interface {
	TryEnqueue(job worker.Job) bool
}

// Scheduler enqueues jobs onto a worker pool at fixed intervals
type Scheduler struct {
	pool     Enqueuer
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a new scheduler
func New(pool Enqueuer) *Scheduler {
	return &Scheduler{
		pool: pool,
		quit: make(chan struct{}),
	}
}

// Schedule enqueues job every interval until Stop. A tick that finds the queue
// full is dropped rather than blocking the ticker. Non-positive intervals are ignored.
func (s *Scheduler) Schedule(interval time.Duration, job worker.Job) {
	if interval <= 0 {
		return
	}

	logger.Info("Job scheduled", "job", job.Name(), "interval", interval.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.pool.TryEnqueue(job)
			case <-s.quit:
				return
			}
		}
	}()
}

// Stop stops all scheduled jobs
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.quit) })
	s.wg.Wait()
}
