package event

import (
	"context"
	"sync"
	"time"

	"github.com/osse101/TriviaCast_Go/internal/logger"
)

type retryEntry struct {
	event     Event
	attempts  int
	nextRetry time.Time
	lastErr   error
}

// ResilientPublisher wraps a Bus so that publish failures are retried in the
// background with exponential backoff and finally written to a dead-letter file.
type ResilientPublisher struct {
	bus        Bus
	retryQueue chan retryEntry
	deadLetter *DeadLetterWriter
	maxRetries int
	retryDelay time.Duration
	shutdown   chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// NewResilientPublisher starts the retry worker
func NewResilientPublisher(bus Bus, maxRetries int, retryDelay time.Duration, deadLetterPath string) (*ResilientPublisher, error) {
	dl, err := NewDeadLetterWriter(deadLetterPath)
	if err != nil {
		return nil, err
	}

	if maxRetries <= 0 {
		maxRetries = RetryMaxAttempts
	}
	if retryDelay <= 0 {
		retryDelay = RetryInitialDelay
	}

	rp := &ResilientPublisher{
		bus:        bus,
		retryQueue: make(chan retryEntry, RetryQueueBufferSize),
		deadLetter: dl,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		shutdown:   make(chan struct{}),
	}

	rp.wg.Add(1)
	go rp.retryWorker()

	return rp, nil
}

// Publish implements Bus. The first attempt is synchronous; failures are queued
// for retry and never returned to the caller.
func (rp *ResilientPublisher) Publish(ctx context.Context, event Event) error {
	rp.PublishWithRetry(ctx, event)
	return nil
}

// Subscribe delegates to the wrapped bus
func (rp *ResilientPublisher) Subscribe(eventType Type, handler Handler) {
	rp.bus.Subscribe(eventType, handler)
}

// PublishWithRetry publishes once and queues the event for retry on failure
func (rp *ResilientPublisher) PublishWithRetry(ctx context.Context, event Event) {
	err := rp.bus.Publish(ctx, event)
	if err == nil {
		return
	}

	logger.FromContext(ctx).Warn(LogMsgEventPublishFailed,
		"event_type", event.Type,
		"error", err)

	entry := retryEntry{
		event:     event,
		attempts:  1,
		nextRetry: time.Now().Add(CalculateRetryDelay(rp.retryDelay, 1)),
		lastErr:   err,
	}

	select {
	case rp.retryQueue <- entry:
	default:
		logger.FromContext(ctx).Error(LogMsgRetryQueueFull, "event_type", event.Type)
		rp.writeDeadLetter(entry)
	}
}

func (rp *ResilientPublisher) retryWorker() {
	defer rp.wg.Done()

	for {
		select {
		case <-rp.shutdown:
			rp.drain()
			return
		case entry := <-rp.retryQueue:
			if !rp.waitUntil(entry.nextRetry) {
				rp.retryOnce(entry)
				rp.drain()
				return
			}
			rp.retry(entry)
		}
	}
}

// waitUntil sleeps until t and reports false when shutdown interrupted the wait
func (rp *ResilientPublisher) waitUntil(t time.Time) bool {
	delay := time.Until(t)
	if delay <= 0 {
		return true
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-rp.shutdown:
		return false
	}
}

func (rp *ResilientPublisher) retry(entry retryEntry) {
	ctx := context.Background()
	err := rp.bus.Publish(ctx, entry.event)
	entry.attempts++
	if err == nil {
		logger.Info(LogMsgEventRetrySucceeded, "event_type", entry.event.Type, "attempts", entry.attempts)
		return
	}
	entry.lastErr = err

	if entry.attempts > rp.maxRetries {
		logger.Warn(LogMsgEventRetryExhausted, "event_type", entry.event.Type, "attempts", entry.attempts)
		rp.writeDeadLetter(entry)
		return
	}

	logger.Warn(LogMsgEventRetryFailed,
		"event_type", entry.event.Type,
		"attempt", entry.attempts,
		"error", err)
	entry.nextRetry = time.Now().Add(CalculateRetryDelay(rp.retryDelay, entry.attempts))

	select {
	case rp.retryQueue <- entry:
	default:
		rp.writeDeadLetter(entry)
	}
}

// retryOnce makes a final attempt without further scheduling
func (rp *ResilientPublisher) retryOnce(entry retryEntry) {
	err := rp.bus.Publish(context.Background(), entry.event)
	entry.attempts++
	if err != nil {
		entry.lastErr = err
		rp.writeDeadLetter(entry)
	}
}

func (rp *ResilientPublisher) drain() {
	drained := 0
	for {
		select {
		case entry := <-rp.retryQueue:
			rp.retryOnce(entry)
			drained++
		default:
			if drained > 0 {
				logger.Info(LogMsgQueueDrainedShutdown, "count", drained)
			}
			return
		}
	}
}

func (rp *ResilientPublisher) writeDeadLetter(entry retryEntry) {
	if err := rp.deadLetter.Write(entry.event, entry.attempts, entry.lastErr); err != nil {
		logger.Error(LogMsgDeadLetterWriteFailed, "event_type", entry.event.Type, "error", err)
	}
}

// Shutdown stops the worker after one final attempt per queued event
func (rp *ResilientPublisher) Shutdown(ctx context.Context) error {
	rp.closeOnce.Do(func() { close(rp.shutdown) })

	done := make(chan struct{})
	go func() {
		rp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return rp.deadLetter.Close()
	case <-ctx.Done():
		logger.Warn(LogMsgShutdownTimeout)
		return ctx.Err()
	}
}
