// Package notification delivers Farcaster mini-app notifications about game results.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/osse101/TriviaCast_Go/internal/domain"
	"github.com/osse101/TriviaCast_Go/internal/logger"
	"github.com/osse101/TriviaCast_Go/internal/metrics"
	"github.com/osse101/TriviaCast_Go/internal/worker"
)

// Config controls message content and delivery
type Config struct {
	AppURL         string
	TokenSymbol    string
	TokenDecimals  int
	RequestTimeout time.Duration
	MaxElapsed     time.Duration
}

// Enqueuer is the part of worker.Pool the dispatcher needs
type Enqueuer interface {
	TryEnqueue(job worker.Job) bool
}

// Request is the body POSTed to a client's notification URL
type Request struct {
	NotificationID string   `json:"notificationId"`
	Title          string   `json:"title"`
	Body           string   `json:"body"`
	TargetURL      string   `json:"targetUrl"`
	Tokens         []string `json:"tokens"`
}

// Response is the client's per-token verdict
type Response struct {
	Result struct {
		SuccessfulTokens  []string `json:"successfulTokens"`
		InvalidTokens     []string `json:"invalidTokens"`
		RateLimitedTokens []string `json:"rateLimitedTokens"`
	} `json:"result"`
}

// Dispatcher batches recipients per notification URL and delivers them on the worker pool.
// It never reports delivery errors to callers.
type Dispatcher struct {
	cfg    Config
	pool   Enqueuer
	client *http.Client
}

// NewDispatcher creates a dispatcher. A nil client gets one with cfg.RequestTimeout.
func NewDispatcher(cfg Config, pool Enqueuer, client *http.Client) *Dispatcher {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = DefaultMaxElapsed
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &Dispatcher{cfg: cfg, pool: pool, client: client}
}

type batchKey struct {
	url   string
	kind  domain.RecipientKind
	title string
	body  string
}

// NotifyResults queues notifications for recipients that enabled them and
// returns how many recipients were queued
func (d *Dispatcher) NotifyResults(ctx context.Context, game *domain.Game, recipients []domain.Recipient) int {
	batches := make(map[batchKey][]string)
	var order []batchKey

	for _, r := range recipients {
		if !r.User.CanBeNotified() {
			continue
		}
		title, body := d.messageFor(game, r)
		key := batchKey{url: *r.User.NotificationURL, kind: r.Kind, title: title, body: body}
		if _, ok := batches[key]; !ok {
			order = append(order, key)
		}
		batches[key] = append(batches[key], *r.User.NotificationToken)
	}

	queued := 0
	for _, key := range order {
		tokens := batches[key]
		for start := 0; start < len(tokens); start += MaxTokensPerRequest {
			end := min(start+MaxTokensPerRequest, len(tokens))
			job := &deliveryJob{
				d:    d,
				url:  key.url,
				kind: key.kind,
				req: Request{
					NotificationID: NotificationID(game.ID, key.kind),
					Title:          key.title,
					Body:           key.body,
					TargetURL:      d.targetURL(game),
					Tokens:         tokens[start:end],
				},
				requestID: logger.GetRequestID(ctx),
			}
			if !d.pool.TryEnqueue(job) {
				logger.FromContext(ctx).Warn(LogMsgNotificationQueueFull, "game_id", game.ID, "tokens", end-start)
				metrics.NotificationsSent.WithLabelValues(string(key.kind), metrics.OutcomeError).Add(float64(end - start))
				continue
			}
			queued += end - start
		}
	}

	if queued > 0 {
		logger.FromContext(ctx).Info(LogMsgNotificationsQueued, "game_id", game.ID, "recipients", queued)
	}
	return queued
}

func (d *Dispatcher) targetURL(game *domain.Game) string {
	return fmt.Sprintf("%s/games/%s/results", strings.TrimRight(d.cfg.AppURL, "/"), game.ID)
}

// deliveryJob sends one batch, retrying transient failures with exponential backoff
type deliveryJob struct {
	d         *Dispatcher
	url       string
	kind      domain.RecipientKind
	req       Request
	requestID string
}

func (j *deliveryJob) Name() string {
	return JobNameDeliver
}

func (j *deliveryJob) Process(ctx context.Context) error {
	if j.requestID != "" {
		ctx = logger.WithRequestID(ctx, j.requestID)
	}
	log := logger.FromContext(ctx)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = DefaultInitialBackoff
	policy.MaxElapsedTime = j.d.cfg.MaxElapsed

	total := len(j.req.Tokens)
	err := backoff.Retry(func() error {
		return j.send(ctx)
	}, backoff.WithContext(policy, ctx))

	label := string(j.kind)
	if err != nil {
		failed := len(j.req.Tokens)
		metrics.NotificationsSent.WithLabelValues(label, metrics.OutcomeSuccess).Add(float64(total - failed))
		metrics.NotificationsSent.WithLabelValues(label, metrics.OutcomeError).Add(float64(failed))
		log.Warn(LogMsgNotificationFailed, "notification_id", j.req.NotificationID, "tokens", failed, "error", err)
		return fmt.Errorf("notification delivery failed: %w", err)
	}

	metrics.NotificationsSent.WithLabelValues(label, metrics.OutcomeSuccess).Add(float64(total))
	log.Debug(LogMsgNotificationSent, "notification_id", j.req.NotificationID, "tokens", total)
	return nil
}

var errRateLimited = errors.New("tokens rate limited")

// send posts the batch once. Rate-limited tokens stay in j.req.Tokens for the next attempt.
func (j *deliveryJob) send(ctx context.Context) error {
	payload, err := json.Marshal(j.req)
	if err != nil {
		return backoff.Permanent(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, j.url, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := j.d.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("notification endpoint returned %d", resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return backoff.Permanent(fmt.Errorf("notification endpoint returned %d: %s", resp.StatusCode, body))
	}

	var parsed Response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		// delivered; an unreadable verdict is not worth a resend
		return nil
	}

	if n := len(parsed.Result.InvalidTokens); n > 0 {
		logger.FromContext(ctx).Info(LogMsgTokensInvalid, "notification_id", j.req.NotificationID, "count", n)
	}
	if limited := parsed.Result.RateLimitedTokens; len(limited) > 0 {
		j.req.Tokens = limited
		return errRateLimited
	}
	j.req.Tokens = nil
	return nil
}
