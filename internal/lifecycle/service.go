// Package lifecycle ranks finished games, pays prizes on-chain and tells players the results.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/TriviaCast_Go/internal/chain"
	"github.com/osse101/TriviaCast_Go/internal/domain"
	"github.com/osse101/TriviaCast_Go/internal/event"
	"github.com/osse101/TriviaCast_Go/internal/logger"
	"github.com/osse101/TriviaCast_Go/internal/metrics"
	"github.com/osse101/TriviaCast_Go/internal/repository"
)

// Service defines the game lifecycle operations
type Service interface {
	GetStatus(ctx context.Context, gameID uuid.UUID) (domain.LifecycleStatus, error)
	RankGame(ctx context.Context, gameID uuid.UUID) (*domain.RankResult, error)
	PublishResults(ctx context.Context, gameID uuid.UUID) (*domain.PublishResult, error)
	PreviewRanking(ctx context.Context, gameID uuid.UUID) (*domain.RankResult, error)
	Finalize(ctx context.Context, gameID uuid.UUID) (*domain.FinalizeResult, error)
	Sweep(ctx context.Context, limit int) (*domain.SweepReport, error)
}

// Notifier queues result notifications. Implementations never block on delivery.
type Notifier interface {
	NotifyResults(ctx context.Context, game *domain.Game, recipients []domain.Recipient) int
}

// Config tunes the lifecycle service
type Config struct {
	DefaultPrizeCurve     domain.PrizeCurve
	PublishClaimLease     time.Duration
	FinalizeTimeout       time.Duration // per-game budget during a sweep
	NotifyAllParticipants bool
	StatusCacheSize       int
	StatusCacheTTL        time.Duration
}

func (c *Config) applyDefaults() {
	if c.PublishClaimLease <= 0 {
		c.PublishClaimLease = DefaultPublishClaimLease
	}
	if c.FinalizeTimeout <= 0 {
		c.FinalizeTimeout = DefaultFinalizeTimeout
	}
	if c.StatusCacheSize <= 0 {
		c.StatusCacheSize = DefaultStatusCacheSize
	}
	if c.StatusCacheTTL <= 0 {
		c.StatusCacheTTL = DefaultStatusCacheTTL
	}
}

type service struct {
	repo        repository.Game
	distributor chain.Distributor
	notifier    Notifier
	bus         event.Bus
	clock       Clock
	cfg         Config
	cache       *statusCache
}

// NewService creates a new lifecycle service. The default prize curve is
// validated up front so a bad deployment fails at startup.
func NewService(
	repo repository.Game,
	distributor chain.Distributor,
	notifier Notifier,
	bus event.Bus,
	clock Clock,
	cfg Config,
) (Service, error) {
	if err := ValidatePrizeCurve(cfg.DefaultPrizeCurve); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if clock == nil {
		clock = NewRealClock()
	}

	return &service{
		repo:        repo,
		distributor: distributor,
		notifier:    notifier,
		bus:         bus,
		clock:       clock,
		cfg:         cfg,
		cache:       newStatusCache(cfg.StatusCacheSize, cfg.StatusCacheTTL),
	}, nil
}

// GetStatus reports the lifecycle phase of a game without side effects
func (s *service) GetStatus(ctx context.Context, gameID uuid.UUID) (status domain.LifecycleStatus, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(OpGetStatus, start, err) }()

	if cached, ok := s.cache.Get(gameID); ok {
		return cached, nil
	}

	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return "", err
	}

	status = s.statusOf(game)
	s.cache.Set(gameID, status)
	return status, nil
}

func (s *service) statusOf(game *domain.Game) domain.LifecycleStatus {
	switch {
	case game.IsPublished():
		return domain.StatusPublished
	case game.IsRanked():
		return domain.StatusRanked
	}

	now := s.clock.Now()
	switch {
	case now.Before(game.StartsAt):
		return domain.StatusNotStarted
	case now.Before(game.EndsAt):
		return domain.StatusLive
	default:
		return domain.StatusEndedUnranked
	}
}

// RankGame computes and persists the final ranking once. Later calls, and
// callers that lose a concurrent race, receive the stored result.
func (s *service) RankGame(ctx context.Context, gameID uuid.UUID) (result *domain.RankResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(OpRankGame, start, err) }()

	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return s.rank(ctx, game)
}

func (s *service) rank(ctx context.Context, game *domain.Game) (*domain.RankResult, error) {
	if game.IsRanked() {
		entries, err := s.loadEntries(ctx, game.ID)
		if err != nil {
			return nil, err
		}
		return storedResult(game, entries), nil
	}

	now := s.clock.Now()
	if now.Before(game.EndsAt) {
		return nil, domain.ErrGameNotEnded
	}

	log := logger.FromContext(ctx)
	var err error
	for attempt := 1; attempt <= MaxRankAttempts; attempt++ {
		var result *domain.RankResult
		result, err = s.rankOnce(ctx, game, now)
		if !errors.Is(err, domain.ErrEntriesChanged) {
			return result, err
		}
		log.Warn(LogMsgEntriesChanged, "game_id", game.ID, "attempt", attempt)
	}
	return nil, err
}

// rankOnce ranks the entries visible now and commits only if no entry was
// added before the game row was locked
func (s *service) rankOnce(ctx context.Context, game *domain.Game, now time.Time) (*domain.RankResult, error) {
	log := logger.FromContext(ctx)

	entries, err := s.loadEntries(ctx, game.ID)
	if err != nil {
		return nil, err
	}

	log.Info(LogMsgRankingStarted, "game_id", game.ID, "entries", len(entries))

	result, err := ComputeRanking(game, entries, s.cfg.DefaultPrizeCurve)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginGameTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrPersistence, ErrMsgBeginTxFailed, err)
	}
	defer repository.SafeRollback(ctx, tx)

	rows, err := tx.MarkGameRanked(ctx, game.ID, now, result)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrPersistence, ErrMsgMarkRankedFailed, err)
	}
	if rows == 0 {
		// Another caller committed first. Read what it wrote.
		repository.SafeRollback(ctx, tx)
		log.Info(LogMsgRankingLostRace, "game_id", game.ID)
		return s.loadStoredResult(ctx, game.ID)
	}

	// The ranked game row now blocks new entries. Count what got in before it.
	count, err := tx.CountGameEntries(ctx, game.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrPersistence, ErrMsgCountEntriesFailed, err)
	}
	if count != int64(len(result.Rankings)) {
		return nil, fmt.Errorf("%w: loaded %d, found %d", domain.ErrEntriesChanged, len(result.Rankings), count)
	}

	if err := tx.SetEntryRankings(ctx, game.ID, result.Rankings); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrPersistence, ErrMsgSetRankingsFailed, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrPersistence, ErrMsgCommitFailed, err)
	}

	log.Info(LogMsgRankingCommitted,
		"game_id", game.ID,
		"entries", result.EntriesRanked,
		"winners", result.PrizesDistributed,
		"distributed", result.TotalDistributed)
	s.publishEvent(ctx, event.NewGameRankedEvent(result))

	return result, nil
}

func (s *service) loadStoredResult(ctx context.Context, gameID uuid.UUID) (*domain.RankResult, error) {
	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	entries, err := s.loadEntries(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return storedResult(game, entries), nil
}

// PreviewRanking computes the ranking without persisting it
func (s *service) PreviewRanking(ctx context.Context, gameID uuid.UUID) (result *domain.RankResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(OpPreviewRanking, start, err) }()

	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	entries, err := s.loadEntries(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if game.IsRanked() {
		return storedResult(game, entries), nil
	}
	return ComputeRanking(game, entries, s.cfg.DefaultPrizeCurve)
}

// PublishResults pays the ranked winners on-chain at most once and then
// queues notifications
func (s *service) PublishResults(ctx context.Context, gameID uuid.UUID) (result *domain.PublishResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(OpPublishResults, start, err) }()

	log := logger.FromContext(ctx)

	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !game.IsRanked() {
		return nil, domain.ErrGameNotRanked
	}
	if !game.IsOnchain() {
		return nil, domain.ErrGameNotOnchain
	}
	if game.IsPublished() {
		return &domain.PublishResult{
			GameID:           game.ID,
			TxHash:           derefString(game.PublishTxHash),
			AlreadyPublished: true,
		}, nil
	}

	entries, err := s.loadEntries(ctx, gameID)
	if err != nil {
		return nil, err
	}
	ranking := storedResult(game, entries)
	winners := ranking.Winners()

	// A recorded transaction is never signed again. Send it once more in case
	// the first broadcast was lost, then confirm it.
	if game.PublishTxHash != nil {
		log.Info(LogMsgPublishResuming, "game_id", game.ID, "tx_hash", *game.PublishTxHash)
		if game.PublishRawTx != nil {
			if err := s.distributor.Rebroadcast(ctx, *game.PublishRawTx); err != nil {
				log.Warn(LogMsgRebroadcastFailed, "game_id", game.ID, "tx_hash", *game.PublishTxHash, "error", err)
			}
		}
		return s.confirm(ctx, game, ranking, *game.PublishTxHash, nil)
	}

	now := s.clock.Now()
	claimed, err := s.repo.ClaimPublication(ctx, game.ID, now, now.Add(-s.cfg.PublishClaimLease))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrPersistence, ErrMsgClaimFailed, err)
	}
	if claimed == 0 {
		return nil, domain.ErrPublishInProgress
	}

	log.Info(LogMsgPublishStarted, "game_id", game.ID, "onchain_id", *game.OnchainID, "winners", len(winners))

	if len(winners) == 0 {
		log.Info(LogMsgPublishNoWinners, "game_id", game.ID)
		return s.markPublished(ctx, game, ranking, "", nil)
	}

	users, err := s.loadUsers(ctx, ranking.Rankings)
	if err != nil {
		s.releaseClaim(ctx, game.ID)
		return nil, err
	}

	payouts, err := buildPayouts(winners, users)
	if err != nil {
		s.releaseClaim(ctx, game.ID)
		return nil, err
	}

	txHash, err := s.distributor.SubmitDistribution(ctx, *game.OnchainID, payouts, s.recordTx(game.ID))
	switch {
	case err == nil:
	case txHash != "":
		// Recorded but the broadcast failed. The next call sends the recorded bytes again.
		s.publishFailed(ctx, game, err)
		return nil, err
	case errors.Is(err, domain.ErrPublishInProgress):
		return nil, err
	default:
		// Nothing was recorded, so nothing was sent.
		s.releaseClaim(ctx, game.ID)
		s.publishFailed(ctx, game, err)
		return nil, err
	}
	log.Info(LogMsgPublishSubmitted, "game_id", game.ID, "tx_hash", txHash)

	return s.confirm(ctx, game, ranking, txHash, users)
}

// recordTx stores the signed distribution. The distributor broadcasts only after it returns nil.
func (s *service) recordTx(gameID uuid.UUID) chain.RecordFunc {
	return func(ctx context.Context, tx chain.SignedTx) error {
		recorded, err := s.repo.RecordPublishTx(ctx, gameID, tx.Hash, tx.Raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, ErrMsgRecordTxFailed, err)
		}
		if recorded == 0 {
			logger.FromContext(ctx).Warn(LogMsgRecordTxLost, "game_id", gameID, "tx_hash", tx.Hash)
			return fmt.Errorf("%w: %s", domain.ErrPublishInProgress, ErrMsgPublishRecorded)
		}
		return nil
	}
}

// confirm waits for the distribution to land, then marks the game published.
// users may be nil, in which case recipients are loaded for notification.
func (s *service) confirm(
	ctx context.Context,
	game *domain.Game,
	ranking *domain.RankResult,
	txHash string,
	users map[int64]domain.User,
) (*domain.PublishResult, error) {
	receipt, err := s.distributor.WaitConfirmation(ctx, txHash)
	if err != nil {
		if errors.Is(err, domain.ErrTxReverted) {
			s.clearReverted(ctx, game.ID, txHash)
		}
		s.publishFailed(ctx, game, err)
		return nil, err
	}
	logger.FromContext(ctx).Info(LogMsgPublishConfirmed,
		"game_id", game.ID,
		"tx_hash", receipt.TxHash,
		"block", receipt.BlockNumber)

	return s.markPublished(ctx, game, ranking, txHash, users)
}

func (s *service) markPublished(
	ctx context.Context,
	game *domain.Game,
	ranking *domain.RankResult,
	txHash string,
	users map[int64]domain.User,
) (*domain.PublishResult, error) {
	rows, err := s.repo.MarkGamePublished(ctx, game.ID, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrPersistence, ErrMsgMarkPublishFailed, err)
	}
	s.cache.Set(game.ID, domain.StatusPublished)

	result := &domain.PublishResult{GameID: game.ID, TxHash: txHash}
	if rows == 0 {
		result.AlreadyPublished = true
		return result, nil
	}

	s.publishEvent(ctx, event.NewGameResultsPublishedEvent(game.ID, *game.OnchainID, txHash, ranking.PrizesDistributed))
	result.Notified = s.notify(ctx, game, ranking, users)
	return result, nil
}

// notify queues result notifications. Failures are logged and never reach the caller.
func (s *service) notify(ctx context.Context, game *domain.Game, ranking *domain.RankResult, users map[int64]domain.User) int {
	if s.notifier == nil {
		return 0
	}

	if users == nil {
		var err error
		users, err = s.loadUsers(ctx, ranking.Rankings)
		if err != nil {
			logger.FromContext(ctx).Warn(LogMsgNotifyLookupFailed, "game_id", game.ID, "error", err)
			return 0
		}
	}

	var recipients []domain.Recipient
	for _, e := range ranking.Rankings {
		user, ok := users[e.UserFID]
		if !ok {
			continue
		}
		switch {
		case e.Prize > 0:
			recipients = append(recipients, domain.Recipient{User: user, Kind: domain.RecipientWinner, Rank: e.Rank, Prize: e.Prize})
		case s.cfg.NotifyAllParticipants:
			recipients = append(recipients, domain.Recipient{User: user, Kind: domain.RecipientParticipant, Rank: e.Rank})
		}
	}
	if len(recipients) == 0 {
		return 0
	}

	return s.notifier.NotifyResults(ctx, game, recipients)
}

// Finalize ranks the game and, for on-chain games with winners, publishes it.
// A publication failure is reported in the result, not as an error.
func (s *service) Finalize(ctx context.Context, gameID uuid.UUID) (result *domain.FinalizeResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(OpFinalize, start, err) }()

	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	ranking, err := s.rank(ctx, game)
	if err != nil {
		return nil, err
	}

	result = &domain.FinalizeResult{GameID: gameID, Rank: ranking}
	if !game.IsOnchain() || ranking.PrizesDistributed == 0 {
		return result, nil
	}

	published, pubErr := s.PublishResults(ctx, gameID)
	if pubErr != nil {
		logger.FromContext(ctx).Warn(LogMsgFinalizePublishError, "game_id", gameID, "error", pubErr)
		result.PublishError = pubErr.Error()
		return result, nil
	}
	result.Publish = published
	return result, nil
}

// Sweep finalizes games that are past their end and still need ranking or
// publication. Each game gets its own time budget and failures do not stop
// the sweep.
func (s *service) Sweep(ctx context.Context, limit int) (report *domain.SweepReport, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(OpSweep, start, err) }()

	log := logger.FromContext(ctx)

	games, err := s.repo.ListDueGames(ctx, s.clock.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrPersistence, ErrMsgListDueFailed, err)
	}

	report = &domain.SweepReport{}
	for i := range games {
		if ctx.Err() != nil {
			log.Warn(LogMsgSweepInterrupted, "visited", report.Processed, "due", len(games))
			break
		}

		gameID := games[i].ID
		report.Processed++

		res, ferr := s.finalizeWithBudget(ctx, gameID)
		switch {
		case ferr != nil:
			report.Failures = append(report.Failures, domain.SweepFailure{GameID: gameID, Error: ferr.Error()})
			metrics.SweepGames.WithLabelValues(metrics.OutcomeError).Inc()
			log.Warn(LogMsgSweepGameFailed, "game_id", gameID, "error", ferr)
			continue
		case res.PublishError != "":
			report.Ranked++
			report.Failures = append(report.Failures, domain.SweepFailure{GameID: gameID, Error: res.PublishError})
			metrics.SweepGames.WithLabelValues(metrics.OutcomeError).Inc()
			continue
		}

		report.Ranked++
		if res.Publish != nil {
			report.Published++
		}
		metrics.SweepGames.WithLabelValues(metrics.OutcomeSuccess).Inc()
	}

	log.Info(LogMsgSweepCompleted,
		"processed", report.Processed,
		"ranked", report.Ranked,
		"published", report.Published,
		"failures", len(report.Failures))
	return report, nil
}

func (s *service) finalizeWithBudget(ctx context.Context, gameID uuid.UUID) (*domain.FinalizeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FinalizeTimeout)
	defer cancel()
	return s.Finalize(ctx, gameID)
}

func (s *service) loadGame(ctx context.Context, gameID uuid.UUID) (*domain.Game, error) {
	game, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrPersistence, ErrMsgLoadGameFailed, err)
	}
	if game == nil {
		return nil, domain.ErrGameNotFound
	}
	return game, nil
}

func (s *service) loadEntries(ctx context.Context, gameID uuid.UUID) ([]domain.GameEntry, error) {
	entries, err := s.repo.ListGameEntries(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrPersistence, ErrMsgLoadEntriesFailed, err)
	}
	return entries, nil
}

func (s *service) loadUsers(ctx context.Context, rankings []domain.RankedEntry) (map[int64]domain.User, error) {
	fids := make([]int64, 0, len(rankings))
	for _, e := range rankings {
		fids = append(fids, e.UserFID)
	}
	users, err := s.repo.GetUsersByFIDs(ctx, fids)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrPersistence, ErrMsgLoadUsersFailed, err)
	}
	return users, nil
}

func buildPayouts(winners []domain.RankedEntry, users map[int64]domain.User) ([]domain.Payout, error) {
	payouts := make([]domain.Payout, 0, len(winners))
	for _, w := range winners {
		user, ok := users[w.UserFID]
		if !ok || user.WalletAddress == nil || *user.WalletAddress == "" {
			return nil, fmt.Errorf("%w: fid %d", domain.ErrWinnerWalletMissing, w.UserFID)
		}
		payouts = append(payouts, domain.Payout{Wallet: *user.WalletAddress, Amount: w.Prize})
	}
	return payouts, nil
}

func (s *service) releaseClaim(ctx context.Context, gameID uuid.UUID) {
	if err := s.repo.ReleasePublishClaim(ctx, gameID); err != nil {
		logger.FromContext(ctx).Warn(LogMsgReleaseClaimFailed, "game_id", gameID, "error", err)
	}
}

// clearReverted forgets a reverted transaction so the next call signs a new one.
// A timeout never lands here: a pending transaction may still be mined.
func (s *service) clearReverted(ctx context.Context, gameID uuid.UUID, txHash string) {
	log := logger.FromContext(ctx)
	rows, err := s.repo.ClearRevertedPublishTx(ctx, gameID, txHash)
	if err != nil {
		log.Error(LogMsgClearRevertedFailed, "game_id", gameID, "tx_hash", txHash, "error", err)
		return
	}
	if rows > 0 {
		log.Warn(LogMsgRevertedTxCleared, "game_id", gameID, "tx_hash", txHash)
	}
}

func (s *service) publishFailed(ctx context.Context, game *domain.Game, cause error) {
	logger.FromContext(ctx).Error(LogMsgPublishFailed, "game_id", game.ID, "error", cause)
	s.publishEvent(ctx, event.NewGamePublishFailedEvent(game.ID, *game.OnchainID, cause))
}

func (s *service) publishEvent(ctx context.Context, evt event.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn(LogMsgEventPublishFailed, "type", evt.Type, "error", err)
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
