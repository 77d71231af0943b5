package lifecycle

import "time"

// Operation names used for metrics and logs
const (
	OpGetStatus      = "get_status"
	OpRankGame       = "rank_game"
	OpPublishResults = "publish_results"
	OpPreviewRanking = "preview_ranking"
	OpFinalize       = "finalize"
	OpSweep          = "sweep"
)

// Defaults
const (
	DefaultPublishClaimLease = 10 * time.Minute
	DefaultFinalizeTimeout   = 30 * time.Second
	DefaultStatusCacheSize   = 1024
	DefaultStatusCacheTTL    = time.Minute

	// MaxRankAttempts bounds re-ranking when entries arrive mid-ranking
	MaxRankAttempts = 3
)

// Error messages
const (
	ErrMsgLoadGameFailed     = "failed to load game"
	ErrMsgLoadEntriesFailed  = "failed to load game entries"
	ErrMsgLoadUsersFailed    = "failed to load users"
	ErrMsgBeginTxFailed      = "failed to begin ranking transaction"
	ErrMsgMarkRankedFailed   = "failed to mark game ranked"
	ErrMsgSetRankingsFailed  = "failed to write entry rankings"
	ErrMsgCommitFailed       = "failed to commit ranking"
	ErrMsgClaimFailed        = "failed to claim publication"
	ErrMsgRecordTxFailed     = "failed to record publish transaction"
	ErrMsgMarkPublishFailed  = "failed to mark game published"
	ErrMsgListDueFailed      = "failed to list due games"
	ErrMsgNegativePrizePool  = "prize pool is negative"
	ErrMsgNegativeShareFmt   = "share for rank %d is negative"
	ErrMsgCurveOverflowFmt   = "shares sum to %d bps, more than %d"
	ErrMsgPublishRecorded    = "another transaction is already recorded for this game"
	ErrMsgCountEntriesFailed = "failed to count game entries"
)

// Log messages
const (
	LogMsgRankingStarted       = "Ranking game"
	LogMsgRankingCommitted     = "Game ranked"
	LogMsgRankingLostRace      = "Game was ranked concurrently, returning stored result"
	LogMsgPublishStarted       = "Publishing game results"
	LogMsgPublishSubmitted     = "Prize distribution submitted"
	LogMsgPublishConfirmed     = "Game results published"
	LogMsgPublishResuming      = "Confirming previously recorded distribution"
	LogMsgPublishNoWinners     = "Game has no winners, marking published without a transaction"
	LogMsgPublishFailed        = "Prize distribution failed"
	LogMsgReleaseClaimFailed   = "Failed to release publication claim"
	LogMsgRecordTxLost         = "Signed distribution discarded, another transaction is recorded"
	LogMsgRebroadcastFailed    = "Failed to rebroadcast recorded distribution"
	LogMsgRevertedTxCleared    = "Distribution reverted, cleared for a new attempt"
	LogMsgClearRevertedFailed  = "Failed to clear reverted distribution"
	LogMsgEntriesChanged       = "Entries changed while ranking, retrying"
	LogMsgEventPublishFailed   = "Failed to publish lifecycle event"
	LogMsgNotifyLookupFailed   = "Failed to load recipients, skipping notifications"
	LogMsgSweepGameFailed      = "Sweep failed to finalize game"
	LogMsgSweepInterrupted     = "Sweep interrupted before visiting every due game"
	LogMsgSweepCompleted       = "Sweep completed"
	LogMsgFinalizePublishError = "Finalize ranked the game but publication failed"
)
