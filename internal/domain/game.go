package domain

import (
	"time"

	"github.com/google/uuid"
)

// LifecycleStatus is the externally visible phase of a game
type LifecycleStatus string

const (
	StatusNotStarted    LifecycleStatus = "NOT_STARTED"
	StatusLive          LifecycleStatus = "LIVE"
	StatusEndedUnranked LifecycleStatus = "ENDED_UNRANKED"
	StatusRanked        LifecycleStatus = "RANKED"
	StatusPublished     LifecycleStatus = "PUBLISHED"
)

// BasisPoints is the denominator of prize curve shares
const BasisPoints = 10000

// PrizeCurve maps rank (index 0 = rank 1) to a share of the pool in basis points
type PrizeCurve []int

// Game is a scheduled trivia game
type Game struct {
	ID               uuid.UUID  `json:"id"`
	OnchainID        *string    `json:"onchain_id,omitempty"`
	Theme            string     `json:"theme"`
	StartsAt         time.Time  `json:"starts_at"`
	EndsAt           time.Time  `json:"ends_at"`
	PrizePool        int64      `json:"prize_pool"`
	PrizeCurve       PrizeCurve `json:"prize_curve,omitempty"`
	EntryCount       int        `json:"entry_count"`
	WinnerCount      int        `json:"winner_count"`
	DistributedTotal int64      `json:"distributed_total"`
	RankedAt         *time.Time `json:"ranked_at,omitempty"`
	PublishClaimedAt *time.Time `json:"publish_claimed_at,omitempty"`
	PublishTxHash    *string    `json:"publish_tx_hash,omitempty"`
	PublishRawTx     *string    `json:"-"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// IsOnchain reports whether prizes for this game are paid by the contract
func (g *Game) IsOnchain() bool {
	return g.OnchainID != nil && *g.OnchainID != ""
}

// IsRanked reports whether the ranking step has committed
func (g *Game) IsRanked() bool {
	return g.RankedAt != nil
}

// IsPublished reports whether the prize distribution has been confirmed
func (g *Game) IsPublished() bool {
	return g.PublishedAt != nil
}

// GameEntry links a user to a game
type GameEntry struct {
	ID          uuid.UUID  `json:"id"`
	GameID      uuid.UUID  `json:"game_id"`
	UserFID     int64      `json:"user_fid"`
	Score       int64      `json:"score"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Rank        *int       `json:"rank,omitempty"`
	Prize       int64      `json:"prize"`
	CreatedAt   time.Time  `json:"created_at"`
}

// RankedEntry is one row of a computed ranking
type RankedEntry struct {
	EntryID uuid.UUID `json:"entry_id"`
	UserFID int64     `json:"user_fid"`
	Score   int64     `json:"score"`
	Rank    int       `json:"rank"`
	Prize   int64     `json:"prize"`
}

// RankResult is the outcome of ranking a game
type RankResult struct {
	GameID            uuid.UUID     `json:"game_id"`
	EntriesRanked     int           `json:"entries_ranked"`
	PrizesDistributed int           `json:"prizes_distributed"`
	TotalDistributed  int64         `json:"total_distributed"`
	Rankings          []RankedEntry `json:"rankings"`
}

// Winners returns the ranked entries that receive a prize
func (r *RankResult) Winners() []RankedEntry {
	var winners []RankedEntry
	for _, e := range r.Rankings {
		if e.Prize > 0 {
			winners = append(winners, e)
		}
	}
	return winners
}

// Payout is a single on-chain prize transfer
type Payout struct {
	Wallet string `json:"wallet"`
	Amount int64  `json:"amount"`
}

// PublishResult is the outcome of publishing a game's prizes
type PublishResult struct {
	GameID           uuid.UUID `json:"game_id"`
	TxHash           string    `json:"tx_hash,omitempty"`
	AlreadyPublished bool      `json:"already_published"`
	Notified         int       `json:"notified"`
}

// FinalizeResult combines ranking and, when applicable, publication
type FinalizeResult struct {
	GameID       uuid.UUID      `json:"game_id"`
	Rank         *RankResult    `json:"rank"`
	Publish      *PublishResult `json:"publish,omitempty"`
	PublishError string         `json:"publish_error,omitempty"`
}

// SweepFailure records one game that could not be finalized during a sweep
type SweepFailure struct {
	GameID uuid.UUID `json:"game_id"`
	Error  string    `json:"error"`
}

// SweepReport summarizes a sweep over due games
type SweepReport struct {
	Processed int            `json:"processed"`
	Ranked    int            `json:"ranked"`
	Published int            `json:"published"`
	Failures  []SweepFailure `json:"failures,omitempty"`
}
