package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/TriviaCast_Go/internal/domain"
)

// Game defines the data access required by the lifecycle service.
// GetGame returns (nil, nil) when the game does not exist.
type Game interface {
	GetGame(ctx context.Context, id uuid.UUID) (*domain.Game, error)
	ListGameEntries(ctx context.Context, gameID uuid.UUID) ([]domain.GameEntry, error)
	ListDueGames(ctx context.Context, now time.Time, limit int) ([]domain.Game, error)
	GetUsersByFIDs(ctx context.Context, fids []int64) (map[int64]domain.User, error)

	// Publication markers. The int64 results are rows affected: 0 means the
	// conditional update lost to another caller.
	ClaimPublication(ctx context.Context, gameID uuid.UUID, claimedAt, staleBefore time.Time) (int64, error)
	ReleasePublishClaim(ctx context.Context, gameID uuid.UUID) error
	// RecordPublishTx stores a signed transaction before it is broadcast
	RecordPublishTx(ctx context.Context, gameID uuid.UUID, txHash, rawTx string) (int64, error)
	// ClearRevertedPublishTx drops the recorded transaction and the claim, only
	// while txHash is still the recorded one and the game is unpublished
	ClearRevertedPublishTx(ctx context.Context, gameID uuid.UUID, txHash string) (int64, error)
	MarkGamePublished(ctx context.Context, gameID uuid.UUID, publishedAt time.Time) (int64, error)

	BeginGameTx(ctx context.Context) (GameTx, error)
}

// GameTx groups the ranking writes so they commit or roll back together
type GameTx interface {
	Tx

	// MarkGameRanked sets ranked_at and the aggregates only while ranked_at is NULL
	MarkGameRanked(ctx context.Context, gameID uuid.UUID, rankedAt time.Time, result *domain.RankResult) (int64, error)
	SetEntryRankings(ctx context.Context, gameID uuid.UUID, rankings []domain.RankedEntry) error
	CountGameEntries(ctx context.Context, gameID uuid.UUID) (int64, error)
}
