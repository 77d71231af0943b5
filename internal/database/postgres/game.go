package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/TriviaCast_Go/internal/database/generated"
	"github.com/osse101/TriviaCast_Go/internal/domain"
	"github.com/osse101/TriviaCast_Go/internal/repository"
)

// GameRepository implements repository.Game for PostgreSQL
type GameRepository struct {
	db *pgxpool.Pool
	q  *generated.Queries
}

// NewGameRepository creates a new GameRepository
func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{
		db: db,
		q:  generated.New(db),
	}
}

// GetGame retrieves a game by ID. Returns (nil, nil) when it does not exist.
func (r *GameRepository) GetGame(ctx context.Context, id uuid.UUID) (*domain.Game, error) {
	g, err := r.q.GetGame(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetGame, err)
	}
	return mapGame(g)
}

// ListGameEntries returns entries ordered by final rank, unranked entries last
func (r *GameRepository) ListGameEntries(ctx context.Context, gameID uuid.UUID) ([]domain.GameEntry, error) {
	rows, err := r.q.ListGameEntries(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListEntries, err)
	}

	entries := make([]domain.GameEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, mapGameEntry(row))
	}
	return entries, nil
}

// ListDueGames returns ended games that are unranked, or ranked on-chain with winners but unpublished
func (r *GameRepository) ListDueGames(ctx context.Context, now time.Time, limit int) ([]domain.Game, error) {
	rows, err := r.q.ListDueGames(ctx, generated.ListDueGamesParams{
		EndsAt: timestamptz(now),
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListDueGames, err)
	}

	games := make([]domain.Game, 0, len(rows))
	for _, row := range rows {
		g, err := mapGame(row)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	return games, nil
}

// GetUsersByFIDs loads the users keyed by FID. Unknown FIDs are absent from the map.
func (r *GameRepository) GetUsersByFIDs(ctx context.Context, fids []int64) (map[int64]domain.User, error) {
	users := make(map[int64]domain.User, len(fids))
	if len(fids) == 0 {
		return users, nil
	}

	rows, err := r.q.GetUsersByFIDs(ctx, fids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetUsers, err)
	}
	for _, row := range rows {
		users[row.Fid] = mapUser(row)
	}
	return users, nil
}

// ClaimPublication takes the publication lease when it is free or stale.
// Returns the number of rows affected (0 if another caller holds the claim).
func (r *GameRepository) ClaimPublication(ctx context.Context, gameID uuid.UUID, claimedAt, staleBefore time.Time) (int64, error) {
	result, err := r.q.ClaimPublication(ctx, generated.ClaimPublicationParams{
		ClaimedAt:   timestamptz(claimedAt),
		GameID:      gameID,
		StaleBefore: timestamptz(staleBefore),
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToClaimPublication, err)
	}
	return result.RowsAffected(), nil
}

// ReleasePublishClaim clears a claim that never produced a transaction
func (r *GameRepository) ReleasePublishClaim(ctx context.Context, gameID uuid.UUID) error {
	if err := r.q.ReleasePublishClaim(ctx, gameID); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToReleaseClaim, err)
	}
	return nil
}

// RecordPublishTx stores the signed transaction once
func (r *GameRepository) RecordPublishTx(ctx context.Context, gameID uuid.UUID, txHash, rawTx string) (int64, error) {
	result, err := r.q.RecordPublishTx(ctx, generated.RecordPublishTxParams{
		GameID:        gameID,
		PublishTxHash: ptrToText(&txHash),
		PublishRawTx:  ptrToText(&rawTx),
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToRecordPublishTx, err)
	}
	return result.RowsAffected(), nil
}

// ClearRevertedPublishTx forgets a transaction that was mined and reverted.
// Returns 0 if the recorded hash changed or the game was published.
func (r *GameRepository) ClearRevertedPublishTx(ctx context.Context, gameID uuid.UUID, txHash string) (int64, error) {
	result, err := r.q.ClearRevertedPublishTx(ctx, generated.ClearRevertedPublishTxParams{
		GameID:        gameID,
		PublishTxHash: ptrToText(&txHash),
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToClearPublishTx, err)
	}
	return result.RowsAffected(), nil
}

// MarkGamePublished sets published_at once
func (r *GameRepository) MarkGamePublished(ctx context.Context, gameID uuid.UUID, publishedAt time.Time) (int64, error) {
	result, err := r.q.MarkGamePublished(ctx, generated.MarkGamePublishedParams{
		GameID:      gameID,
		PublishedAt: timestamptz(publishedAt),
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToMarkPublished, err)
	}
	return result.RowsAffected(), nil
}

// BeginGameTx starts a transaction for the ranking writes
func (r *GameRepository) BeginGameTx(ctx context.Context) (repository.GameTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	return &gameTx{
		tx: tx,
		q:  r.q.WithTx(tx),
	}, nil
}

// gameTx implements repository.GameTx
type gameTx struct {
	tx pgx.Tx
	q  *generated.Queries
}

// Commit commits the transaction
func (t *gameTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback rolls back the transaction
func (t *gameTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// MarkGameRanked is the compare-and-swap on ranked_at IS NULL.
// Returns the number of rows affected (0 if the game was already ranked).
func (t *gameTx) MarkGameRanked(ctx context.Context, gameID uuid.UUID, rankedAt time.Time, result *domain.RankResult) (int64, error) {
	tag, err := t.q.MarkGameRanked(ctx, generated.MarkGameRankedParams{
		GameID:           gameID,
		RankedAt:         timestamptz(rankedAt),
		EntryCount:       int32(result.EntriesRanked),
		WinnerCount:      int32(result.PrizesDistributed),
		DistributedTotal: result.TotalDistributed,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToMarkRanked, err)
	}
	return tag.RowsAffected(), nil
}

// SetEntryRankings writes every rank and prize in a single statement
func (t *gameTx) SetEntryRankings(ctx context.Context, gameID uuid.UUID, rankings []domain.RankedEntry) error {
	if len(rankings) == 0 {
		return nil
	}

	params := generated.SetEntryRankingsParams{
		EntryIds: make([]uuid.UUID, len(rankings)),
		Ranks:    make([]int32, len(rankings)),
		Prizes:   make([]int64, len(rankings)),
		GameID:   gameID,
	}
	for i, e := range rankings {
		params.EntryIds[i] = e.EntryID
		params.Ranks[i] = int32(e.Rank)
		params.Prizes[i] = e.Prize
	}

	tag, err := t.q.SetEntryRankings(ctx, params)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToSetRankings, err)
	}
	if tag.RowsAffected() != int64(len(rankings)) {
		return fmt.Errorf("%s: expected %d, got %d", ErrMsgRankingRowCountMismatch, len(rankings), tag.RowsAffected())
	}
	return nil
}

// CountGameEntries counts entries as seen by the ranking transaction
func (t *gameTx) CountGameEntries(ctx context.Context, gameID uuid.UUID) (int64, error) {
	n, err := t.q.CountGameEntries(ctx, gameID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToCountEntries, err)
	}
	return n, nil
}
