package postgres

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/TriviaCast_Go/internal/chain"
	"github.com/osse101/TriviaCast_Go/internal/domain"
	"github.com/osse101/TriviaCast_Go/internal/lifecycle"
	"github.com/osse101/TriviaCast_Go/internal/repository"
)

func strPtr(s string) *string { return &s }

// seedGame creates an ended game with one entry per score. FIDs are random so
// tests sharing the container never collide.
func seedGame(t *testing.T, repo *GameRepository, endsAt time.Time, onchain bool, scores ...int64) (*domain.Game, []domain.GameEntry) {
	t.Helper()
	ctx := context.Background()

	game := &domain.Game{
		Theme:      "integration",
		StartsAt:   endsAt.Add(-time.Hour),
		EndsAt:     endsAt,
		PrizePool:  1000,
		PrizeCurve: domain.PrizeCurve{6000, 4000},
	}
	if onchain {
		game.OnchainID = strPtr(fmt.Sprintf("%d", rand.Int63()))
	}
	require.NoError(t, repo.CreateGame(ctx, game))

	entries := make([]domain.GameEntry, 0, len(scores))
	for i, score := range scores {
		fid := rand.Int63n(1 << 40)
		require.NoError(t, repo.UpsertUser(ctx, &domain.User{
			FID:           fid,
			Username:      fmt.Sprintf("player%d", i),
			WalletAddress: strPtr(fmt.Sprintf("0x%040d", i+1)),
		}))

		completed := endsAt.Add(-time.Duration(len(scores)-i) * time.Minute)
		e := domain.GameEntry{GameID: game.ID, UserFID: fid, Score: score, CompletedAt: &completed}
		require.NoError(t, repo.CreateGameEntry(ctx, &e))
		entries = append(entries, e)
	}
	return game, entries
}

func TestGameRepository_GetGame(t *testing.T) {
	repo := requireDB(t)
	ctx := context.Background()

	missing, err := repo.GetGame(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	game, _ := seedGame(t, repo, time.Now().Add(-time.Minute), true)
	got, err := repo.GetGame(ctx, game.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, game.OnchainID, got.OnchainID)
	assert.Equal(t, domain.PrizeCurve{6000, 4000}, got.PrizeCurve)
	assert.Equal(t, int64(1000), got.PrizePool)
	assert.Nil(t, got.RankedAt)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGameRepository_DuplicateEntry(t *testing.T) {
	repo := requireDB(t)
	ctx := context.Background()

	game, entries := seedGame(t, repo, time.Now(), false, 10)
	dup := domain.GameEntry{GameID: game.ID, UserFID: entries[0].UserFID, Score: 99}
	assert.ErrorIs(t, repo.CreateGameEntry(ctx, &dup), ErrDuplicateEntry)
}

func TestGameRepository_RankingTransaction(t *testing.T) {
	repo := requireDB(t)
	ctx := context.Background()

	game, entries := seedGame(t, repo, time.Now().Add(-time.Minute), false, 30, 50, 10)
	result := &domain.RankResult{
		GameID:            game.ID,
		EntriesRanked:     3,
		PrizesDistributed: 2,
		TotalDistributed:  1000,
		Rankings: []domain.RankedEntry{
			{EntryID: entries[1].ID, Rank: 1, Prize: 600},
			{EntryID: entries[0].ID, Rank: 2, Prize: 400},
			{EntryID: entries[2].ID, Rank: 3, Prize: 0},
		},
	}

	tx, err := repo.BeginGameTx(ctx)
	require.NoError(t, err)
	rows, err := tx.MarkGameRanked(ctx, game.ID, time.Now(), result)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	require.NoError(t, tx.SetEntryRankings(ctx, game.ID, result.Rankings))
	require.NoError(t, tx.Commit(ctx))

	stored, err := repo.GetGame(ctx, game.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RankedAt)
	assert.Equal(t, 3, stored.EntryCount)
	assert.Equal(t, 2, stored.WinnerCount)
	assert.Equal(t, int64(1000), stored.DistributedTotal)

	listed, err := repo.ListGameEntries(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, entries[1].ID, listed[0].ID)
	require.NotNil(t, listed[0].Rank)
	assert.Equal(t, 1, *listed[0].Rank)
	assert.Equal(t, int64(600), listed[0].Prize)

	// The conditional update refuses a second ranking.
	tx2, err := repo.BeginGameTx(ctx)
	require.NoError(t, err)
	defer repository.SafeRollback(ctx, tx2)
	rows, err = tx2.MarkGameRanked(ctx, game.ID, time.Now(), result)
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestGameRepository_SetEntryRankingsRejectsForeignEntries(t *testing.T) {
	repo := requireDB(t)
	ctx := context.Background()

	game, entries := seedGame(t, repo, time.Now().Add(-time.Minute), false, 5)

	tx, err := repo.BeginGameTx(ctx)
	require.NoError(t, err)
	defer repository.SafeRollback(ctx, tx)

	err = tx.SetEntryRankings(ctx, game.ID, []domain.RankedEntry{
		{EntryID: entries[0].ID, Rank: 1},
		{EntryID: uuid.New(), Rank: 2},
	})
	assert.Error(t, err)
}

func TestGameRepository_PublicationMarkers(t *testing.T) {
	repo := requireDB(t)
	ctx := context.Background()

	game, _ := seedGame(t, repo, time.Now().Add(-time.Minute), true, 1)
	now := time.Now()
	lease := 10 * time.Minute

	// Unranked games cannot be claimed.
	rows, err := repo.ClaimPublication(ctx, game.ID, now, now.Add(-lease))
	require.NoError(t, err)
	assert.Zero(t, rows)

	tx, err := repo.BeginGameTx(ctx)
	require.NoError(t, err)
	_, err = tx.MarkGameRanked(ctx, game.ID, now, &domain.RankResult{EntriesRanked: 1, PrizesDistributed: 1, TotalDistributed: 600})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	rows, err = repo.ClaimPublication(ctx, game.ID, now, now.Add(-lease))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.ClaimPublication(ctx, game.ID, now.Add(time.Minute), now.Add(time.Minute-lease))
	require.NoError(t, err)
	assert.Zero(t, rows, "a fresh claim blocks other callers")

	later := now.Add(2 * lease)
	rows, err = repo.ClaimPublication(ctx, game.ID, later, later.Add(-lease))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows, "a stale claim can be taken over")

	require.NoError(t, repo.ReleasePublishClaim(ctx, game.ID))
	stored, err := repo.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PublishClaimedAt)

	rows, err = repo.ClaimPublication(ctx, game.ID, later, later.Add(-lease))
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	rows, err = repo.RecordPublishTx(ctx, game.ID, "0xabc", "0x02f8")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	rows, err = repo.RecordPublishTx(ctx, game.ID, "0xdef", "0x02f9")
	require.NoError(t, err)
	assert.Zero(t, rows)

	// With a hash recorded the claim can neither be retaken nor released.
	far := later.Add(10 * lease)
	rows, err = repo.ClaimPublication(ctx, game.ID, far, far.Add(-lease))
	require.NoError(t, err)
	assert.Zero(t, rows)
	require.NoError(t, repo.ReleasePublishClaim(ctx, game.ID))

	rows, err = repo.MarkGamePublished(ctx, game.ID, far)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	rows, err = repo.MarkGamePublished(ctx, game.ID, far)
	require.NoError(t, err)
	assert.Zero(t, rows)

	stored, err = repo.GetGame(ctx, game.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PublishTxHash)
	assert.Equal(t, "0xabc", *stored.PublishTxHash)
	require.NotNil(t, stored.PublishRawTx)
	assert.Equal(t, "0x02f8", *stored.PublishRawTx)
	assert.NotNil(t, stored.PublishClaimedAt)
	assert.NotNil(t, stored.PublishedAt)

	rows, err = repo.ClearRevertedPublishTx(ctx, game.ID, "0xabc")
	require.NoError(t, err)
	assert.Zero(t, rows, "a published game keeps its transaction")
}

func TestGameRepository_ClearRevertedPublishTx(t *testing.T) {
	repo := requireDB(t)
	ctx := context.Background()

	game, _ := seedGame(t, repo, time.Now().Add(-time.Minute), true, 1)
	markRanked(t, repo, game.ID, 1)
	now := time.Now()
	lease := 10 * time.Minute

	rows, err := repo.ClaimPublication(ctx, game.ID, now, now.Add(-lease))
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)
	rows, err = repo.RecordPublishTx(ctx, game.ID, "0xabc", "0x02f8")
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	rows, err = repo.ClearRevertedPublishTx(ctx, game.ID, "0xother")
	require.NoError(t, err)
	assert.Zero(t, rows, "only the recorded hash can be cleared")

	rows, err = repo.ClearRevertedPublishTx(ctx, game.ID, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	stored, err := repo.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PublishTxHash)
	assert.Nil(t, stored.PublishRawTx)
	assert.Nil(t, stored.PublishClaimedAt)

	// The game can be claimed and recorded again.
	rows, err = repo.ClaimPublication(ctx, game.ID, now, now.Add(-lease))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	rows, err = repo.RecordPublishTx(ctx, game.ID, "0xdef", "0x02f9")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
}

func TestGameRepository_EntriesClosedAfterRanking(t *testing.T) {
	repo := requireDB(t)
	ctx := context.Background()

	game, _ := seedGame(t, repo, time.Now().Add(-time.Minute), false, 10)

	fid := rand.Int63n(1 << 40)
	require.NoError(t, repo.UpsertUser(ctx, &domain.User{FID: fid, Username: "late"}))

	tx, err := repo.BeginGameTx(ctx)
	require.NoError(t, err)
	_, err = tx.MarkGameRanked(ctx, game.ID, time.Now(), &domain.RankResult{EntriesRanked: 1})
	require.NoError(t, err)

	// An insert racing the ranking waits for it, then sees the game ranked.
	insertErr := make(chan error, 1)
	go func() {
		insertErr <- repo.CreateGameEntry(ctx, &domain.GameEntry{GameID: game.ID, UserFID: fid, Score: 99})
	}()

	count, err := tx.CountGameEntries(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.NoError(t, tx.Commit(ctx))

	select {
	case err := <-insertErr:
		assert.ErrorIs(t, err, ErrGameAlreadyRanked)
	case <-time.After(10 * time.Second):
		t.Fatal("insert did not finish after the ranking committed")
	}

	listed, err := repo.ListGameEntries(ctx, game.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestGameRepository_ListDueGames(t *testing.T) {
	repo := requireDB(t)
	ctx := context.Background()

	// Rows from other tests end earlier and are due too; only this test's rows are asserted.
	base := time.Now().Add(24 * time.Hour)
	unranked, _ := seedGame(t, repo, base, false, 1)
	future, _ := seedGame(t, repo, base.Add(time.Hour), false, 1)

	rankedOffchain, _ := seedGame(t, repo, base, false, 1)
	markRanked(t, repo, rankedOffchain.ID, 1)

	rankedOnchain, _ := seedGame(t, repo, base, true, 1)
	markRanked(t, repo, rankedOnchain.ID, 1)

	noWinners, _ := seedGame(t, repo, base, true, 0)
	markRanked(t, repo, noWinners.ID, 0)

	due, err := repo.ListDueGames(ctx, base.Add(time.Minute), 1000)
	require.NoError(t, err)

	ids := make(map[uuid.UUID]bool, len(due))
	for _, g := range due {
		ids[g.ID] = true
		assert.False(t, g.EndsAt.After(base.Add(time.Minute)))
	}
	assert.True(t, ids[unranked.ID])
	assert.True(t, ids[rankedOnchain.ID])
	assert.False(t, ids[future.ID])
	assert.False(t, ids[rankedOffchain.ID])
	assert.False(t, ids[noWinners.ID])

	limited, err := repo.ListDueGames(ctx, base.Add(time.Minute), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func markRanked(t *testing.T, repo *GameRepository, gameID uuid.UUID, winners int) {
	t.Helper()
	ctx := context.Background()
	tx, err := repo.BeginGameTx(ctx)
	require.NoError(t, err)
	_, err = tx.MarkGameRanked(ctx, gameID, time.Now(), &domain.RankResult{EntriesRanked: 1, PrizesDistributed: winners})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
}

func TestGameRepository_GetUsersByFIDs(t *testing.T) {
	repo := requireDB(t)
	ctx := context.Background()

	fid := rand.Int63n(1 << 40)
	require.NoError(t, repo.UpsertUser(ctx, &domain.User{
		FID:                  fid,
		Username:             "alice",
		NotificationsEnabled: true,
		NotificationURL:      strPtr("https://api.farcaster.xyz/v1/frame-notifications"),
		NotificationToken:    strPtr("tok"),
	}))

	users, err := repo.GetUsersByFIDs(ctx, []int64{fid, -1})
	require.NoError(t, err)
	require.Len(t, users, 1)
	u := users[fid]
	assert.Equal(t, "alice", u.Username)
	assert.Nil(t, u.WalletAddress)
	assert.True(t, u.CanBeNotified())

	empty, err := repo.GetUsersByFIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLifecycle_ConcurrentRankAgainstPostgres(t *testing.T) {
	repo := requireDB(t)
	ctx := context.Background()

	game, _ := seedGame(t, repo, time.Now().Add(-time.Minute), false, 40, 90, 90, 10, 0)
	svc, err := lifecycle.NewService(repo, chain.Disabled{}, nil, nil, lifecycle.NewRealClock(), lifecycle.Config{})
	require.NoError(t, err)

	const callers = 10
	results := make([]*domain.RankResult, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.RankGame(ctx, game.ID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}

	r := results[0]
	assert.Equal(t, 5, r.EntriesRanked)
	assert.Equal(t, 2, r.PrizesDistributed)
	assert.Equal(t, int64(1000), r.TotalDistributed)

	var ranked int
	err = testPool.QueryRow(ctx,
		"SELECT COUNT(DISTINCT final_rank) FROM game_entries WHERE game_id = $1 AND final_rank IS NOT NULL",
		game.ID).Scan(&ranked)
	require.NoError(t, err)
	assert.Equal(t, 5, ranked)
}
