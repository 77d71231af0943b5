package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/osse101/TriviaCast_Go/internal/database/postgres"
	"github.com/osse101/TriviaCast_Go/internal/domain"
)

// Demo game shape
const (
	seedPlayers   = 5
	seedPrizePool = 100_000_000 // 100 tokens at 6 decimals
	seedMaxScore  = 1000
)

type SeedCommand struct{}

func (c *SeedCommand) Name() string {
	return "seed"
}

func (c *SeedCommand) Description() string {
	return "Seed an ended demo game with players (optional arg: on-chain game ID)"
}

func (c *SeedCommand) Run(args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.Timeout)
	defer cancel()

	pool, err := openPool(ctx, e)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewGameRepository(pool)

	now := time.Now().UTC()
	game := &domain.Game{
		Theme:      "Demo trivia",
		StartsAt:   now.Add(-20 * time.Minute),
		EndsAt:     now.Add(-time.Minute),
		PrizePool:  seedPrizePool,
		PrizeCurve: domain.PrizeCurve{5000, 3000, 2000},
	}
	if len(args) > 0 && args[0] != "" {
		onchainID := args[0]
		game.OnchainID = &onchainID
	}

	if err := repo.CreateGame(ctx, game); err != nil {
		return err
	}
	PrintInfo("Created game %s", game.ID)

	baseFID := time.Now().UnixNano() % 1_000_000_000
	for i := int64(0); i < seedPlayers; i++ {
		fid := baseFID + i
		wallet := fmt.Sprintf("0x%040x", fid)
		user := &domain.User{
			FID:           fid,
			Username:      fmt.Sprintf("player%d", i+1),
			WalletAddress: &wallet,
		}
		if err := repo.UpsertUser(ctx, user); err != nil {
			return err
		}

		completedAt := game.StartsAt.Add(time.Duration(i+1) * time.Minute)
		entry := &domain.GameEntry{
			GameID:      game.ID,
			UserFID:     fid,
			Score:       rand.Int63n(seedMaxScore),
			CompletedAt: &completedAt,
		}
		if err := repo.CreateGameEntry(ctx, entry); err != nil {
			return err
		}
	}

	PrintSuccess("Seeded game %s with %d players", game.ID, seedPlayers)
	return nil
}
