package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/osse101/TriviaCast_Go/internal/database/generated"
	"github.com/osse101/TriviaCast_Go/internal/domain"
)

// ErrDuplicateEntry is returned when a user already has an entry for the game
var ErrDuplicateEntry = errors.New("user already entered this game")

// ErrGameAlreadyRanked is returned when an entry arrives after the game was ranked
var ErrGameAlreadyRanked = errors.New("game is already ranked")

// CreateGame inserts a game and sets its generated ID.
// Games are normally created by the web product; this backs the dev seeder and tests.
func (r *GameRepository) CreateGame(ctx context.Context, game *domain.Game) error {
	curve, err := encodePrizeCurve(game.PrizeCurve)
	if err != nil {
		return err
	}

	id, err := r.q.CreateGame(ctx, generated.CreateGameParams{
		OnchainID:  ptrToText(game.OnchainID),
		Theme:      game.Theme,
		StartsAt:   timestamptz(game.StartsAt),
		EndsAt:     timestamptz(game.EndsAt),
		PrizePool:  game.PrizePool,
		PrizeCurve: curve,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToCreateGame, err)
	}
	game.ID = id
	return nil
}

// CreateGameEntry inserts an entry and sets its generated ID
func (r *GameRepository) CreateGameEntry(ctx context.Context, entry *domain.GameEntry) error {
	id, err := r.q.CreateGameEntry(ctx, generated.CreateGameEntryParams{
		GameID:      entry.GameID,
		UserFid:     entry.UserFID,
		Score:       entry.Score,
		CompletedAt: ptrToTimestamptz(entry.CompletedAt),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case PgErrorCodeUniqueViolation:
				return ErrDuplicateEntry
			case PgErrorCodeCheckViolation:
				return ErrGameAlreadyRanked
			}
		}
		return fmt.Errorf("%s: %w", ErrMsgFailedToCreateEntry, err)
	}
	entry.ID = id
	return nil
}

// UpsertUser inserts or refreshes a user's profile and notification details
func (r *GameRepository) UpsertUser(ctx context.Context, user *domain.User) error {
	err := r.q.UpsertUser(ctx, generated.UpsertUserParams{
		Fid:                  user.FID,
		Username:             user.Username,
		WalletAddress:        ptrToText(user.WalletAddress),
		NotificationsEnabled: user.NotificationsEnabled,
		NotificationUrl:      ptrToText(user.NotificationURL),
		NotificationToken:    ptrToText(user.NotificationToken),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpsertUser, err)
	}
	return nil
}
