package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/osse101/TriviaCast_Go/internal/database/generated"
	"github.com/osse101/TriviaCast_Go/internal/domain"
)

// ptrTime converts a pgtype.Timestamptz to *time.Time.
// Returns nil if the timestamp is not valid.
func ptrTime(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// ptrInt converts a pgtype.Int4 to *int.
// Returns nil if the int is not valid.
func ptrInt(i pgtype.Int4) *int {
	if !i.Valid {
		return nil
	}
	v := int(i.Int32)
	return &v
}

func textToPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

// ptrToText converts a string pointer to pgtype.Text
func ptrToText(s *string) pgtype.Text {
	if s == nil || *s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func ptrToTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return timestamptz(*t)
}

// encodePrizeCurve stores an empty curve as SQL NULL so the configured default applies
func encodePrizeCurve(curve domain.PrizeCurve) ([]byte, error) {
	if len(curve) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(curve)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToEncodePrizeCurve, err)
	}
	return data, nil
}

func decodePrizeCurve(data []byte) (domain.PrizeCurve, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var curve domain.PrizeCurve
	if err := json.Unmarshal(data, &curve); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToDecodePrizeCurve, err)
	}
	return curve, nil
}

func mapGame(g generated.Game) (*domain.Game, error) {
	curve, err := decodePrizeCurve(g.PrizeCurve)
	if err != nil {
		return nil, err
	}
	return &domain.Game{
		ID:               g.GameID,
		OnchainID:        textToPtr(g.OnchainID),
		Theme:            g.Theme,
		StartsAt:         g.StartsAt.Time,
		EndsAt:           g.EndsAt.Time,
		PrizePool:        g.PrizePool,
		PrizeCurve:       curve,
		EntryCount:       int(g.EntryCount),
		WinnerCount:      int(g.WinnerCount),
		DistributedTotal: g.DistributedTotal,
		RankedAt:         ptrTime(g.RankedAt),
		PublishClaimedAt: ptrTime(g.PublishClaimedAt),
		PublishTxHash:    textToPtr(g.PublishTxHash),
		PublishRawTx:     textToPtr(g.PublishRawTx),
		PublishedAt:      ptrTime(g.PublishedAt),
		CreatedAt:        g.CreatedAt.Time,
	}, nil
}

func mapGameEntry(e generated.GameEntry) domain.GameEntry {
	return domain.GameEntry{
		ID:          e.EntryID,
		GameID:      e.GameID,
		UserFID:     e.UserFid,
		Score:       e.Score,
		CompletedAt: ptrTime(e.CompletedAt),
		Rank:        ptrInt(e.FinalRank),
		Prize:       e.Prize,
		CreatedAt:   e.CreatedAt.Time,
	}
}

func mapUser(u generated.GetUsersByFIDsRow) domain.User {
	return domain.User{
		FID:                  u.Fid,
		Username:             u.Username,
		WalletAddress:        textToPtr(u.WalletAddress),
		NotificationsEnabled: u.NotificationsEnabled,
		NotificationURL:      textToPtr(u.NotificationUrl),
		NotificationToken:    textToPtr(u.NotificationToken),
	}
}
