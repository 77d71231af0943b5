package lifecycle

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"

	"github.com/osse101/TriviaCast_Go/internal/domain"
)

// ValidatePrizeCurve checks that every share is non-negative and the shares
// fit within the pool
func ValidatePrizeCurve(curve domain.PrizeCurve) error {
	total := 0
	for i, share := range curve {
		if share < 0 {
			return fmt.Errorf("%w: "+ErrMsgNegativeShareFmt, domain.ErrInvalidPrizeCurve, i+1)
		}
		total += share
	}
	if total > domain.BasisPoints {
		return fmt.Errorf("%w: "+ErrMsgCurveOverflowFmt, domain.ErrInvalidPrizeCurve, total, domain.BasisPoints)
	}
	return nil
}

// ComputeRanking orders entries and assigns ranks and prizes. The game's own
// curve wins over defaultCurve. The result depends only on the entry values,
// never on the order they are passed in.
func ComputeRanking(game *domain.Game, entries []domain.GameEntry, defaultCurve domain.PrizeCurve) (*domain.RankResult, error) {
	if game.PrizePool < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidPrizeCurve, ErrMsgNegativePrizePool)
	}

	curve := game.PrizeCurve
	if len(curve) == 0 {
		curve = defaultCurve
	}
	if err := ValidatePrizeCurve(curve); err != nil {
		return nil, err
	}

	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, compareEntries)

	result := &domain.RankResult{
		GameID:        game.ID,
		EntriesRanked: len(sorted),
		Rankings:      make([]domain.RankedEntry, len(sorted)),
	}

	for i, e := range sorted {
		rank := i + 1
		var prize int64
		if i < len(curve) && e.Score > 0 {
			prize = prizeShare(game.PrizePool, curve[i])
		}
		if prize > 0 {
			result.PrizesDistributed++
			result.TotalDistributed += prize
		}
		result.Rankings[i] = domain.RankedEntry{
			EntryID: e.ID,
			UserFID: e.UserFID,
			Score:   e.Score,
			Rank:    rank,
			Prize:   prize,
		}
	}

	return result, nil
}

// compareEntries sorts by score descending, then earliest completion with
// missing completion times last, then entry id
func compareEntries(a, b domain.GameEntry) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	switch {
	case a.CompletedAt != nil && b.CompletedAt != nil:
		if c := a.CompletedAt.Compare(*b.CompletedAt); c != 0 {
			return c
		}
	case a.CompletedAt != nil:
		return -1
	case b.CompletedAt != nil:
		return 1
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}

// prizeShare is floor(pool * bps / 10000) without overflowing on large pools
func prizeShare(pool int64, bps int) int64 {
	share := int64(bps)
	return pool/domain.BasisPoints*share + pool%domain.BasisPoints*share/domain.BasisPoints
}

// storedResult rebuilds a RankResult from a ranked game and its persisted entries
func storedResult(game *domain.Game, entries []domain.GameEntry) *domain.RankResult {
	result := &domain.RankResult{
		GameID:            game.ID,
		EntriesRanked:     game.EntryCount,
		PrizesDistributed: game.WinnerCount,
		TotalDistributed:  game.DistributedTotal,
		Rankings:          make([]domain.RankedEntry, 0, len(entries)),
	}

	for _, e := range entries {
		if e.Rank == nil {
			continue
		}
		result.Rankings = append(result.Rankings, domain.RankedEntry{
			EntryID: e.ID,
			UserFID: e.UserFID,
			Score:   e.Score,
			Rank:    *e.Rank,
			Prize:   e.Prize,
		})
	}
	slices.SortFunc(result.Rankings, func(a, b domain.RankedEntry) int {
		return cmp.Compare(a.Rank, b.Rank)
	})

	return result
}
