package lifecycle

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/osse101/TriviaCast_Go/internal/chain"
	"github.com/osse101/TriviaCast_Go/internal/domain"
	"github.com/osse101/TriviaCast_Go/internal/repository"
)

var errFakeDB = errors.New("connection refused")

// fakeRepo is an in-memory repository.Game. Conditional updates follow the
// same WHERE clauses as the SQL queries, and a ranking transaction holds a
// per-game row lock from MarkGameRanked until it finishes.
type fakeRepo struct {
	mu       sync.Mutex
	games    map[uuid.UUID]*domain.Game
	entries  map[uuid.UUID][]domain.GameEntry
	users    map[int64]domain.User
	rowLocks map[uuid.UUID]*sync.Mutex

	rankCommits int
	failUsers   bool
	failGet     map[uuid.UUID]bool
	failRecord  int    // RecordPublishTx calls left to fail
	beforeLock  func() // runs once at the start of the next MarkGameRanked
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		games:    make(map[uuid.UUID]*domain.Game),
		entries:  make(map[uuid.UUID][]domain.GameEntry),
		users:    make(map[int64]domain.User),
		rowLocks: make(map[uuid.UUID]*sync.Mutex),
		failGet:  make(map[uuid.UUID]bool),
	}
}

func (r *fakeRepo) addGame(g domain.Game) *domain.Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	r.games[g.ID] = &g
	r.rowLocks[g.ID] = &sync.Mutex{}
	return &g
}

func (r *fakeRepo) addEntry(gameID uuid.UUID, fid, score int64, completedAt *time.Time) domain.GameEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := domain.GameEntry{ID: uuid.New(), GameID: gameID, UserFID: fid, Score: score, CompletedAt: completedAt}
	r.entries[gameID] = append(r.entries[gameID], e)
	return e
}

func (r *fakeRepo) addUser(u domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.FID] = u
}

func (r *fakeRepo) snapshot(id uuid.UUID) domain.Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.games[id]
}

func (r *fakeRepo) setGame(id uuid.UUID, fn func(g *domain.Game)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.games[id])
}

func (r *fakeRepo) GetGame(_ context.Context, id uuid.UUID) (*domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet[id] {
		return nil, errFakeDB
	}
	g, ok := r.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (r *fakeRepo) ListGameEntries(_ context.Context, gameID uuid.UUID) ([]domain.GameEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries[gameID]), nil
}

func (r *fakeRepo) ListDueGames(_ context.Context, now time.Time, limit int) ([]domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []domain.Game
	for _, g := range r.games {
		if g.EndsAt.After(now) {
			continue
		}
		if g.RankedAt == nil || (g.IsOnchain() && g.WinnerCount > 0 && g.PublishedAt == nil) {
			due = append(due, *g)
		}
	}
	slices.SortFunc(due, func(a, b domain.Game) int { return a.EndsAt.Compare(b.EndsAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *fakeRepo) GetUsersByFIDs(_ context.Context, fids []int64) (map[int64]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUsers {
		return nil, errFakeDB
	}
	out := make(map[int64]domain.User)
	for _, fid := range fids {
		if u, ok := r.users[fid]; ok {
			out[fid] = u
		}
	}
	return out, nil
}

func (r *fakeRepo) ClaimPublication(_ context.Context, gameID uuid.UUID, claimedAt, staleBefore time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.games[gameID]
	if g.RankedAt == nil || g.PublishedAt != nil || g.PublishTxHash != nil {
		return 0, nil
	}
	if g.PublishClaimedAt != nil && !g.PublishClaimedAt.Before(staleBefore) {
		return 0, nil
	}
	g.PublishClaimedAt = &claimedAt
	return 1, nil
}

func (r *fakeRepo) ReleasePublishClaim(_ context.Context, gameID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.games[gameID]
	if g.PublishTxHash == nil && g.PublishedAt == nil {
		g.PublishClaimedAt = nil
	}
	return nil
}

func (r *fakeRepo) RecordPublishTx(_ context.Context, gameID uuid.UUID, txHash, rawTx string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failRecord > 0 {
		r.failRecord--
		return 0, errFakeDB
	}
	g := r.games[gameID]
	if g.PublishTxHash != nil {
		return 0, nil
	}
	g.PublishTxHash = &txHash
	g.PublishRawTx = &rawTx
	return 1, nil
}

func (r *fakeRepo) ClearRevertedPublishTx(_ context.Context, gameID uuid.UUID, txHash string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.games[gameID]
	if g.PublishTxHash == nil || *g.PublishTxHash != txHash || g.PublishedAt != nil {
		return 0, nil
	}
	g.PublishTxHash = nil
	g.PublishRawTx = nil
	g.PublishClaimedAt = nil
	return 1, nil
}

func (r *fakeRepo) MarkGamePublished(_ context.Context, gameID uuid.UUID, publishedAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.games[gameID]
	if g.PublishedAt != nil {
		return 0, nil
	}
	g.PublishedAt = &publishedAt
	return 1, nil
}

func (r *fakeRepo) BeginGameTx(_ context.Context) (repository.GameTx, error) {
	return &fakeTx{repo: r}, nil
}

type fakeTx struct {
	repo     *fakeRepo
	gameID   uuid.UUID
	lock     *sync.Mutex
	rankedAt time.Time
	result   *domain.RankResult
	rankings []domain.RankedEntry
	done     bool
}

func (t *fakeTx) MarkGameRanked(_ context.Context, gameID uuid.UUID, rankedAt time.Time, result *domain.RankResult) (int64, error) {
	t.repo.mu.Lock()
	lock := t.repo.rowLocks[gameID]
	hook := t.repo.beforeLock
	t.repo.beforeLock = nil
	t.repo.mu.Unlock()

	if hook != nil {
		hook()
	}

	// Blocks like a row lock until a concurrent ranking transaction finishes.
	lock.Lock()
	t.lock = lock
	t.gameID = gameID

	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	if t.repo.games[gameID].RankedAt != nil {
		return 0, nil
	}
	t.rankedAt = rankedAt
	t.result = result
	return 1, nil
}

func (t *fakeTx) CountGameEntries(_ context.Context, gameID uuid.UUID) (int64, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	return int64(len(t.repo.entries[gameID])), nil
}

func (t *fakeTx) SetEntryRankings(_ context.Context, _ uuid.UUID, rankings []domain.RankedEntry) error {
	t.rankings = rankings
	return nil
}

func (t *fakeTx) Commit(_ context.Context) error {
	if t.done {
		return errors.New(domain.ErrMsgTxClosed)
	}
	t.done = true
	defer t.unlock()

	if t.result == nil {
		return nil
	}

	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	g := t.repo.games[t.gameID]
	rankedAt := t.rankedAt
	g.RankedAt = &rankedAt
	g.EntryCount = t.result.EntriesRanked
	g.WinnerCount = t.result.PrizesDistributed
	g.DistributedTotal = t.result.TotalDistributed

	byID := make(map[uuid.UUID]domain.RankedEntry, len(t.rankings))
	for _, re := range t.rankings {
		byID[re.EntryID] = re
	}
	entries := t.repo.entries[t.gameID]
	for i := range entries {
		if re, ok := byID[entries[i].ID]; ok {
			rank := re.Rank
			entries[i].Rank = &rank
			entries[i].Prize = re.Prize
		}
	}
	t.repo.rankCommits++
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	if t.done {
		return errors.New(domain.ErrMsgTxClosed)
	}
	t.done = true
	t.unlock()
	return nil
}

func (t *fakeTx) unlock() {
	if t.lock != nil {
		t.lock.Unlock()
		t.lock = nil
	}
}

// mockDistributor follows the sign, record, broadcast order of the real
// distributor. A stubbed empty hash is a signing failure. A stubbed hash with
// an error is a broadcast failure after the record.
type mockDistributor struct {
	mock.Mock

	mu         sync.Mutex
	broadcasts []string
}

func (m *mockDistributor) SubmitDistribution(ctx context.Context, onchainGameID string, payouts []domain.Payout, record chain.RecordFunc) (string, error) {
	args := m.Called(ctx, onchainGameID, payouts)
	hash, err := args.String(0), args.Error(1)
	if hash == "" {
		return "", err
	}
	if rerr := record(ctx, chain.SignedTx{Hash: hash, Raw: rawTxFor(hash)}); rerr != nil {
		return "", rerr
	}
	if err != nil {
		return hash, err
	}

	m.mu.Lock()
	m.broadcasts = append(m.broadcasts, hash)
	m.mu.Unlock()
	return hash, nil
}

func (m *mockDistributor) Rebroadcast(ctx context.Context, raw string) error {
	args := m.Called(ctx, raw)
	return args.Error(0)
}

func (m *mockDistributor) broadcastCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.broadcasts)
}

func rawTxFor(hash string) string {
	return "0x02" + hash[2:]
}

func (m *mockDistributor) WaitConfirmation(ctx context.Context, txHash string) (*chain.Receipt, error) {
	args := m.Called(ctx, txHash)
	if r := args.Get(0); r != nil {
		return r.(*chain.Receipt), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyResults(ctx context.Context, game *domain.Game, recipients []domain.Recipient) int {
	args := m.Called(ctx, game, recipients)
	return args.Int(0)
}
