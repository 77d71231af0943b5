package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/TriviaCast_Go/internal/domain"
)

const (
	walletA = "0x1111111111111111111111111111111111111111"
	walletB = "0x2222222222222222222222222222222222222222"
	txHashA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

type fakeFetcher struct {
	mu        sync.Mutex
	responses []fetchResponse
	calls     int
}

type fetchResponse struct {
	receipt *types.Receipt
	err     error
}

func (f *fakeFetcher) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	f.calls++
	r := f.responses[idx]
	return r.receipt, r.err
}

// fakeBackend answers the calls BoundContract.Transact makes and records broadcasts
type fakeBackend struct {
	bind.ContractBackend

	mu      sync.Mutex
	nonce   uint64
	sendErr error
	sent    []*types.Transaction
}

func (b *fakeBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(100), BaseFee: big.NewInt(1_000_000_000)}, nil
}

func (b *fakeBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000), nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (b *fakeBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonce, nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 120_000, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	b.nonce = tx.Nonce() + 1
	return nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}

func (b *fakeBackend) sentCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent)
}

func newTestDistributor(t *testing.T, backend Backend) *EthDistributor {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	d, err := NewEthDistributor(backend, Config{
		ChainID:    8453,
		Contract:   walletB,
		PrivateKey: common.Bytes2Hex(crypto.FromECDSA(key)),
	})
	require.NoError(t, err)
	return d
}

var testPayouts = []domain.Payout{{Wallet: walletA, Amount: 70}}

func TestEncodeDistribution(t *testing.T) {
	gameID, winners, amounts, err := EncodeDistribution("42", []domain.Payout{
		{Wallet: walletA, Amount: 70},
		{Wallet: walletB, Amount: 30},
	})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), gameID)
	assert.Equal(t, []common.Address{common.HexToAddress(walletA), common.HexToAddress(walletB)}, winners)
	assert.Equal(t, []*big.Int{big.NewInt(70), big.NewInt(30)}, amounts)

	parsed, err := abi.JSON(strings.NewReader(DistributePrizesABI))
	require.NoError(t, err)
	data, err := parsed.Pack(MethodDistributePrizes, gameID, winners, amounts)
	require.NoError(t, err)
	assert.Equal(t, parsed.Methods[MethodDistributePrizes].ID, data[:4])
}

func TestEncodeDistribution_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		gameID  string
		payouts []domain.Payout
		msg     string
	}{
		{"non-numeric game id", "game-7", []domain.Payout{{Wallet: walletA, Amount: 1}}, ErrMsgInvalidOnchainID},
		{"negative game id", "-1", []domain.Payout{{Wallet: walletA, Amount: 1}}, ErrMsgInvalidOnchainID},
		{"no payouts", "7", nil, ErrMsgNoPayouts},
		{"bad wallet", "7", []domain.Payout{{Wallet: "0x123", Amount: 1}}, ErrMsgInvalidWallet},
		{"zero amount", "7", []domain.Payout{{Wallet: walletA, Amount: 0}}, ErrMsgInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := EncodeDistribution(tt.gameID, tt.payouts)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrChain)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestWaitForReceipt_PendingThenMined(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{err: ethereum.NotFound},
		{err: ethereum.NotFound},
		{receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(99), GasUsed: 21000}},
	}}

	receipt, err := waitForReceipt(context.Background(), fetcher, txHashA, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, txHashA, receipt.TxHash)
	assert.Equal(t, uint64(99), receipt.BlockNumber)
	assert.Equal(t, uint64(21000), receipt.GasUsed)
	assert.Equal(t, 3, fetcher.calls)
}

func TestWaitForReceipt_RevertedIsChainError(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{receipt: &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(5)}},
	}}

	_, err := waitForReceipt(context.Background(), fetcher, txHashA, time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrChain)
	assert.ErrorIs(t, err, domain.ErrTxReverted)
}

func TestWaitForReceipt_ContextDeadline(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{err: errors.New("rpc unavailable")},
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := waitForReceipt(ctx, fetcher, txHashA, 5*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrChain)
	assert.Contains(t, err.Error(), ErrMsgConfirmationTimeout)
}

func TestWaitForReceipt_InvalidHash(t *testing.T) {
	_, err := waitForReceipt(context.Background(), &fakeFetcher{}, "0x1234", time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrChain)
}

func TestNewEthDistributor(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	d, err := NewEthDistributor(nil, Config{
		ChainID:    8453,
		Contract:   walletA,
		PrivateKey: "0x" + common.Bytes2Hex(crypto.FromECDSA(key)),
	})
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), d.Operator())
	assert.Equal(t, DefaultReceiptPollInterval, d.pollInterval)

	_, err = NewEthDistributor(nil, Config{Contract: "not-an-address", PrivateKey: common.Bytes2Hex(crypto.FromECDSA(key))})
	assert.Error(t, err)

	_, err = NewEthDistributor(nil, Config{Contract: walletA, PrivateKey: "zz"})
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	var d Distributor = Disabled{}

	recorded := false
	hash, err := d.SubmitDistribution(context.Background(), "1", []domain.Payout{{Wallet: walletA, Amount: 1}},
		func(context.Context, SignedTx) error {
			recorded = true
			return nil
		})
	assert.ErrorIs(t, err, domain.ErrChain)
	assert.Empty(t, hash)
	assert.False(t, recorded)

	assert.ErrorIs(t, d.Rebroadcast(context.Background(), "0x00"), domain.ErrChain)

	_, err = d.WaitConfirmation(context.Background(), txHashA)
	assert.ErrorIs(t, err, domain.ErrChain)
}

func TestSubmitDistribution_RecordsBeforeBroadcast(t *testing.T) {
	backend := &fakeBackend{}
	d := newTestDistributor(t, backend)

	var recorded SignedTx
	hash, err := d.SubmitDistribution(context.Background(), "42", testPayouts, func(ctx context.Context, tx SignedTx) error {
		assert.Zero(t, backend.sentCount(), "broadcast before record")
		recorded = tx
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, backend.sentCount())
	assert.Equal(t, recorded.Hash, hash)
	assert.Equal(t, backend.sent[0].Hash().Hex(), hash)

	raw, err := backend.sent[0].MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, hexutil.Encode(raw), recorded.Raw)
}

func TestSubmitDistribution_RecordFailureNeverSends(t *testing.T) {
	backend := &fakeBackend{}
	d := newTestDistributor(t, backend)
	recordErr := errors.New("database unavailable")

	hash, err := d.SubmitDistribution(context.Background(), "42", testPayouts, func(context.Context, SignedTx) error {
		return recordErr
	})
	assert.ErrorIs(t, err, recordErr)
	assert.Empty(t, hash)
	assert.Zero(t, backend.sentCount())
}

func TestSubmitDistribution_BroadcastFailureKeepsHash(t *testing.T) {
	backend := &fakeBackend{sendErr: errors.New("connection reset")}
	d := newTestDistributor(t, backend)

	var recorded SignedTx
	hash, err := d.SubmitDistribution(context.Background(), "42", testPayouts, func(ctx context.Context, tx SignedTx) error {
		recorded = tx
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrChain)
	assert.Contains(t, err.Error(), ErrMsgBroadcastFailed)
	assert.Equal(t, recorded.Hash, hash)
}

func TestRebroadcast(t *testing.T) {
	backend := &fakeBackend{}
	d := newTestDistributor(t, backend)

	var recorded SignedTx
	_, err := d.SubmitDistribution(context.Background(), "42", testPayouts, func(ctx context.Context, tx SignedTx) error {
		recorded = tx
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, d.Rebroadcast(context.Background(), recorded.Raw))
	require.Equal(t, 2, backend.sentCount())
	assert.Equal(t, backend.sent[0].Hash(), backend.sent[1].Hash())

	backend.sendErr = errors.New("already known")
	assert.NoError(t, d.Rebroadcast(context.Background(), recorded.Raw))

	backend.sendErr = errors.New("insufficient funds for gas * price + value")
	err = d.Rebroadcast(context.Background(), recorded.Raw)
	assert.ErrorIs(t, err, domain.ErrChain)

	err = d.Rebroadcast(context.Background(), "0xnothex")
	assert.ErrorIs(t, err, domain.ErrChain)
	assert.Contains(t, err.Error(), ErrMsgInvalidRawTx)
}
