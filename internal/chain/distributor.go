// Package chain submits prize distributions to the payment contract.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/osse101/TriviaCast_Go/internal/domain"
	"github.com/osse101/TriviaCast_Go/internal/logger"
)

// Receipt is the confirmed outcome of a distribution transaction
type Receipt struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	GasUsed     uint64 `json:"gas_used"`
}

// SignedTx is a signed distribution. Raw is the 0x-prefixed binary encoding.
type SignedTx struct {
	Hash string
	Raw  string
}

// RecordFunc persists a signed distribution before it is broadcast
type RecordFunc func(ctx context.Context, tx SignedTx) error

// Distributor pays winners on chain. Every error it returns wraps
// domain.ErrChain, except errors from a RecordFunc, which pass through unchanged.
type Distributor interface {
	// SubmitDistribution signs the payout, passes it to record and broadcasts it
	// only once record succeeds. An empty hash means nothing was recorded and
	// nothing was sent.
	SubmitDistribution(ctx context.Context, onchainGameID string, payouts []domain.Payout, record RecordFunc) (string, error)
	// Rebroadcast sends a recorded transaction again. A node that already has it is not an error.
	Rebroadcast(ctx context.Context, raw string) error
	// WaitConfirmation polls until the transaction is mined. A mined but failed
	// transaction returns domain.ErrTxReverted.
	WaitConfirmation(ctx context.Context, txHash string) (*Receipt, error)
}

// Sender is the part of ethclient used to broadcast signed transactions
type Sender interface {
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// ReceiptFetcher is the part of ethclient used to poll for confirmations
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Backend is satisfied by *ethclient.Client
type Backend interface {
	bind.ContractBackend
	ReceiptFetcher
}

// Config holds the contract and signer settings
type Config struct {
	RPCURL       string
	ChainID      int64
	Contract     string
	PrivateKey   string
	PollInterval time.Duration
}

// EthDistributor calls distributePrizes on an EVM payment contract
type EthDistributor struct {
	// mu spans sign, record and broadcast so two distributions never share a nonce
	mu sync.Mutex

	backend      Backend
	contract     *bind.BoundContract
	abi          abi.ABI
	key          *ecdsa.PrivateKey
	chainID      *big.Int
	pollInterval time.Duration
}

// Dial connects to the RPC endpoint and builds an EthDistributor
func Dial(ctx context.Context, cfg Config) (*EthDistributor, *ethclient.Client, error) {
	logger.FromContext(ctx).Info(LogMsgDialingRPC, "chain_id", cfg.ChainID, "contract", cfg.Contract)

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial chain rpc: %w", err)
	}
	d, err := NewEthDistributor(client, cfg)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return d, client, nil
}

// NewEthDistributor builds a distributor over an existing backend
func NewEthDistributor(backend Backend, cfg Config) (*EthDistributor, error) {
	parsed, err := abi.JSON(strings.NewReader(DistributePrizesABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract abi: %w", err)
	}
	if !common.IsHexAddress(cfg.Contract) {
		return nil, fmt.Errorf("invalid prize contract address %q", cfg.Contract)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid operator private key: %w", err)
	}

	poll := cfg.PollInterval
	if poll <= 0 {
		poll = DefaultReceiptPollInterval
	}

	address := common.HexToAddress(cfg.Contract)
	return &EthDistributor{
		backend:      backend,
		contract:     bind.NewBoundContract(address, parsed, backend, backend, backend),
		abi:          parsed,
		key:          key,
		chainID:      big.NewInt(cfg.ChainID),
		pollInterval: poll,
	}, nil
}

// Operator returns the address that signs distributions
func (d *EthDistributor) Operator() common.Address {
	return crypto.PubkeyToAddress(d.key.PublicKey)
}

// SubmitDistribution signs distributePrizes(gameId, winners, amounts) without
// sending it, records it, then broadcasts it
func (d *EthDistributor) SubmitDistribution(ctx context.Context, onchainGameID string, payouts []domain.Payout, record RecordFunc) (string, error) {
	gameID, winners, amounts, err := EncodeDistribution(onchainGameID, payouts)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	auth, err := bind.NewKeyedTransactorWithChainID(d.key, d.chainID)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrChain, ErrMsgSignFailed, err)
	}
	auth.Context = ctx
	auth.NoSend = true

	tx, err := d.contract.Transact(auth, MethodDistributePrizes, gameID, winners, amounts)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrChain, ErrMsgSignFailed, err)
	}
	signed, err := encodeSigned(tx)
	if err != nil {
		return "", err
	}

	if err := record(ctx, signed); err != nil {
		return "", err
	}

	log := logger.FromContext(ctx)
	if err := d.backend.SendTransaction(ctx, tx); err != nil {
		log.Warn(LogMsgBroadcastFailed, "tx_hash", signed.Hash, "error", err)
		return signed.Hash, fmt.Errorf("%w: %s: %v", domain.ErrChain, ErrMsgBroadcastFailed, err)
	}

	log.Info(LogMsgDistributionSubmitted,
		"onchain_game_id", onchainGameID,
		"winners", len(winners),
		"nonce", tx.Nonce(),
		"tx_hash", signed.Hash)
	return signed.Hash, nil
}

// Rebroadcast sends a recorded transaction again
func (d *EthDistributor) Rebroadcast(ctx context.Context, raw string) error {
	return rebroadcast(ctx, d.backend, raw)
}

func rebroadcast(ctx context.Context, sender Sender, raw string) error {
	data, err := hexutil.Decode(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrChain, ErrMsgInvalidRawTx, err)
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrChain, ErrMsgInvalidRawTx, err)
	}

	if err := sender.SendTransaction(ctx, tx); err != nil && !isKnownTxError(err) {
		return fmt.Errorf("%w: %s: %v", domain.ErrChain, ErrMsgBroadcastFailed, err)
	}
	return nil
}

// isKnownTxError reports node errors meaning the transaction is already in
// the pool or its nonce is spent. Either way the receipt decides the outcome.
func isKnownTxError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, known := range KnownTxErrors {
		if strings.Contains(msg, known) {
			return true
		}
	}
	return false
}

func encodeSigned(tx *types.Transaction) (SignedTx, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return SignedTx{}, fmt.Errorf("%w: %s: %v", domain.ErrChain, ErrMsgSignFailed, err)
	}
	return SignedTx{Hash: tx.Hash().Hex(), Raw: hexutil.Encode(raw)}, nil
}

// WaitConfirmation polls for the receipt until it is mined or ctx ends
func (d *EthDistributor) WaitConfirmation(ctx context.Context, txHash string) (*Receipt, error) {
	return waitForReceipt(ctx, d.backend, txHash, d.pollInterval)
}

func waitForReceipt(ctx context.Context, fetcher ReceiptFetcher, txHash string, poll time.Duration) (*Receipt, error) {
	if len(common.FromHex(txHash)) != common.HashLength {
		return nil, fmt.Errorf("%w: %s: %q", domain.ErrChain, ErrMsgInvalidTxHash, txHash)
	}
	hash := common.HexToHash(txHash)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		receipt, err := fetcher.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return nil, fmt.Errorf("%w: %s", domain.ErrTxReverted, txHash)
			}
			var block uint64
			if receipt.BlockNumber != nil {
				block = receipt.BlockNumber.Uint64()
			}
			logger.FromContext(ctx).Info(LogMsgDistributionConfirmed, "tx_hash", txHash, "block", block)
			return &Receipt{TxHash: txHash, BlockNumber: block, GasUsed: receipt.GasUsed}, nil
		case errors.Is(err, ethereum.NotFound):
			// still pending
		default:
			if ctx.Err() == nil {
				logger.FromContext(ctx).Warn(ErrMsgReceiptFailed, "tx_hash", txHash, "error", err)
			}
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrChain, ErrMsgConfirmationTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// EncodeDistribution validates payouts and converts them to contract arguments
func EncodeDistribution(onchainGameID string, payouts []domain.Payout) (*big.Int, []common.Address, []*big.Int, error) {
	gameID, ok := new(big.Int).SetString(onchainGameID, 10)
	if !ok || gameID.Sign() < 0 {
		return nil, nil, nil, fmt.Errorf("%w: %s: %q", domain.ErrChain, ErrMsgInvalidOnchainID, onchainGameID)
	}
	if len(payouts) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: %s", domain.ErrChain, ErrMsgNoPayouts)
	}

	winners := make([]common.Address, len(payouts))
	amounts := make([]*big.Int, len(payouts))
	for i, p := range payouts {
		if !common.IsHexAddress(p.Wallet) {
			return nil, nil, nil, fmt.Errorf("%w: %s: %q", domain.ErrChain, ErrMsgInvalidWallet, p.Wallet)
		}
		if p.Amount <= 0 {
			return nil, nil, nil, fmt.Errorf("%w: %s", domain.ErrChain, ErrMsgInvalidAmount)
		}
		winners[i] = common.HexToAddress(p.Wallet)
		amounts[i] = big.NewInt(p.Amount)
	}
	return gameID, winners, amounts, nil
}

// Disabled is used when no RPC endpoint is configured; every call fails with ErrChain
type Disabled struct{}

// SubmitDistribution always fails without calling record
func (Disabled) SubmitDistribution(context.Context, string, []domain.Payout, RecordFunc) (string, error) {
	return "", fmt.Errorf("%w: %s", domain.ErrChain, ErrMsgChainDisabled)
}

// Rebroadcast always fails
func (Disabled) Rebroadcast(context.Context, string) error {
	return fmt.Errorf("%w: %s", domain.ErrChain, ErrMsgChainDisabled)
}

// WaitConfirmation always fails
func (Disabled) WaitConfirmation(context.Context, string) (*Receipt, error) {
	return nil, fmt.Errorf("%w: %s", domain.ErrChain, ErrMsgChainDisabled)
}
