package chain

import "time"

// DistributePrizesABI is the subset of the prize contract the service calls
const DistributePrizesABI = `[{
	"type": "function",
	"name": "distributePrizes",
	"stateMutability": "nonpayable",
	"inputs": [
		{"name": "gameId", "type": "uint256"},
		{"name": "winners", "type": "address[]"},
		{"name": "amounts", "type": "uint256[]"}
	],
	"outputs": []
}]`

// MethodDistributePrizes is the contract method name
const MethodDistributePrizes = "distributePrizes"

// DefaultReceiptPollInterval is how often WaitConfirmation asks for the receipt
const DefaultReceiptPollInterval = 2 * time.Second

// Error messages
const (
	ErrMsgInvalidOnchainID    = "invalid on-chain game id"
	ErrMsgInvalidWallet       = "invalid winner wallet"
	ErrMsgInvalidAmount       = "payout amount must be positive"
	ErrMsgNoPayouts           = "no payouts to distribute"
	ErrMsgSignFailed          = "failed to sign distribution"
	ErrMsgBroadcastFailed     = "failed to broadcast distribution"
	ErrMsgInvalidRawTx        = "invalid recorded transaction"
	ErrMsgReceiptFailed       = "failed to fetch receipt"
	ErrMsgConfirmationTimeout = "gave up waiting for confirmation"
	ErrMsgChainDisabled       = "chain client not configured"
	ErrMsgInvalidTxHash       = "invalid transaction hash"
)

// Log messages
const (
	LogMsgDistributionSubmitted = "Prize distribution submitted"
	LogMsgDistributionConfirmed = "Prize distribution confirmed"
	LogMsgDialingRPC            = "Connecting to chain RPC"
	LogMsgBroadcastFailed       = "Recorded distribution could not be broadcast"
)

// KnownTxErrors are lower-cased fragments of node errors for a transaction the
// node has already seen or whose nonce is already used
var KnownTxErrors = []string{
	"already known",
	"known transaction",
	"nonce too low",
}
