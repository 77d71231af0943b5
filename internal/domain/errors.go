package domain

import (
	"errors"
	"fmt"
)

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	ErrMsgNotFound     = "not found"
	ErrMsgPrecondition = "precondition failed"
	ErrMsgPersistence  = "persistence failure"
	ErrMsgChain        = "chain submission failed"
	ErrMsgAuth         = "unauthorized"
	ErrMsgInvalidInput = "invalid input"

	ErrMsgGameNotEnded        = "game has not ended"
	ErrMsgGameNotRanked       = "game has not been ranked"
	ErrMsgGameNotOnchain      = "game has no on-chain identifier"
	ErrMsgPublishInProgress   = "publication already in progress"
	ErrMsgWinnerWalletMissing = "winner has no wallet address"
	ErrMsgInvalidPrizeCurve   = "invalid prize curve"
	ErrMsgTxReverted          = "distribution transaction reverted"
	ErrMsgEntriesChanged      = "entries changed while ranking"

	// ErrMsgTxClosed is returned by pgx when rolling back a finished transaction
	ErrMsgTxClosed = "tx is closed"
)

// Error categories. Callers classify failures with errors.Is against these.
var (
	ErrNotFound     = errors.New(ErrMsgNotFound)
	ErrPrecondition = errors.New(ErrMsgPrecondition)
	ErrPersistence  = errors.New(ErrMsgPersistence)
	ErrChain        = errors.New(ErrMsgChain)
	ErrAuth         = errors.New(ErrMsgAuth)
	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)

// Specific errors wrap their category.
var (
	ErrGameNotFound = fmt.Errorf("game %w", ErrNotFound)

	ErrGameNotEnded        = fmt.Errorf("%w: %s", ErrPrecondition, ErrMsgGameNotEnded)
	ErrGameNotRanked       = fmt.Errorf("%w: %s", ErrPrecondition, ErrMsgGameNotRanked)
	ErrGameNotOnchain      = fmt.Errorf("%w: %s", ErrPrecondition, ErrMsgGameNotOnchain)
	ErrPublishInProgress   = fmt.Errorf("%w: %s", ErrPrecondition, ErrMsgPublishInProgress)
	ErrWinnerWalletMissing = fmt.Errorf("%w: %s", ErrPrecondition, ErrMsgWinnerWalletMissing)
	ErrInvalidPrizeCurve   = fmt.Errorf("%w: %s", ErrPrecondition, ErrMsgInvalidPrizeCurve)

	// ErrTxReverted means the distribution was mined and failed. Nothing was
	// paid, so the recorded transaction may be discarded and a new one signed.
	ErrTxReverted = fmt.Errorf("%w: %s", ErrChain, ErrMsgTxReverted)

	// ErrEntriesChanged means an entry landed between reading the entries and
	// locking the game for ranking. Retrying ranks the full set.
	ErrEntriesChanged = fmt.Errorf("%w: %s", ErrPersistence, ErrMsgEntriesChanged)
)

// IsRetryable reports whether the caller may safely retry the whole operation later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence) || errors.Is(err, ErrChain)
}
