package handler

// Generic HTTP error messages for client responses.
// These messages do not expose internal error details.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"
	ErrMsgInvalidGameID         = "Invalid game ID"
)

// User-facing messages for service errors
const (
	ErrMsgGenericServerError = "Something went wrong"
	ErrMsgUnknownError       = "Unknown error"
	ErrMsgGameNotFoundError  = "Game not found"
	ErrMsgUnauthorizedError  = "Unauthorized"
	ErrMsgChainError         = "Prize distribution failed. Try again later."
	ErrMsgUnavailableError   = "Server is temporarily unavailable. Please try again later."
	ErrMsgTimeoutError       = "The operation did not finish in time. Try again later."

	ErrMsgGameNotEndedError        = "Game has not ended yet"
	ErrMsgGameNotRankedError       = "Game has not been ranked yet"
	ErrMsgGameNotOnchainError      = "Game has no on-chain prize pool"
	ErrMsgPublishInProgressError   = "Publication is already in progress"
	ErrMsgWinnerWalletMissingError = "A winner has no wallet address"
	ErrMsgInvalidPrizeCurveError   = "Game prize curve is invalid"
	ErrMsgPreconditionError        = "Game is not in the right state for this operation"
)
