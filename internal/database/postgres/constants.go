package postgres

// PostgreSQL Error Codes
const (
	// PgErrorCodeUniqueViolation is the PostgreSQL error code for unique constraint violations
	PgErrorCodeUniqueViolation = "23505"
	// PgErrorCodeCheckViolation is raised by the trigger that closes ranked games to new entries
	PgErrorCodeCheckViolation = "23514"
)

// Error Messages - Transaction Operations
const (
	ErrMsgFailedToBeginTransaction = "failed to begin transaction"
)

// Error Messages - Game Operations
const (
	ErrMsgFailedToGetGame          = "failed to get game"
	ErrMsgFailedToListDueGames     = "failed to list due games"
	ErrMsgFailedToListEntries      = "failed to list game entries"
	ErrMsgFailedToMarkRanked       = "failed to mark game ranked"
	ErrMsgFailedToSetRankings      = "failed to set entry rankings"
	ErrMsgFailedToClaimPublication = "failed to claim publication"
	ErrMsgFailedToReleaseClaim     = "failed to release publication claim"
	ErrMsgFailedToRecordPublishTx  = "failed to record publish tx"
	ErrMsgFailedToClearPublishTx   = "failed to clear reverted publish tx"
	ErrMsgFailedToCountEntries     = "failed to count game entries"
	ErrMsgFailedToMarkPublished    = "failed to mark game published"
	ErrMsgFailedToDecodePrizeCurve = "failed to decode prize curve"
	ErrMsgFailedToEncodePrizeCurve = "failed to encode prize curve"
	ErrMsgFailedToCreateGame       = "failed to create game"
	ErrMsgFailedToCreateEntry      = "failed to create game entry"
	ErrMsgRankingRowCountMismatch  = "ranking update touched an unexpected number of entries"
)

// Error Messages - User Operations
const (
	ErrMsgFailedToGetUsers   = "failed to get users"
	ErrMsgFailedToUpsertUser = "failed to upsert user"
)
