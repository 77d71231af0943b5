package repository

import (
	"context"

	"github.com/osse101/TriviaCast_Go/internal/domain"
	"github.com/osse101/TriviaCast_Go/internal/logger"
)

// SafeRollback rolls back tx after a failed or abandoned unit of work.
// Rolling back a committed transaction is expected in deferred calls and is not logged.
func SafeRollback(ctx context.Context, tx Tx) {
	err := tx.Rollback(ctx)
	if err == nil || err.Error() == domain.ErrMsgTxClosed {
		return
	}
	logger.FromContext(ctx).Warn("Transaction rollback failed", "error", err)
}
