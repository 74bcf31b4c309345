package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/fluentwork/coach/internal/platform/logger"
)

// TxFn runs inside a transaction opened by RunInTransaction.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction runs fn in a transaction on db and commits when fn
// returns nil. Errors from fn are returned unchanged after rollback. A
// failed begin or commit is reported as unavailability of entity, wrapping
// ErrTransactionFailed; nothing written by fn is kept.
func RunInTransaction(ctx context.Context, db *sql.DB, entity string, fn TxFn) (err error) {
	log := logger.FromContext(ctx).With(slog.String("entity", entity))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", slog.String("error", err.Error()))
		return Unavailable(entity, "begin", fmt.Errorf("%w: %w", ErrTransactionFailed, err))
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("rollback after panic failed", slog.String("error", rbErr.Error()))
			}
			panic(p)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("rollback failed",
				slog.String("rollback_error", rbErr.Error()),
				slog.String("error", err.Error()))
			return fmt.Errorf("rollback failed: %v: %w", rbErr, err)
		}
		log.Debug("transaction rolled back", slog.String("error", err.Error()))
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Error("failed to commit transaction", slog.String("error", err.Error()))
		return Unavailable(entity, "commit", fmt.Errorf("%w: %w", ErrTransactionFailed, err))
	}
	return nil
}
