package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/2beens/prtracker/internal/errvalues"
)

// RunInTx runs fn inside a transaction, committing when fn returns nil.
// When fn fails and the rollback fails as well, the returned error also
// matches errvalues.ErrPartialWrite, as the server side state is unknown.
// A panic in fn rolls the transaction back and is re-raised.
func RunInTx(ctx context.Context, conn Conn, fn func(tx pgx.Tx) error) (err error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return errvalues.Store(fmt.Errorf("begin tx: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("%w: rollback: %w: %w", errvalues.ErrPartialWrite, rollbackErr, err)
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = errvalues.Store(fmt.Errorf("commit tx: %w", commitErr))
		}
	}()

	return fn(tx)
}
