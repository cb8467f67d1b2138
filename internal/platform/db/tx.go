package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTxConflict indicates the storage layer detected a concurrent
// modification and aborted the transaction. The operation left no partial
// state behind and is safe to retry from scratch.
var ErrTxConflict = errors.New("platform/db: transaction conflict")

// WithTx executes a function within a transaction using the RepeatableRead
// isolation level. All reads inside fn must happen before the first write;
// the commit fails with ErrTxConflict when a concurrent transaction touched
// the same rows.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return classifyConflict(err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return ErrTxConflict
		}
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}

func classifyConflict(err error) error {
	if isSerializationFailure(err) {
		return ErrTxConflict
	}
	return err
}

// isSerializationFailure matches the SQLSTATE codes Postgres uses for
// serialization failures and deadlocks under RepeatableRead.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
